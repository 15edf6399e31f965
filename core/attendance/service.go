package attendance

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/school"
)

var errStudentNotInClass = errors.New("student does not belong to this class")

type (
	Repository interface {
		// CreateEvents appends events atomically: either every event lands or
		// none does. It never updates or deletes rows.
		CreateEvents(ctx context.Context, events []Event, exec ...core.DBExecutor) ([]Event, error)
		QueryEventsByClassDate(ctx context.Context, classID, date string, exec ...core.DBExecutor) ([]Event, error)
		QueryEventsByClassRange(ctx context.Context, classID, startDate, endDate string, exec ...core.DBExecutor) ([]Event, error)
		QueryEventsByDate(ctx context.Context, date string, exec ...core.DBExecutor) ([]Event, error)
		CountRecordedDates(ctx context.Context, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo       Repository
		schoolRepo school.Repository
		notifier   *Notifier
	}
)

func NewService(repo Repository, schoolRepo school.Repository, notifier *Notifier) *Service {
	return &Service{
		repo:       repo,
		schoolRepo: schoolRepo,
		notifier:   notifier,
	}
}

// DayView returns every student of the class with their canonical status for
// the day. Reads never fail on "no data": a class without attendance yields
// all-NotRecorded rows, an unknown class an empty slice.
func (svc *Service) DayView(ctx context.Context, classID, date string) ([]StudentDayView, error) {
	students, err := svc.schoolRepo.QueryStudentsByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	events, err := svc.repo.QueryEventsByClassDate(ctx, classID, date)
	if err != nil {
		return nil, err
	}
	canon := canonicalize(events)

	views := make([]StudentDayView, 0, len(students))
	for _, std := range students {
		view := StudentDayView{Student: std, Status: StatusNotRecorded}
		if evt, ok := canon[recordKey{studentID: std.ID, classID: classID, date: date}]; ok {
			view.Status = statusOf(evt.IsPresent)
		}
		views = append(views, view)
	}
	return views, nil
}

// Save appends one event per entry in a single transaction, then hands the
// session to the notification dispatcher. Every entry must reference a student
// of the class; otherwise nothing is written.
func (svc *Service) Save(ctx context.Context, ns NewSession) error {
	cls, err := svc.schoolRepo.GetClass(ctx, ns.ClassID)
	if err != nil {
		return err
	}
	students, err := svc.schoolRepo.QueryStudentsByClass(ctx, ns.ClassID)
	if err != nil {
		return err
	}

	roster := make(map[string]school.Student, len(students))
	for _, std := range students {
		roster[std.ID] = std
	}
	events := make([]Event, 0, len(ns.Entries))
	for _, entry := range ns.Entries {
		if _, ok := roster[entry.StudentID]; !ok {
			return core.NewValidationError(
				errStudentNotInClass,
				core.FieldError{Field: "entries", Error: errStudentNotInClass.Error()},
			)
		}
		events = append(events, Event{
			StudentID: entry.StudentID,
			ClassID:   ns.ClassID,
			Date:      ns.Date,
			IsPresent: entry.IsPresent,
			Subject:   ns.Subject,
			TimeSlot:  ns.TimeSlot,
			CreatedAt: time.Now().UTC(),
		})
	}

	if _, err = svc.repo.CreateEvents(ctx, events); err != nil {
		return errors.Wrap(err, "saving attendance")
	}

	// best-effort notifications; the dispatcher's outcome never reaches the caller
	if svc.notifier != nil {
		go svc.notifier.SessionRecorded(cls, ns, roster)
	}
	return nil
}

// Summary computes counts over the canonical records of one class and day.
func (svc *Service) Summary(ctx context.Context, classID, date string) (Summary, error) {
	events, err := svc.repo.QueryEventsByClassDate(ctx, classID, date)
	if err != nil {
		return Summary{}, err
	}

	var present, total int
	for _, evt := range canonicalize(events) {
		total++
		if evt.IsPresent {
			present++
		}
	}
	return Summary{
		Date:       date,
		Present:    present,
		Absent:     total - present,
		Total:      total,
		Percentage: percentage(present, total),
	}, nil
}

// DashboardStats aggregates across all classes. ReportsGenerated counts the
// distinct calendar days with at least one attendance record system-wide.
func (svc *Service) DashboardStats(ctx context.Context) (DashboardStats, error) {
	totalClasses, err := svc.schoolRepo.CountClasses(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	totalStudents, err := svc.schoolRepo.CountStudents(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	todayEvents, err := svc.repo.QueryEventsByDate(ctx, core.Today())
	if err != nil {
		return DashboardStats{}, err
	}
	recordedDates, err := svc.repo.CountRecordedDates(ctx)
	if err != nil {
		return DashboardStats{}, err
	}

	var present, total int
	for _, evt := range canonicalize(todayEvents) {
		total++
		if evt.IsPresent {
			present++
		}
	}
	return DashboardStats{
		TotalClasses:     totalClasses,
		TotalStudents:    totalStudents,
		TodayAttendance:  percentage(present, total),
		ReportsGenerated: recordedDates,
	}, nil
}

// BuildMatrix builds the student×date grid for [startDate, endDate]. Only days
// with at least one canonical record contribute a column.
func (svc *Service) BuildMatrix(ctx context.Context, classID, startDate, endDate string) (Matrix, error) {
	students, err := svc.schoolRepo.QueryStudentsByClass(ctx, classID)
	if err != nil {
		return Matrix{}, err
	}
	events, err := svc.repo.QueryEventsByClassRange(ctx, classID, startDate, endDate)
	if err != nil {
		return Matrix{}, err
	}
	canon := canonicalize(events)

	dateSet := make(map[string]struct{})
	for key := range canon {
		dateSet[key.date] = struct{}{}
	}
	dates := make([]string, 0, len(dateSet))
	for date := range dateSet {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	rows := make([]MatrixRow, 0, len(students))
	for _, std := range students {
		row := MatrixRow{Student: std, Statuses: make([]Status, 0, len(dates))}
		for _, date := range dates {
			status := StatusNotRecorded
			if evt, ok := canon[recordKey{studentID: std.ID, classID: classID, date: date}]; ok {
				status = statusOf(evt.IsPresent)
				if evt.IsPresent {
					row.TotalPresent++
				}
			}
			row.Statuses = append(row.Statuses, status)
		}
		row.Percentage = percentage(row.TotalPresent, len(dates))
		rows = append(rows, row)
	}
	return Matrix{Dates: dates, Rows: rows}, nil
}

func statusOf(isPresent bool) Status {
	if isPresent {
		return StatusPresent
	}
	return StatusAbsent
}

// percentage rounds part/total to a whole percent; 0 when total is 0.
func percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
