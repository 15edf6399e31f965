package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.db
}

type eventRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	ClassID   string    `db:"class_id"`
	Date      string    `db:"date"`
	IsPresent bool      `db:"is_present"`
	Subject   string    `db:"subject"`
	TimeSlot  string    `db:"time_slot"`
	CreatedAt time.Time `db:"created_at"`
}

func (r eventRow) toDomain() attendance.Event {
	return attendance.Event{
		ID:        r.ID,
		StudentID: r.StudentID,
		ClassID:   r.ClassID,
		Date:      r.Date,
		IsPresent: r.IsPresent,
		Subject:   r.Subject,
		TimeSlot:  r.TimeSlot,
		CreatedAt: r.CreatedAt,
	}
}

func eventSlice(rows []eventRow) []attendance.Event {
	events := make([]attendance.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toDomain())
	}
	return events
}

const selectEvents = `
	SELECT id, student_id, class_id, date::text AS date, is_present, subject, time_slot, created_at
	FROM attendance`

// CreateEvents appends rows only; the attendance table has no update path.
// Without a caller-provided executor the batch runs in its own transaction,
// so a failure mid-batch lands nothing.
func (repo *attendanceRepository) CreateEvents(ctx context.Context, events []attendance.Event, exec ...core.DBExecutor) ([]attendance.Event, error) {
	if len(exec) > 0 {
		return repo.createEvents(ctx, events, exec[0])
	}

	var inserted []attendance.Event
	err := core.RunInTx(ctx, repo.db, func(tx core.DBTransactor) error {
		var txErr error
		inserted, txErr = repo.createEvents(ctx, events, tx)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func (repo *attendanceRepository) createEvents(ctx context.Context, events []attendance.Event, exe core.DBExecutor) ([]attendance.Event, error) {
	for i := range events {
		events[i].ID = uuid.New().String()
		_, err := exe.ExecContext(ctx, `
			INSERT INTO attendance (id, student_id, class_id, date, is_present, subject, time_slot, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			events[i].ID, events[i].StudentID, events[i].ClassID, events[i].Date,
			events[i].IsPresent, events[i].Subject, events[i].TimeSlot, events[i].CreatedAt.UTC(),
		)
		if err != nil {
			return nil, errors.Wrap(err, "inserting attendance event")
		}
	}
	return events, nil
}

func (repo *attendanceRepository) QueryEventsByClassDate(ctx context.Context, classID, date string, _ ...core.DBExecutor) ([]attendance.Event, error) {
	if _, err := uuid.Parse(classID); err != nil {
		return []attendance.Event{}, nil
	}
	var rows []eventRow
	err := repo.db.SelectContext(ctx, &rows, selectEvents+`
		WHERE class_id = $1 AND date = $2
		ORDER BY created_at, id`, classID, date)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance by date")
	}
	return eventSlice(rows), nil
}

func (repo *attendanceRepository) QueryEventsByClassRange(ctx context.Context, classID, startDate, endDate string, _ ...core.DBExecutor) ([]attendance.Event, error) {
	if _, err := uuid.Parse(classID); err != nil {
		return []attendance.Event{}, nil
	}
	var rows []eventRow
	err := repo.db.SelectContext(ctx, &rows, selectEvents+`
		WHERE class_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, created_at, id`, classID, startDate, endDate)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance range")
	}
	return eventSlice(rows), nil
}

func (repo *attendanceRepository) QueryEventsByDate(ctx context.Context, date string, _ ...core.DBExecutor) ([]attendance.Event, error) {
	var rows []eventRow
	err := repo.db.SelectContext(ctx, &rows, selectEvents+`
		WHERE date = $1
		ORDER BY created_at, id`, date)
	if err != nil {
		return nil, errors.Wrap(err, "querying day attendance")
	}
	return eventSlice(rows), nil
}

func (repo *attendanceRepository) CountRecordedDates(ctx context.Context, _ ...core.DBExecutor) (int, error) {
	var count int
	if err := repo.db.GetContext(ctx, &count, `SELECT COUNT(DISTINCT date) FROM attendance`); err != nil {
		return 0, errors.Wrap(err, "counting recorded dates")
	}
	return count, nil
}
