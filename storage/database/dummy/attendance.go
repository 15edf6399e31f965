package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

// CreateEvents appends the whole batch under one lock acquisition.
func (repo *attendanceRepository) CreateEvents(ctx context.Context, events []attendance.Event, exec ...core.DBExecutor) ([]attendance.Event, error) {
	repo.db.attendance.Lock()
	defer repo.db.attendance.Unlock()

	for i := range events {
		events[i].ID = uuid.New().String()
		evt := events[i]
		repo.db.attendance.table[evt.ID] = &evt
		repo.db.attendance.seq[evt.ID] = repo.db.attendance.next
		repo.db.attendance.next++
	}
	return events, nil
}

func (repo *attendanceRepository) QueryEventsByClassDate(ctx context.Context, classID, date string, exec ...core.DBExecutor) ([]attendance.Event, error) {
	return repo.query(func(evt *attendance.Event) bool {
		return evt.ClassID == classID && evt.Date == date
	}), nil
}

func (repo *attendanceRepository) QueryEventsByClassRange(ctx context.Context, classID, startDate, endDate string, exec ...core.DBExecutor) ([]attendance.Event, error) {
	return repo.query(func(evt *attendance.Event) bool {
		return evt.ClassID == classID && evt.Date >= startDate && evt.Date <= endDate
	}), nil
}

func (repo *attendanceRepository) QueryEventsByDate(ctx context.Context, date string, exec ...core.DBExecutor) ([]attendance.Event, error) {
	return repo.query(func(evt *attendance.Event) bool {
		return evt.Date == date
	}), nil
}

func (repo *attendanceRepository) CountRecordedDates(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	repo.db.attendance.RLock()
	defer repo.db.attendance.RUnlock()

	dates := make(map[string]struct{})
	for _, evt := range repo.db.attendance.table {
		dates[evt.Date] = struct{}{}
	}
	return len(dates), nil
}

func (repo *attendanceRepository) query(match func(*attendance.Event) bool) []attendance.Event {
	repo.db.attendance.RLock()
	defer repo.db.attendance.RUnlock()

	events := make([]attendance.Event, 0)
	for _, evt := range repo.db.attendance.table {
		if match(evt) {
			events = append(events, *evt)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return repo.db.attendance.seq[events[i].ID] < repo.db.attendance.seq[events[j].ID]
	})
	return events
}
