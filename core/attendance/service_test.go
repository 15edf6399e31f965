package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/school"
	dummydb "github.com/trezcool/mahudhurio/storage/database/dummy"
)

func setup(t *testing.T) (*attendance.Service, attendance.Repository, school.Repository) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	schoolRepo := dummydb.NewSchoolRepository(db)
	repo := dummydb.NewAttendanceRepository(db)
	svc := attendance.NewService(repo, schoolRepo, nil)
	return svc, repo, schoolRepo
}

func createClass(t *testing.T, repo school.Repository, name string) school.Class {
	t.Helper()

	cls, err := repo.CreateClass(context.Background(), school.Class{
		Name:       name,
		Department: "Computer Science",
		Semester:   4,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("createClass() failed: %v", err)
	}
	return cls
}

func createStudent(t *testing.T, repo school.Repository, classID, name, rollNo string) school.Student {
	t.Helper()

	std, err := repo.CreateStudent(context.Background(), school.Student{
		Name:      name,
		RollNo:    rollNo,
		ClassID:   classID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return std
}

func TestService_Summary_noData(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	summary, err := svc.Summary(ctx, "no-such-class", "2026-03-10")
	assert.NoError(t, err)
	assert.Equal(t, attendance.Summary{Date: "2026-03-10"}, summary)
}

func TestService_SaveAndSummary(t *testing.T) {
	svc, _, schoolRepo := setup(t)
	ctx := context.Background()

	cls := createClass(t, schoolRepo, "CS101")
	alice := createStudent(t, schoolRepo, cls.ID, "Alice", "CS101_001")
	bob := createStudent(t, schoolRepo, cls.ID, "Bob", "CS101_002")
	carol := createStudent(t, schoolRepo, cls.ID, "Carol", "CS101_003")

	date := "2026-03-10"
	err := svc.Save(ctx, attendance.NewSession{
		ClassID: cls.ID,
		Date:    date,
		Entries: []attendance.SessionEntry{
			{StudentID: alice.ID, IsPresent: true},
			{StudentID: bob.ID, IsPresent: true},
			{StudentID: carol.ID, IsPresent: false},
		},
	})
	assert.NoError(t, err)

	summary, err := svc.Summary(ctx, cls.ID, date)
	assert.NoError(t, err)
	assert.Equal(t, attendance.Summary{Date: date, Present: 2, Absent: 1, Total: 3, Percentage: 67}, summary)
	assert.Equal(t, summary.Total, summary.Present+summary.Absent)

	// reading again computes the same result
	again, err := svc.Summary(ctx, cls.ID, date)
	assert.NoError(t, err)
	assert.Equal(t, summary, again)
}

func TestService_Save_resubmissionCorrects(t *testing.T) {
	svc, _, schoolRepo := setup(t)
	ctx := context.Background()

	cls := createClass(t, schoolRepo, "CS101")
	alice := createStudent(t, schoolRepo, cls.ID, "Alice", "CS101_001")

	date := "2026-03-10"
	err := svc.Save(ctx, attendance.NewSession{
		ClassID: cls.ID,
		Date:    date,
		Entries: []attendance.SessionEntry{{StudentID: alice.ID, IsPresent: false}},
	})
	assert.NoError(t, err)

	// correction: same class and day, flipped mark
	err = svc.Save(ctx, attendance.NewSession{
		ClassID: cls.ID,
		Date:    date,
		Entries: []attendance.SessionEntry{{StudentID: alice.ID, IsPresent: true}},
	})
	assert.NoError(t, err)

	summary, err := svc.Summary(ctx, cls.ID, date)
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Present)
	assert.Equal(t, 0, summary.Absent)
	assert.Equal(t, 1, summary.Total)
}

func TestService_Summary_tieBreakIsDeterministic(t *testing.T) {
	svc, repo, schoolRepo := setup(t)
	ctx := context.Background()

	cls := createClass(t, schoolRepo, "CS101")
	alice := createStudent(t, schoolRepo, cls.ID, "Alice", "CS101_001")

	// two conflicting events with the exact same creation time
	date := "2026-03-10"
	tstamp := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	events, err := repo.CreateEvents(ctx, []attendance.Event{
		{StudentID: alice.ID, ClassID: cls.ID, Date: date, IsPresent: true, CreatedAt: tstamp},
		{StudentID: alice.ID, ClassID: cls.ID, Date: date, IsPresent: false, CreatedAt: tstamp},
	})
	if err != nil {
		t.Fatalf("CreateEvents() failed: %v", err)
	}

	winner := events[0]
	if events[1].ID > winner.ID {
		winner = events[1]
	}

	wantPresent := 0
	if winner.IsPresent {
		wantPresent = 1
	}
	for i := 0; i < 5; i++ {
		summary, err := svc.Summary(ctx, cls.ID, date)
		assert.NoError(t, err)
		assert.Equal(t, wantPresent, summary.Present)
		assert.Equal(t, 1, summary.Total)
	}
}

func TestService_Save_rejectsStudentOutsideClass(t *testing.T) {
	svc, _, schoolRepo := setup(t)
	ctx := context.Background()

	cls := createClass(t, schoolRepo, "CS101")
	other := createClass(t, schoolRepo, "MA201")
	alice := createStudent(t, schoolRepo, cls.ID, "Alice", "CS101_001")
	dave := createStudent(t, schoolRepo, other.ID, "Dave", "MA201_001")

	date := "2026-03-10"
	err := svc.Save(ctx, attendance.NewSession{
		ClassID: cls.ID,
		Date:    date,
		Entries: []attendance.SessionEntry{
			{StudentID: alice.ID, IsPresent: true},
			{StudentID: dave.ID, IsPresent: true},
		},
	})
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)

	// nothing was written
	summary, err := svc.Summary(ctx, cls.ID, date)
	assert.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
}

func TestService_Save_unknownClass(t *testing.T) {
	svc, _, _ := setup(t)

	err := svc.Save(context.Background(), attendance.NewSession{
		ClassID: "no-such-class",
		Date:    "2026-03-10",
		Entries: []attendance.SessionEntry{{StudentID: "s1", IsPresent: true}},
	})
	assert.ErrorIs(t, err, school.ErrClassNotFound)
}

func TestService_DayView(t *testing.T) {
	svc, _, schoolRepo := setup(t)
	ctx := context.Background()

	cls := createClass(t, schoolRepo, "CS101")
	alice := createStudent(t, schoolRepo, cls.ID, "Alice", "CS101_001")
	bob := createStudent(t, schoolRepo, cls.ID, "Bob", "CS101_002")
	carol := createStudent(t, schoolRepo, cls.ID, "Carol", "CS101_003")

	date := "2026-03-10"
	err := svc.Save(ctx, attendance.NewSession{
		ClassID: cls.ID,
		Date:    date,
		Entries: []attendance.SessionEntry{
			{StudentID: alice.ID, IsPresent: true},
			{StudentID: bob.ID, IsPresent: false},
		},
	})
	assert.NoError(t, err)

	views, err := svc.DayView(ctx, cls.ID, date)
	assert.NoError(t, err)
	assert.Len(t, views, 3)
	assert.Equal(t, attendance.StatusPresent, views[0].Status)
	assert.Equal(t, attendance.StatusAbsent, views[1].Status)
	assert.Equal(t, attendance.StatusNotRecorded, views[2].Status)
	assert.Equal(t, carol.ID, views[2].ID)

	// unknown class reads as an empty roster, not an error
	views, err = svc.DayView(ctx, "no-such-class", date)
	assert.NoError(t, err)
	assert.Empty(t, views)
}

func TestService_BuildMatrix(t *testing.T) {
	svc, _, schoolRepo := setup(t)
	ctx := context.Background()

	cls := createClass(t, schoolRepo, "CS101")
	alice := createStudent(t, schoolRepo, cls.ID, "Alice", "CS101_001")
	bob := createStudent(t, schoolRepo, cls.ID, "Bob", "CS101_002")

	// sessions on two of three days; the middle day never contributes a column
	d1, d3 := "2026-03-02", "2026-03-04"
	for date, present := range map[string]map[string]bool{
		d1: {alice.ID: true, bob.ID: true},
		d3: {alice.ID: true, bob.ID: false},
	} {
		err := svc.Save(ctx, attendance.NewSession{
			ClassID: cls.ID,
			Date:    date,
			Entries: []attendance.SessionEntry{
				{StudentID: alice.ID, IsPresent: present[alice.ID]},
				{StudentID: bob.ID, IsPresent: present[bob.ID]},
			},
		})
		assert.NoError(t, err)
	}

	matrix, err := svc.BuildMatrix(ctx, cls.ID, "2026-03-01", "2026-03-07")
	assert.NoError(t, err)
	assert.Equal(t, []string{d1, d3}, matrix.Dates)
	assert.Len(t, matrix.Rows, 2)
	for _, row := range matrix.Rows {
		assert.Len(t, row.Statuses, len(matrix.Dates))
		assert.GreaterOrEqual(t, row.Percentage, 0)
		assert.LessOrEqual(t, row.Percentage, 100)
	}

	assert.Equal(t, attendance.StatusPresent, matrix.Status(alice.ID, d1))
	assert.Equal(t, attendance.StatusPresent, matrix.Status(alice.ID, d3))
	assert.Equal(t, attendance.StatusAbsent, matrix.Status(bob.ID, d3))
	assert.Equal(t, attendance.StatusNotRecorded, matrix.Status(bob.ID, "2026-03-03"))

	aliceRow, bobRow := matrix.Rows[0], matrix.Rows[1]
	assert.Equal(t, 2, aliceRow.TotalPresent)
	assert.Equal(t, 100, aliceRow.Percentage)
	assert.Equal(t, 1, bobRow.TotalPresent)
	assert.Equal(t, 50, bobRow.Percentage)
}

func TestService_BuildMatrix_noData(t *testing.T) {
	svc, _, schoolRepo := setup(t)

	cls := createClass(t, schoolRepo, "CS101")
	createStudent(t, schoolRepo, cls.ID, "Alice", "CS101_001")

	matrix, err := svc.BuildMatrix(context.Background(), cls.ID, "2026-03-01", "2026-03-07")
	assert.NoError(t, err)
	assert.Empty(t, matrix.Dates)
	assert.Len(t, matrix.Rows, 1)
	assert.Empty(t, matrix.Rows[0].Statuses)
	assert.Equal(t, 0, matrix.Rows[0].Percentage)
}

func TestService_DashboardStats(t *testing.T) {
	svc, repo, schoolRepo := setup(t)
	ctx := context.Background()

	stats, err := svc.DashboardStats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, attendance.DashboardStats{}, stats)

	cs := createClass(t, schoolRepo, "CS101")
	createClass(t, schoolRepo, "MA201")
	alice := createStudent(t, schoolRepo, cs.ID, "Alice", "CS101_001")
	bob := createStudent(t, schoolRepo, cs.ID, "Bob", "CS101_002")
	carol := createStudent(t, schoolRepo, cs.ID, "Carol", "CS101_003")

	err = svc.Save(ctx, attendance.NewSession{
		ClassID: cs.ID,
		Date:    core.Today(),
		Entries: []attendance.SessionEntry{
			{StudentID: alice.ID, IsPresent: true},
			{StudentID: bob.ID, IsPresent: true},
			{StudentID: carol.ID, IsPresent: false},
		},
	})
	assert.NoError(t, err)

	// one more recorded day in the past
	_, err = repo.CreateEvents(ctx, []attendance.Event{
		{StudentID: alice.ID, ClassID: cs.ID, Date: "2026-01-15", IsPresent: true, CreatedAt: time.Now().UTC()},
	})
	assert.NoError(t, err)

	stats, err = svc.DashboardStats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, attendance.DashboardStats{
		TotalClasses:     2,
		TotalStudents:    3,
		TodayAttendance:  67,
		ReportsGenerated: 2,
	}, stats)
}
