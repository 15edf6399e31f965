package school_test

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

func setup(t *testing.T) (*school.Service, school.Repository, attendance.Repository) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	repo := dummydb.NewSchoolRepository(db)
	return school.NewService(repo), repo, dummydb.NewAttendanceRepository(db)
}

func createClass(t *testing.T, svc *school.Service, name string) school.Class {
	t.Helper()

	cls, err := svc.CreateClass(context.Background(), school.NewClass{
		Name:       name,
		Department: "Computer Science",
		Semester:   4,
	})
	if err != nil {
		t.Fatalf("createClass() failed: %v", err)
	}
	return cls
}

func createStudent(t *testing.T, svc *school.Service, classID, name, rollNo string) school.Student {
	t.Helper()

	std, err := svc.CreateStudent(context.Background(), school.NewStudent{
		Name:    name,
		RollNo:  rollNo,
		ClassID: classID,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return std
}

func TestService_Classes(t *testing.T) {
	svc, _, attRepo := setup(t)
	ctx := context.Background()

	infos, err := svc.Classes(ctx)
	assert.NoError(t, err)
	assert.Empty(t, infos)

	cs := createClass(t, svc, "CS101")
	ma := createClass(t, svc, "MA201")
	alice := createStudent(t, svc, cs.ID, "Alice", "CS101_001")
	createStudent(t, svc, cs.ID, "Bob", "CS101_002")

	_, err = attRepo.CreateEvents(ctx, []attendance.Event{
		{StudentID: alice.ID, ClassID: cs.ID, Date: "2026-01-15", IsPresent: true, CreatedAt: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)},
	})
	assert.NoError(t, err)

	infos, err = svc.Classes(ctx)
	assert.NoError(t, err)
	assert.Len(t, infos, 2)

	assert.Equal(t, cs.ID, infos[0].ID)
	assert.Equal(t, 2, infos[0].StudentCount)
	assert.Equal(t, "Jan 15, 2026", infos[0].LastUpdated)

	assert.Equal(t, ma.ID, infos[1].ID)
	assert.Equal(t, 0, infos[1].StudentCount)
	assert.Empty(t, infos[1].LastUpdated)
}

func TestService_GetClass_notFound(t *testing.T) {
	svc, _, _ := setup(t)

	_, err := svc.GetClass(context.Background(), "no-such-class")
	assert.ErrorIs(t, err, school.ErrClassNotFound)
}

func TestService_UpdateClass(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	cls := createClass(t, svc, "CS101")
	updated, err := svc.UpdateClass(ctx, cls.ID, school.UpdateClass{
		Name:       "CS101",
		Department: "Computer Science",
		Semester:   5,
	})
	assert.NoError(t, err)
	assert.Equal(t, 5, updated.Semester)
	assert.Equal(t, cls.ID, updated.ID)

	got, err := svc.GetClass(ctx, cls.ID)
	assert.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestService_DeleteClass_guards(t *testing.T) {
	svc, _, attRepo := setup(t)
	ctx := context.Background()

	// a class with students cannot go
	cls := createClass(t, svc, "CS101")
	std := createStudent(t, svc, cls.ID, "Alice", "CS101_001")

	err := svc.DeleteClass(ctx, cls.ID)
	var refErr *core.ReferentialConflictError
	assert.ErrorAs(t, err, &refErr)
	assert.Equal(t, "student", refErr.Dependent)

	// neither can a rosterless class with attendance history
	other := createClass(t, svc, "MA201")
	_, err = attRepo.CreateEvents(ctx, []attendance.Event{
		{StudentID: std.ID, ClassID: other.ID, Date: "2026-03-10", IsPresent: true, CreatedAt: time.Now().UTC()},
	})
	assert.NoError(t, err)

	err = svc.DeleteClass(ctx, other.ID)
	assert.ErrorAs(t, err, &refErr)
	assert.Equal(t, "attendance", refErr.Dependent)

	// an empty class deletes fine
	empty := createClass(t, svc, "PH301")
	assert.NoError(t, svc.DeleteClass(ctx, empty.ID))
	_, err = svc.GetClass(ctx, empty.ID)
	assert.ErrorIs(t, err, school.ErrClassNotFound)

	assert.ErrorIs(t, svc.DeleteClass(ctx, "no-such-class"), school.ErrClassNotFound)
}

func TestService_CreateStudent(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	cls := createClass(t, svc, "CS101")
	std := createStudent(t, svc, cls.ID, "Alice", "CS101_001")
	assert.NotEmpty(t, std.ID)

	// unknown class
	_, err := svc.CreateStudent(ctx, school.NewStudent{Name: "Bob", RollNo: "CS101_002", ClassID: "no-such-class"})
	assert.ErrorIs(t, err, school.ErrClassNotFound)

	// duplicate roll number, institution-wide
	other := createClass(t, svc, "MA201")
	_, err = svc.CreateStudent(ctx, school.NewStudent{Name: "Bob", RollNo: "CS101_001", ClassID: other.ID})
	var dupErr *core.DuplicateKeyError
	assert.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "roll_no", dupErr.Field)
}

func TestService_UpdateStudent(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	cls := createClass(t, svc, "CS101")
	other := createClass(t, svc, "MA201")
	alice := createStudent(t, svc, cls.ID, "Alice", "CS101_001")
	createStudent(t, svc, cls.ID, "Bob", "CS101_002")

	// move to another class
	updated, err := svc.UpdateStudent(ctx, alice.ID, school.UpdateStudent{
		Name:    alice.Name,
		RollNo:  alice.RollNo,
		ClassID: other.ID,
	})
	assert.NoError(t, err)
	assert.Equal(t, other.ID, updated.ClassID)

	// taking another student's roll number is refused
	_, err = svc.UpdateStudent(ctx, alice.ID, school.UpdateStudent{
		Name:    alice.Name,
		RollNo:  "CS101_002",
		ClassID: other.ID,
	})
	var dupErr *core.DuplicateKeyError
	assert.ErrorAs(t, err, &dupErr)

	// keeping one's own roll number is fine
	_, err = svc.UpdateStudent(ctx, alice.ID, school.UpdateStudent{
		Name:    "Alice M.",
		RollNo:  alice.RollNo,
		ClassID: other.ID,
	})
	assert.NoError(t, err)
}

func TestService_DeleteStudent_guard(t *testing.T) {
	svc, _, attRepo := setup(t)
	ctx := context.Background()

	cls := createClass(t, svc, "CS101")
	alice := createStudent(t, svc, cls.ID, "Alice", "CS101_001")
	bob := createStudent(t, svc, cls.ID, "Bob", "CS101_002")

	_, err := attRepo.CreateEvents(ctx, []attendance.Event{
		{StudentID: alice.ID, ClassID: cls.ID, Date: "2026-03-10", IsPresent: true, CreatedAt: time.Now().UTC()},
	})
	assert.NoError(t, err)

	err = svc.DeleteStudent(ctx, alice.ID)
	var refErr *core.ReferentialConflictError
	assert.ErrorAs(t, err, &refErr)
	assert.Equal(t, "student", refErr.Resource)

	assert.NoError(t, svc.DeleteStudent(ctx, bob.ID))
	_, err = svc.GetStudent(ctx, bob.ID)
	assert.ErrorIs(t, err, school.ErrStudentNotFound)
}

func TestService_GetStudentByRollNo(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	cls := createClass(t, svc, "CS101")
	alice := createStudent(t, svc, cls.ID, "Alice", "CS101_001")

	got, err := svc.GetStudentByRollNo(ctx, " CS101_001 ")
	assert.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = svc.GetStudentByRollNo(ctx, "NOPE")
	assert.ErrorIs(t, err, school.ErrStudentNotFound)
}

func TestNewStudent_Validate(t *testing.T) {
	validate, _ := core.NewValidator()

	tests := []struct {
		name    string
		data    school.NewStudent
		wantErr bool
	}{
		{
			name: "ok",
			data: school.NewStudent{Name: "Alice", RollNo: "CS101_001", ClassID: "c1", Email: " Alice@Uni.Test "},
		},
		{
			name: "rollNo format is free-form",
			data: school.NewStudent{Name: "Alice", RollNo: "CS-2001", ClassID: "c1", Email: "alice@uni.test"},
		},
		{
			name:    "missing rollNo",
			data:    school.NewStudent{Name: "Alice", ClassID: "c1"},
			wantErr: true,
		},
		{
			name:    "bad email",
			data:    school.NewStudent{Name: "Alice", RollNo: "CS101_001", ClassID: "c1", Email: "nope"},
			wantErr: true,
		},
		{
			name:    "missing name",
			data:    school.NewStudent{RollNo: "CS101_001", ClassID: "c1"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "alice@uni.test", tt.data.Email)
		})
	}
}
