package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateClass(ctx context.Context, cls school.Class, exec ...core.DBExecutor) (school.Class, error) {
	repo.db.class.Lock()
	defer repo.db.class.Unlock()

	cls.ID = uuid.New().String()
	repo.db.class.table[cls.ID] = &cls
	repo.db.class.seq[cls.ID] = repo.db.class.next
	repo.db.class.next++
	return cls, nil
}

func (repo *schoolRepository) QueryClasses(ctx context.Context, exec ...core.DBExecutor) ([]school.Class, error) {
	repo.db.class.RLock()
	defer repo.db.class.RUnlock()

	classes := make([]school.Class, 0, len(repo.db.class.table))
	for _, cls := range repo.db.class.table {
		classes = append(classes, *cls)
	}
	sort.Slice(classes, func(i, j int) bool {
		return repo.db.class.seq[classes[i].ID] < repo.db.class.seq[classes[j].ID]
	})
	return classes, nil
}

func (repo *schoolRepository) GetClass(ctx context.Context, id string, exec ...core.DBExecutor) (school.Class, error) {
	repo.db.class.RLock()
	defer repo.db.class.RUnlock()

	if cls, ok := repo.db.class.table[id]; ok {
		return *cls, nil
	}
	return school.Class{}, school.ErrClassNotFound
}

func (repo *schoolRepository) UpdateClass(ctx context.Context, cls school.Class, exec ...core.DBExecutor) (school.Class, error) {
	repo.db.class.Lock()
	defer repo.db.class.Unlock()

	if _, ok := repo.db.class.table[cls.ID]; !ok {
		return school.Class{}, school.ErrClassNotFound
	}
	repo.db.class.table[cls.ID] = &cls
	return cls, nil
}

func (repo *schoolRepository) DeleteClass(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.class.Lock()
	defer repo.db.class.Unlock()

	delete(repo.db.class.table, id)
	delete(repo.db.class.seq, id)
	return nil
}

func (repo *schoolRepository) CountClasses(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	repo.db.class.RLock()
	defer repo.db.class.RUnlock()

	return len(repo.db.class.table), nil
}

func (repo *schoolRepository) LastClassActivity(ctx context.Context, classID string, exec ...core.DBExecutor) (*school.ClassActivity, error) {
	repo.db.attendance.RLock()
	defer repo.db.attendance.RUnlock()

	var (
		found      bool
		latestID   string
		latestAt   time.Time
		latestDate string
	)
	for _, evt := range repo.db.attendance.table {
		if evt.ClassID != classID {
			continue
		}
		if !found || evt.CreatedAt.After(latestAt) || (evt.CreatedAt.Equal(latestAt) && evt.ID > latestID) {
			found = true
			latestID = evt.ID
			latestAt = evt.CreatedAt
			latestDate = evt.Date
		}
	}
	if !found {
		return nil, nil
	}
	return &school.ClassActivity{Date: latestDate, RecordedAt: latestAt}, nil
}

func (repo *schoolRepository) CheckRollNoUniqueness(ctx context.Context, rollNo string, excluded []school.Student, exec ...core.DBExecutor) error {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	excludedIDs := make(map[string]struct{}, len(excluded))
	for _, std := range excluded {
		excludedIDs[std.ID] = struct{}{}
	}
	for _, std := range repo.db.student.table {
		if _, skip := excludedIDs[std.ID]; skip {
			continue
		}
		if std.RollNo == rollNo {
			return school.ErrRollNoExists
		}
	}
	return nil
}

func (repo *schoolRepository) CreateStudent(ctx context.Context, std school.Student, exec ...core.DBExecutor) (school.Student, error) {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()

	for _, other := range repo.db.student.table {
		if other.RollNo == std.RollNo {
			return school.Student{}, core.NewDuplicateKeyError("roll_no", school.ErrRollNoExists)
		}
	}
	std.ID = uuid.New().String()
	repo.db.student.table[std.ID] = &std
	repo.db.student.seq[std.ID] = repo.db.student.next
	repo.db.student.next++
	return std, nil
}

func (repo *schoolRepository) QueryStudents(ctx context.Context, exec ...core.DBExecutor) ([]school.Student, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	students := make([]school.Student, 0, len(repo.db.student.table))
	for _, std := range repo.db.student.table {
		students = append(students, *std)
	}
	repo.sortStudents(students)
	return students, nil
}

func (repo *schoolRepository) QueryStudentsByClass(ctx context.Context, classID string, exec ...core.DBExecutor) ([]school.Student, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	students := make([]school.Student, 0)
	for _, std := range repo.db.student.table {
		if std.ClassID == classID {
			students = append(students, *std)
		}
	}
	repo.sortStudents(students)
	return students, nil
}

func (repo *schoolRepository) GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (school.Student, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	if std, ok := repo.db.student.table[id]; ok {
		return *std, nil
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (repo *schoolRepository) GetStudentByRollNo(ctx context.Context, rollNo string, exec ...core.DBExecutor) (school.Student, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	for _, std := range repo.db.student.table {
		if std.RollNo == rollNo {
			return *std, nil
		}
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (repo *schoolRepository) UpdateStudent(ctx context.Context, std school.Student, exec ...core.DBExecutor) (school.Student, error) {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()

	if _, ok := repo.db.student.table[std.ID]; !ok {
		return school.Student{}, school.ErrStudentNotFound
	}
	for _, other := range repo.db.student.table {
		if other.ID != std.ID && other.RollNo == std.RollNo {
			return school.Student{}, core.NewDuplicateKeyError("roll_no", school.ErrRollNoExists)
		}
	}
	repo.db.student.table[std.ID] = &std
	return std, nil
}

func (repo *schoolRepository) DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()

	delete(repo.db.student.table, id)
	delete(repo.db.student.seq, id)
	return nil
}

func (repo *schoolRepository) CountStudents(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	return len(repo.db.student.table), nil
}

func (repo *schoolRepository) CountStudentsByClass(ctx context.Context, classID string, exec ...core.DBExecutor) (int, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	var count int
	for _, std := range repo.db.student.table {
		if std.ClassID == classID {
			count++
		}
	}
	return count, nil
}

func (repo *schoolRepository) CountClassAttendance(ctx context.Context, classID string, exec ...core.DBExecutor) (int, error) {
	repo.db.attendance.RLock()
	defer repo.db.attendance.RUnlock()

	var count int
	for _, evt := range repo.db.attendance.table {
		if evt.ClassID == classID {
			count++
		}
	}
	return count, nil
}

func (repo *schoolRepository) CountStudentAttendance(ctx context.Context, studentID string, exec ...core.DBExecutor) (int, error) {
	repo.db.attendance.RLock()
	defer repo.db.attendance.RUnlock()

	var count int
	for _, evt := range repo.db.attendance.table {
		if evt.StudentID == studentID {
			count++
		}
	}
	return count, nil
}

// sortStudents restores insertion order; caller holds at least a read lock.
func (repo *schoolRepository) sortStudents(students []school.Student) {
	sort.Slice(students, func(i, j int) bool {
		return repo.db.student.seq[students[i].ID] < repo.db.student.seq[students[j].ID]
	})
}
