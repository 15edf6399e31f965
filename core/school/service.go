package school

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

var (
	ErrClassNotFound   = &core.NotFoundError{Resource: "class"}
	ErrStudentNotFound = &core.NotFoundError{Resource: "student"}
	ErrRollNoExists    = errors.New("a student with this roll number already exists")
)

type (
	// ClassActivity is the latest attendance recorded for a class, if any.
	ClassActivity struct {
		Date       string // calendar day
		RecordedAt time.Time
	}

	Repository interface {
		CreateClass(ctx context.Context, cls Class, exec ...core.DBExecutor) (Class, error)
		QueryClasses(ctx context.Context, exec ...core.DBExecutor) ([]Class, error)
		GetClass(ctx context.Context, id string, exec ...core.DBExecutor) (Class, error)
		UpdateClass(ctx context.Context, cls Class, exec ...core.DBExecutor) (Class, error)
		DeleteClass(ctx context.Context, id string, exec ...core.DBExecutor) error
		CountClasses(ctx context.Context, exec ...core.DBExecutor) (int, error)
		LastClassActivity(ctx context.Context, classID string, exec ...core.DBExecutor) (*ClassActivity, error)

		// CheckRollNoUniqueness returns ErrRollNoExists when another student
		// already holds rollNo, institution-wide.
		CheckRollNoUniqueness(ctx context.Context, rollNo string, excluded []Student, exec ...core.DBExecutor) error
		CreateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		QueryStudents(ctx context.Context, exec ...core.DBExecutor) ([]Student, error)
		// QueryStudentsByClass returns students in insertion order; an unknown
		// or empty class yields an empty slice, not an error.
		QueryStudentsByClass(ctx context.Context, classID string, exec ...core.DBExecutor) ([]Student, error)
		GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (Student, error)
		GetStudentByRollNo(ctx context.Context, rollNo string, exec ...core.DBExecutor) (Student, error)
		UpdateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error
		CountStudents(ctx context.Context, exec ...core.DBExecutor) (int, error)
		CountStudentsByClass(ctx context.Context, classID string, exec ...core.DBExecutor) (int, error)

		CountClassAttendance(ctx context.Context, classID string, exec ...core.DBExecutor) (int, error)
		CountStudentAttendance(ctx context.Context, studentID string, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CreateClass(ctx context.Context, nc NewClass) (Class, error) {
	cls := Class{
		Name:       nc.Name,
		Department: nc.Department,
		Semester:   nc.Semester,
		Subject:    nc.Subject,
		CreatedAt:  time.Now().UTC(),
	}
	return svc.repo.CreateClass(ctx, cls)
}

// Classes lists all classes with roster sizes and last-activity labels.
func (svc *Service) Classes(ctx context.Context) ([]ClassInfo, error) {
	classes, err := svc.repo.QueryClasses(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]ClassInfo, 0, len(classes))
	for _, cls := range classes {
		count, err := svc.repo.CountStudentsByClass(ctx, cls.ID)
		if err != nil {
			return nil, err
		}
		activity, err := svc.repo.LastClassActivity(ctx, cls.ID)
		if err != nil {
			return nil, err
		}
		infos = append(infos, ClassInfo{
			Class:        cls,
			StudentCount: count,
			LastUpdated:  activityLabel(activity),
		})
	}
	return infos, nil
}

func (svc *Service) GetClass(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *Service) UpdateClass(ctx context.Context, id string, uc UpdateClass) (Class, error) {
	orig, err := svc.repo.GetClass(ctx, id)
	if err != nil {
		return Class{}, err
	}
	orig.Name = uc.Name
	orig.Department = uc.Department
	orig.Semester = uc.Semester
	orig.Subject = uc.Subject
	return svc.repo.UpdateClass(ctx, orig)
}

// DeleteClass refuses to delete while students or attendance rows still
// reference the class. The counts are re-checked at delete time; a concurrent
// insert makes a retried delete fail, never lose data.
func (svc *Service) DeleteClass(ctx context.Context, id string) error {
	if _, err := svc.repo.GetClass(ctx, id); err != nil {
		return err
	}

	stdCount, err := svc.repo.CountStudentsByClass(ctx, id)
	if err != nil {
		return err
	}
	if stdCount > 0 {
		return core.NewReferentialConflictError("class", "student")
	}

	attCount, err := svc.repo.CountClassAttendance(ctx, id)
	if err != nil {
		return err
	}
	if attCount > 0 {
		return core.NewReferentialConflictError("class", "attendance")
	}

	return svc.repo.DeleteClass(ctx, id)
}

func (svc *Service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	if _, err := svc.repo.GetClass(ctx, ns.ClassID); err != nil {
		return Student{}, err
	}
	if err := svc.checkRollNoUniqueness(ctx, ns.RollNo); err != nil {
		return Student{}, err
	}

	std := Student{
		Name:           ns.Name,
		RollNo:         ns.RollNo,
		ClassID:        ns.ClassID,
		RegistrationNo: ns.RegistrationNo,
		Email:          ns.Email,
		Mobile:         ns.Mobile,
		CreatedAt:      time.Now().UTC(),
	}
	return svc.repo.CreateStudent(ctx, std)
}

func (svc *Service) Students(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryStudents(ctx)
}

func (svc *Service) StudentsByClass(ctx context.Context, classID string) ([]Student, error) {
	return svc.repo.QueryStudentsByClass(ctx, classID)
}

func (svc *Service) GetStudent(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *Service) GetStudentByRollNo(ctx context.Context, rollNo string) (Student, error) {
	return svc.repo.GetStudentByRollNo(ctx, core.CleanString(rollNo))
}

func (svc *Service) UpdateStudent(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	orig, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if us.ClassID != orig.ClassID {
		if _, err = svc.repo.GetClass(ctx, us.ClassID); err != nil {
			return Student{}, err
		}
	}
	if us.RollNo != orig.RollNo {
		if err = svc.checkRollNoUniqueness(ctx, us.RollNo, orig); err != nil {
			return Student{}, err
		}
	}

	orig.Name = us.Name
	orig.RollNo = us.RollNo
	orig.ClassID = us.ClassID
	orig.RegistrationNo = us.RegistrationNo
	orig.Email = us.Email
	orig.Mobile = us.Mobile
	return svc.repo.UpdateStudent(ctx, orig)
}

// DeleteStudent refuses to delete while attendance rows still reference the
// student.
func (svc *Service) DeleteStudent(ctx context.Context, id string) error {
	if _, err := svc.repo.GetStudent(ctx, id); err != nil {
		return err
	}

	attCount, err := svc.repo.CountStudentAttendance(ctx, id)
	if err != nil {
		return err
	}
	if attCount > 0 {
		return core.NewReferentialConflictError("student", "attendance")
	}

	return svc.repo.DeleteStudent(ctx, id)
}

// checkRollNoUniqueness pre-checks before insert; the unique index on roll_no
// backstops the race window between check and insert.
func (svc *Service) checkRollNoUniqueness(ctx context.Context, rollNo string, exclStudents ...Student) error {
	if err := svc.repo.CheckRollNoUniqueness(ctx, rollNo, exclStudents); err != nil {
		if errors.Cause(err) == ErrRollNoExists {
			return core.NewDuplicateKeyError("roll_no", ErrRollNoExists)
		}
		return err
	}
	return nil
}

func activityLabel(activity *ClassActivity) string {
	if activity == nil {
		return ""
	}

	day, err := core.ParseDate(activity.Date)
	if err != nil {
		return activity.Date
	}
	now := time.Now().UTC()
	today := now.Truncate(24 * time.Hour)
	switch {
	case day.Equal(today):
		return "Today at " + activity.RecordedAt.Format("3:04 PM")
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday at " + activity.RecordedAt.Format("3:04 PM")
	default:
		return day.Format("Jan 2, 2006")
	}
}
