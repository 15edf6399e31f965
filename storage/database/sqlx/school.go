package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/school"
)

const pqUniqueViolation = "23505"

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.db
}

type classRow struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Department string    `db:"department"`
	Semester   int       `db:"semester"`
	Subject    string    `db:"subject"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r classRow) toDomain() school.Class {
	return school.Class{
		ID:         r.ID,
		Name:       r.Name,
		Department: r.Department,
		Semester:   r.Semester,
		Subject:    r.Subject,
		CreatedAt:  r.CreatedAt,
	}
}

type studentRow struct {
	ID             string    `db:"id"`
	Name           string    `db:"name"`
	RollNo         string    `db:"roll_no"`
	ClassID        string    `db:"class_id"`
	RegistrationNo string    `db:"registration_no"`
	Email          string    `db:"email"`
	Mobile         string    `db:"mobile"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r studentRow) toDomain() school.Student {
	return school.Student{
		ID:             r.ID,
		Name:           r.Name,
		RollNo:         r.RollNo,
		ClassID:        r.ClassID,
		RegistrationNo: r.RegistrationNo,
		Email:          r.Email,
		Mobile:         r.Mobile,
		CreatedAt:      r.CreatedAt,
	}
}

func studentSlice(rows []studentRow) []school.Student {
	students := make([]school.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.toDomain())
	}
	return students
}

// Classes

func (repo *schoolRepository) CreateClass(ctx context.Context, cls school.Class, exec ...core.DBExecutor) (school.Class, error) {
	cls.ID = uuid.New().String()
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO classes (id, name, department, semester, subject, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		cls.ID, cls.Name, cls.Department, cls.Semester, cls.Subject, cls.CreatedAt.UTC(),
	)
	if err != nil {
		return school.Class{}, errors.Wrap(err, "inserting class")
	}
	return cls, nil
}

func (repo *schoolRepository) QueryClasses(ctx context.Context, _ ...core.DBExecutor) ([]school.Class, error) {
	var rows []classRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT id, name, department, semester, subject, created_at
		FROM classes
		ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]school.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, r.toDomain())
	}
	return classes, nil
}

func (repo *schoolRepository) GetClass(ctx context.Context, id string, _ ...core.DBExecutor) (school.Class, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.Class{}, school.ErrClassNotFound
	}
	var row classRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT id, name, department, semester, subject, created_at
		FROM classes WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return school.Class{}, school.ErrClassNotFound
		}
		return school.Class{}, errors.Wrap(err, "finding class")
	}
	return row.toDomain(), nil
}

func (repo *schoolRepository) UpdateClass(ctx context.Context, cls school.Class, exec ...core.DBExecutor) (school.Class, error) {
	res, err := repo.getExec(exec).ExecContext(ctx, `
		UPDATE classes SET name = $2, department = $3, semester = $4, subject = $5
		WHERE id = $1`,
		cls.ID, cls.Name, cls.Department, cls.Semester, cls.Subject,
	)
	if err != nil {
		return school.Class{}, errors.Wrap(err, "updating class")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.Class{}, school.ErrClassNotFound
	}
	return cls, nil
}

func (repo *schoolRepository) DeleteClass(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if _, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return nil
}

func (repo *schoolRepository) CountClasses(ctx context.Context, _ ...core.DBExecutor) (int, error) {
	var count int
	if err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM classes`); err != nil {
		return 0, errors.Wrap(err, "counting classes")
	}
	return count, nil
}

func (repo *schoolRepository) LastClassActivity(ctx context.Context, classID string, _ ...core.DBExecutor) (*school.ClassActivity, error) {
	var row struct {
		Date       string    `db:"date"`
		RecordedAt time.Time `db:"created_at"`
	}
	err := repo.db.GetContext(ctx, &row, `
		SELECT date::text AS date, created_at
		FROM attendance WHERE class_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "finding last class activity")
	}
	return &school.ClassActivity{Date: row.Date, RecordedAt: row.RecordedAt}, nil
}

// Students

func (repo *schoolRepository) CheckRollNoUniqueness(ctx context.Context, rollNo string, excluded []school.Student, _ ...core.DBExecutor) error {
	query := `SELECT EXISTS (SELECT 1 FROM students WHERE roll_no = ?`
	args := []interface{}{rollNo}
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, std := range excluded {
			ids = append(ids, std.ID)
		}
		query += ` AND id NOT IN (?)`
		args = append(args, ids)
	}
	query += `)`

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return errors.Wrap(err, "building roll number query")
	}

	var exists bool
	if err = repo.db.GetContext(ctx, &exists, repo.db.Rebind(query), inArgs...); err != nil {
		return errors.Wrap(err, "checking roll number uniqueness")
	}
	if exists {
		return school.ErrRollNoExists
	}
	return nil
}

func (repo *schoolRepository) CreateStudent(ctx context.Context, std school.Student, exec ...core.DBExecutor) (school.Student, error) {
	std.ID = uuid.New().String()
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO students (id, name, roll_no, class_id, registration_no, email, mobile, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		std.ID, std.Name, std.RollNo, std.ClassID, std.RegistrationNo, std.Email, std.Mobile, std.CreatedAt.UTC(),
	)
	if err != nil {
		// the unique index backstops the service's check-then-insert race
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return school.Student{}, core.NewDuplicateKeyError("roll_no", school.ErrRollNoExists)
		}
		return school.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo *schoolRepository) QueryStudents(ctx context.Context, _ ...core.DBExecutor) ([]school.Student, error) {
	var rows []studentRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT id, name, roll_no, class_id, registration_no, email, mobile, created_at
		FROM students
		ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return studentSlice(rows), nil
}

func (repo *schoolRepository) QueryStudentsByClass(ctx context.Context, classID string, _ ...core.DBExecutor) ([]school.Student, error) {
	if _, err := uuid.Parse(classID); err != nil {
		return []school.Student{}, nil
	}
	var rows []studentRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT id, name, roll_no, class_id, registration_no, email, mobile, created_at
		FROM students WHERE class_id = $1
		ORDER BY created_at, id`, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying class students")
	}
	return studentSlice(rows), nil
}

func (repo *schoolRepository) GetStudent(ctx context.Context, id string, _ ...core.DBExecutor) (school.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.Student{}, school.ErrStudentNotFound
	}
	var row studentRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT id, name, roll_no, class_id, registration_no, email, mobile, created_at
		FROM students WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return school.Student{}, school.ErrStudentNotFound
		}
		return school.Student{}, errors.Wrap(err, "finding student")
	}
	return row.toDomain(), nil
}

func (repo *schoolRepository) GetStudentByRollNo(ctx context.Context, rollNo string, _ ...core.DBExecutor) (school.Student, error) {
	var row studentRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT id, name, roll_no, class_id, registration_no, email, mobile, created_at
		FROM students WHERE roll_no = $1`, rollNo)
	if err != nil {
		if err == sql.ErrNoRows {
			return school.Student{}, school.ErrStudentNotFound
		}
		return school.Student{}, errors.Wrap(err, "finding student by roll number")
	}
	return row.toDomain(), nil
}

func (repo *schoolRepository) UpdateStudent(ctx context.Context, std school.Student, exec ...core.DBExecutor) (school.Student, error) {
	res, err := repo.getExec(exec).ExecContext(ctx, `
		UPDATE students SET name = $2, roll_no = $3, class_id = $4, registration_no = $5, email = $6, mobile = $7
		WHERE id = $1`,
		std.ID, std.Name, std.RollNo, std.ClassID, std.RegistrationNo, std.Email, std.Mobile,
	)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return school.Student{}, core.NewDuplicateKeyError("roll_no", school.ErrRollNoExists)
		}
		return school.Student{}, errors.Wrap(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.Student{}, school.ErrStudentNotFound
	}
	return std, nil
}

func (repo *schoolRepository) DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if _, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return nil
}

func (repo *schoolRepository) CountStudents(ctx context.Context, _ ...core.DBExecutor) (int, error) {
	var count int
	if err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, errors.Wrap(err, "counting students")
	}
	return count, nil
}

func (repo *schoolRepository) CountStudentsByClass(ctx context.Context, classID string, _ ...core.DBExecutor) (int, error) {
	var count int
	if err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM students WHERE class_id = $1`, classID); err != nil {
		return 0, errors.Wrap(err, "counting class students")
	}
	return count, nil
}

// Attendance reference counts (delete guards)

func (repo *schoolRepository) CountClassAttendance(ctx context.Context, classID string, _ ...core.DBExecutor) (int, error) {
	var count int
	if err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM attendance WHERE class_id = $1`, classID); err != nil {
		return 0, errors.Wrap(err, "counting class attendance")
	}
	return count, nil
}

func (repo *schoolRepository) CountStudentAttendance(ctx context.Context, studentID string, _ ...core.DBExecutor) (int, error) {
	var count int
	if err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM attendance WHERE student_id = $1`, studentID); err != nil {
		return 0, errors.Wrap(err, "counting student attendance")
	}
	return count, nil
}
