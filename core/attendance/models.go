package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/school"
)

// Status is the three-state presence of a student on a recorded day.
// NotRecorded distinguishes "never took attendance" from "marked absent".
type Status string

const (
	StatusPresent     Status = "present"
	StatusAbsent      Status = "absent"
	StatusNotRecorded Status = "not_recorded"
)

// Event is a single attendance record. Events are immutable once written:
// there is no update or delete path anywhere in the repository, and a
// correction is a new row resolved at read time by the canonical-record rule.
type Event struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	ClassID   string    `json:"class_id"`
	Date      string    `json:"date"` // calendar day, YYYY-MM-DD
	IsPresent bool      `json:"is_present"`
	Subject   string    `json:"subject,omitempty"`
	TimeSlot  string    `json:"time_slot,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC, assigned at insert
}

// StudentDayView is a student with their canonical status on one day.
type StudentDayView struct {
	school.Student
	Status Status `json:"status"`
}

type Summary struct {
	Date       string `json:"date"`
	Present    int    `json:"present"`
	Absent     int    `json:"absent"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

type DashboardStats struct {
	TotalClasses     int `json:"total_classes"`
	TotalStudents    int `json:"total_students"`
	TodayAttendance  int `json:"today_attendance"` // percentage
	ReportsGenerated int `json:"reports_generated"`
}

type (
	// Matrix is the student×date grid of canonical statuses underlying both
	// summary reporting and spreadsheet export.
	Matrix struct {
		Dates []string    `json:"dates"` // ascending, only days with >= 1 record
		Rows  []MatrixRow `json:"rows"`
	}

	MatrixRow struct {
		Student      school.Student `json:"student"`
		Statuses     []Status       `json:"statuses"` // aligned with Matrix.Dates
		TotalPresent int            `json:"total_present"`
		Percentage   int            `json:"percentage"`
	}
)

// Status returns the cell status for the given student and date, or
// StatusNotRecorded when either is unknown to the matrix.
func (m *Matrix) Status(studentID, date string) Status {
	dateIdx := -1
	for i, d := range m.Dates {
		if d == date {
			dateIdx = i
			break
		}
	}
	if dateIdx < 0 {
		return StatusNotRecorded
	}
	for _, row := range m.Rows {
		if row.Student.ID == studentID {
			return row.Statuses[dateIdx]
		}
	}
	return StatusNotRecorded
}

// SessionEntry is one student's mark within a session submission.
type SessionEntry struct {
	StudentID string `json:"student_id" validate:"required"`
	IsPresent bool   `json:"is_present"`
}

// NewSession contains a full attendance submission for one class and day.
type NewSession struct {
	ClassID  string         `json:"class_id" validate:"required"`
	Date     string         `json:"date" validate:"required,caldate"`
	Subject  string         `json:"subject"`
	TimeSlot string         `json:"time_slot"`
	Entries  []SessionEntry `json:"entries" validate:"required,min=1,dive"`
}

func (ns *NewSession) Validate(validate *validator.Validate) error {
	ns.Date = core.CleanString(ns.Date)
	ns.Subject = core.CleanString(ns.Subject)
	ns.TimeSlot = core.CleanString(ns.TimeSlot)
	return validate.Struct(ns)
}
