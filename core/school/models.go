package school

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
)

type Class struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	Semester   int       `json:"semester"`
	Subject    string    `json:"subject,omitempty"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// ClassInfo is a Class enriched with roster size and a last-activity label
// for listing screens.
type ClassInfo struct {
	Class
	StudentCount int    `json:"student_count"`
	LastUpdated  string `json:"last_updated,omitempty"`
}

type Student struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	RollNo         string    `json:"roll_no"`
	ClassID        string    `json:"class_id"`
	RegistrationNo string    `json:"registration_no,omitempty"`
	Email          string    `json:"email,omitempty"`
	Mobile         string    `json:"mobile,omitempty"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

// NewClass contains information needed to create a new Class.
type NewClass struct {
	Name       string `json:"name" validate:"required"`
	Department string `json:"department" validate:"required"`
	Semester   int    `json:"semester" validate:"required,min=1"`
	Subject    string `json:"subject"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Department = core.CleanString(nc.Department)
	nc.Subject = core.CleanString(nc.Subject)
	return validate.Struct(nc)
}

// UpdateClass defines what information may be provided to modify an existing
// Class. Zero values keep the original's.
type UpdateClass struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	Semester   int    `json:"semester" validate:"omitempty,min=1"`
	Subject    string `json:"subject"`
}

func (uc *UpdateClass) Validate(orig Class, validate *validator.Validate) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	if dept := core.CleanString(uc.Department); dept != "" {
		uc.Department = dept
	} else {
		uc.Department = orig.Department
	}
	if uc.Semester == 0 {
		uc.Semester = orig.Semester
	}
	if subj := core.CleanString(uc.Subject); subj != "" {
		uc.Subject = subj
	} else {
		uc.Subject = orig.Subject
	}
	return validate.Struct(uc)
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	Name           string `json:"name" validate:"required"`
	RollNo         string `json:"roll_no" validate:"required"`
	ClassID        string `json:"class_id" validate:"required"`
	RegistrationNo string `json:"registration_no"`
	Email          string `json:"email" validate:"omitempty,email"`
	Mobile         string `json:"mobile"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.RollNo = core.CleanString(ns.RollNo)
	ns.RegistrationNo = core.CleanString(ns.RegistrationNo)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Mobile = core.CleanString(ns.Mobile)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing
// Student. Zero values keep the original's; ClassID may move the student to
// another class.
type UpdateStudent struct {
	Name           string `json:"name"`
	RollNo         string `json:"roll_no"`
	ClassID        string `json:"class_id"`
	RegistrationNo string `json:"registration_no"`
	Email          string `json:"email" validate:"omitempty,email"`
	Mobile         string `json:"mobile"`
}

func (us *UpdateStudent) Validate(orig Student, validate *validator.Validate) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if rollNo := core.CleanString(us.RollNo); rollNo != "" {
		us.RollNo = rollNo
	} else {
		us.RollNo = orig.RollNo
	}
	if us.ClassID == "" {
		us.ClassID = orig.ClassID
	}
	if regNo := core.CleanString(us.RegistrationNo); regNo != "" {
		us.RegistrationNo = regNo
	} else {
		us.RegistrationNo = orig.RegistrationNo
	}
	if email := core.CleanString(us.Email, true /* lower */); email != "" {
		us.Email = email
	} else {
		us.Email = orig.Email
	}
	if mobile := core.CleanString(us.Mobile); mobile != "" {
		us.Mobile = mobile
	} else {
		us.Mobile = orig.Mobile
	}
	return validate.Struct(us)
}
