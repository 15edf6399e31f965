package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
)

type SuccessResponse struct {
	Success string `json:"success"`
}

// attendanceQuery filters day views and summaries. Date defaults to today.
type attendanceQuery struct {
	ClassID string `query:"classId" validate:"required"`
	Date    string `query:"date" validate:"omitempty,caldate"`
}

func (q *attendanceQuery) Validate(validate *validator.Validate) error {
	q.ClassID = core.CleanString(q.ClassID)
	q.Date = core.CleanString(q.Date)
	if err := validate.Struct(q); err != nil {
		return err
	}
	if q.Date == "" {
		q.Date = core.Today()
	}
	return nil
}

// exportQuery selects the class and date range of a report download.
type exportQuery struct {
	ClassID   string `query:"classId" validate:"required"`
	StartDate string `query:"startDate" validate:"required,caldate"`
	EndDate   string `query:"endDate" validate:"required,caldate"`
}

func (q *exportQuery) Validate(validate *validator.Validate) error {
	q.ClassID = core.CleanString(q.ClassID)
	q.StartDate = core.CleanString(q.StartDate)
	q.EndDate = core.CleanString(q.EndDate)
	return validate.Struct(q)
}

type studentsQuery struct {
	ClassID string `query:"classId"`
}
