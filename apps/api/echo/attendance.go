package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/school"
	reportsvc "github.com/trezcool/mahudhurio/services/report"
)

type attendanceApi struct {
	svc       *attendance.Service
	schoolSvc *school.Service
	exporter  *reportsvc.ExcelExporter
	validate  *validator.Validate
}

func registerAttendanceAPI(
	g *echo.Group,
	svc *attendance.Service,
	schoolSvc *school.Service,
	exporter *reportsvc.ExcelExporter,
	validate *validator.Validate,
) {
	api := attendanceApi{
		svc:       svc,
		schoolSvc: schoolSvc,
		exporter:  exporter,
		validate:  validate,
	}

	ag := g.Group("/attendance")
	ag.GET("", api.dayView)
	ag.POST("", api.save)
	ag.GET("/summary", api.summary)

	g.GET("/dashboard/stats", api.dashboardStats)
	g.GET("/export/attendance", api.export)
}

// dayView returns every student of the class with their status for the day.
func (api *attendanceApi) dayView(ctx echo.Context) error {
	var q attendanceQuery
	if err := ctx.Bind(&q); err != nil {
		return errors.Wrap(err, "binding to attendanceQuery")
	}
	if err := q.Validate(api.validate); err != nil {
		return err
	}

	views, err := api.svc.DayView(ctx.Request().Context(), q.ClassID, q.Date)
	if err != nil {
		return errors.Wrap(err, "building day view")
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *attendanceApi) save(ctx echo.Context) error {
	var data attendance.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.Save(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, SuccessResponse{Success: "Attendance recorded."})
}

func (api *attendanceApi) summary(ctx echo.Context) error {
	var q attendanceQuery
	if err := ctx.Bind(&q); err != nil {
		return errors.Wrap(err, "binding to attendanceQuery")
	}
	if err := q.Validate(api.validate); err != nil {
		return err
	}

	summary, err := api.svc.Summary(ctx.Request().Context(), q.ClassID, q.Date)
	if err != nil {
		return errors.Wrap(err, "computing summary")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *attendanceApi) dashboardStats(ctx echo.Context) error {
	stats, err := api.svc.DashboardStats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing dashboard stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

// export streams the class report as a spreadsheet download. The class is
// resolved before any bytes are written so a missing class still yields a 404.
func (api *attendanceApi) export(ctx echo.Context) error {
	var q exportQuery
	if err := ctx.Bind(&q); err != nil {
		return errors.Wrap(err, "binding to exportQuery")
	}
	if err := q.Validate(api.validate); err != nil {
		return err
	}

	cls, err := api.schoolSvc.GetClass(ctx.Request().Context(), q.ClassID)
	if err != nil {
		return err
	}
	matrix, err := api.svc.BuildMatrix(ctx.Request().Context(), q.ClassID, q.StartDate, q.EndDate)
	if err != nil {
		return errors.Wrap(err, "building matrix")
	}
	data, err := api.exporter.Export(cls, matrix)
	if err != nil {
		return errors.Wrap(err, "rendering report")
	}

	ctx.Response().Header().Set(
		echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, api.exporter.Filename(cls)),
	)
	return ctx.Blob(http.StatusOK, reportsvc.ContentType, data)
}
