package main

import (
	"log"
	"os"

	echoapi "github.com/trezcool/mahudhurio/apps/api/echo"
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/school"
	emailsvc "github.com/trezcool/mahudhurio/services/email"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
	reportsvc "github.com/trezcool/mahudhurio/services/report"
	"github.com/trezcool/mahudhurio/storage/database"
	sqlxrepos "github.com/trezcool/mahudhurio/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	workDir, err := os.Getwd()
	errAndDie(std, err)
	conf, err := core.NewConfig(workDir)
	errAndDie(std, err)

	logger := logsvc.NewRollbarLogger(std, conf)
	defer logger.Close()

	// set up DB
	if conf.Debug {
		errAndDie(std, database.CreateIfNotExist(conf))
	}
	db, err := database.Open(conf)
	errAndDie(std, err)
	defer db.Close()
	errAndDie(std, database.Migrate(db.DB))

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}
	validate, translator := core.NewValidator()

	schoolRepo := sqlxrepos.NewSchoolRepository(db)
	schoolSvc := school.NewService(schoolRepo)
	notifier := attendance.NewNotifier(mailSvc, conf.FacultyEmail, conf.AppName)
	attendanceSvc := attendance.NewService(sqlxrepos.NewAttendanceRepository(db), schoolRepo, notifier)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Conf:          conf,
			Logger:        logger,
			SchoolSvc:     schoolSvc,
			AttendanceSvc: attendanceSvc,
			Exporter:      reportsvc.NewExcelExporter(),
			Validate:      validate,
			Translator:    translator,
		},
	)
	if err = app.Start(); err != nil {
		logger.Fatal("server stopped", err)
	}
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatalf("%+v", err)
	}
}
