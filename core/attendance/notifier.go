package attendance

import (
	"fmt"
	"net/mail"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/school"
)

// Notifier emails attendance updates after a session is saved. It is
// best-effort: sends are concurrent and independent, failures are logged by
// the email service, and nothing propagates back to the save path.
type Notifier struct {
	mailSvc      core.EmailService
	facultyEmail string
	appName      string
}

func NewNotifier(mailSvc core.EmailService, facultyEmail, appName string) *Notifier {
	return &Notifier{
		mailSvc:      mailSvc,
		facultyEmail: facultyEmail,
		appName:      appName,
	}
}

// SessionRecorded sends one status email per marked student with a known
// address, plus a summary to the faculty address when one is configured.
// It returns once every send has been attempted.
func (n *Notifier) SessionRecorded(cls school.Class, ns NewSession, roster map[string]school.Student) {
	var present int
	for _, entry := range ns.Entries {
		if entry.IsPresent {
			present++
		}
	}

	messages := make([]*core.EmailMessage, 0, len(ns.Entries)+1)
	for _, entry := range ns.Entries {
		std, ok := roster[entry.StudentID]
		if !ok || std.Email == "" {
			continue
		}
		messages = append(messages, n.studentMessage(cls, std, ns.Date, entry.IsPresent))
	}
	if n.facultyEmail != "" {
		messages = append(messages, n.facultyMessage(cls, ns.Date, present, len(ns.Entries)))
	}
	if len(messages) == 0 {
		return
	}
	n.mailSvc.SendMessages(messages...)
}

func (n *Notifier) studentMessage(cls school.Class, std school.Student, date string, isPresent bool) *core.EmailMessage {
	status, color := "Absent", "#F44336"
	if isPresent {
		status, color = "Present", "#4CAF50"
	}

	return &core.EmailMessage{
		To:      []mail.Address{{Name: std.Name, Address: std.Email}},
		Subject: "Attendance Update - " + cls.Name,
		TextContent: fmt.Sprintf(
			"Dear %s,\n\nYour attendance has been marked for %s on %s: %s.\n\n"+
				"If you believe this information is incorrect, please contact your faculty or department.\n",
			std.Name, cls.Name, humanDate(date), status,
		),
		HTMLContent: fmt.Sprintf(
			`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="text-align: center;">%s</h2>
  <p>Dear <strong>%s</strong>,</p>
  <p>This is to inform you that your attendance has been marked for the following class:</p>
  <div style="background-color: #f9f9f9; padding: 15px;">
    <p><strong>Class:</strong> %s</p>
    <p><strong>Date:</strong> %s</p>
    <p><strong>Status:</strong> <span style="color: %s; font-weight: bold;">%s</span></p>
  </div>
  <p>If you believe this information is incorrect, please contact your faculty or department immediately.</p>
  <p style="font-size: 12px; color: #666;">This is an automated message. Please do not reply to this email.</p>
</div>`,
			n.appName, std.Name, cls.Name, humanDate(date), color, status,
		),
	}
}

func (n *Notifier) facultyMessage(cls school.Class, date string, present, total int) *core.EmailMessage {
	pct := percentage(present, total)
	color := "#F44336"
	switch {
	case pct >= 90:
		color = "#4CAF50"
	case pct >= 75:
		color = "#FF9800"
	}

	return &core.EmailMessage{
		To:      []mail.Address{{Address: n.facultyEmail}},
		Subject: "Attendance Summary - " + cls.Name,
		TextContent: fmt.Sprintf(
			"Attendance summary for %s on %s: %d present out of %d students (%d%%).\n",
			cls.Name, humanDate(date), present, total, pct,
		),
		HTMLContent: fmt.Sprintf(
			`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="text-align: center;">%s</h2>
  <p>Dear Faculty,</p>
  <p>Here is the attendance summary for today's class:</p>
  <div style="background-color: #f9f9f9; padding: 15px;">
    <p><strong>Class:</strong> %s</p>
    <p><strong>Date:</strong> %s</p>
    <p><strong>Attendance:</strong> %d present out of %d students</p>
    <p><strong>Percentage:</strong> <span style="color: %s; font-weight: bold;">%d%%</span></p>
  </div>
  <p style="font-size: 12px; color: #666;">This is an automated message. Please do not reply to this email.</p>
</div>`,
			n.appName, cls.Name, humanDate(date), present, total, color, pct,
		),
	}
}

func humanDate(date string) string {
	day, err := core.ParseDate(date)
	if err != nil {
		return date
	}
	return day.Format("Monday, January 2, 2006")
}
