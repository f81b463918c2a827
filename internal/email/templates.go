package email

import (
	"html/template"
	"strings"

	"github.com/Guyeche/Romki-Barber-App-V2/internal/model"
)

// Subjects for the three notification kinds.
const (
	SubjectCustomerConfirmation = "Your Appointment is Confirmed!"
	SubjectAdminNotification    = "New Booking Notification"
	SubjectCancellationNotice   = "Your Appointment Has Been Canceled"
)

type templateData struct {
	CustomerName string
	Service      string
	Date         string // DD/MM/YYYY
	Time         string
}

var customerConfirmationTmpl = template.Must(template.New("customer_confirmation").Parse(`
  <h1>Booking Confirmation</h1>
  <p>Dear {{.CustomerName}},</p>
  <p>Your appointment for <strong>{{.Service}}</strong> is confirmed for <strong>{{.Date}}</strong> at <strong>{{.Time}}</strong>.</p>
  <p>Thank you for choosing Romki Barber Shop.</p>
`))

var adminNotificationTmpl = template.Must(template.New("admin_notification").Parse(`
  <h1>New Booking</h1>
  <p>A new appointment has been booked:</p>
  <ul>
    <li><strong>Name:</strong> {{.CustomerName}}</li>
    <li><strong>Service:</strong> {{.Service}}</li>
    <li><strong>Date:</strong> {{.Date}}</li>
    <li><strong>Time:</strong> {{.Time}}</li>
  </ul>
`))

var cancellationNoticeTmpl = template.Must(template.New("cancellation_notice").Parse(`
  <h1>Appointment Canceled</h1>
  <p>Dear {{.CustomerName}},</p>
  <p>Your appointment for <strong>{{.Service}}</strong> on <strong>{{.Date}}</strong> at <strong>{{.Time}}</strong> has been canceled.</p>
  <p>We apologize for any inconvenience. Please feel free to book another appointment at your convenience.</p>
  <p>Sincerely,</p>
  <p>The Romki Barber Shop Team</p>
`))

func CustomerConfirmationHTML(appt model.Appointment) string {
	return render(customerConfirmationTmpl, appt)
}

func AdminNotificationHTML(appt model.Appointment) string {
	return render(adminNotificationTmpl, appt)
}

func CancellationNoticeHTML(appt model.Appointment) string {
	return render(cancellationNoticeTmpl, appt)
}

func render(t *template.Template, appt model.Appointment) string {
	var b strings.Builder
	// Static templates over string fields cannot fail to execute.
	_ = t.Execute(&b, templateData{
		CustomerName: appt.CustomerName,
		Service:      appt.Service,
		Date:         model.DisplayDate(appt.Date),
		Time:         appt.Time,
	})
	return b.String()
}
