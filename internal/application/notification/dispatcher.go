package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"math"
	"time"

	"github.com/task-tracker-api/internal/domain"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Mailer delivers one rendered HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Dispatcher renders and sends every email the service produces. All
// failures come back wrapped in domain.ErrDelivery.
type Dispatcher struct {
	mailer Mailer
	log    *zap.Logger
	otpTTL time.Duration
	now    func() time.Time
}

func NewDispatcher(mailer Mailer, log *zap.Logger, otpTTL time.Duration) *Dispatcher {
	return &Dispatcher{mailer: mailer, log: log, otpTTL: otpTTL, now: time.Now}
}

// Send delivers a pre-rendered email. A panicking mailer is reported as a
// delivery failure.
func (d *Dispatcher) Send(ctx context.Context, to, subject, htmlBody string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mailer panic: %v: %w", r, domain.ErrDelivery)
		}
		if err != nil {
			d.log.Error("email delivery failed", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		}
	}()
	if err := d.mailer.Send(ctx, to, subject, htmlBody); err != nil {
		return fmt.Errorf("send %q: %v: %w", subject, err, domain.ErrDelivery)
	}
	d.log.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (d *Dispatcher) SendOTP(ctx context.Context, to string, purpose domain.OTPPurpose, code string) error {
	name, subject := "otp_signup.html", "Verify Your Email - Student Task Tracker"
	if purpose == domain.OTPPurposeReset {
		name, subject = "otp_reset.html", "Reset Your Password - Student Task Tracker"
	}
	body, err := render(name, struct {
		Code      string
		ExpiresIn string
	}{code, humanMinutes(d.otpTTL)})
	if err != nil {
		return err
	}
	return d.Send(ctx, to, subject, body)
}

func (d *Dispatcher) SendTaskNotice(ctx context.Context, to, action string, t *domain.Task) error {
	label := actionLabel(action)
	body, err := render("task_notice.html", struct {
		Action string
		Task   *domain.Task
	}{label, t})
	if err != nil {
		return err
	}
	return d.Send(ctx, to, fmt.Sprintf("Task %s: %q", label, t.Title), body)
}

func (d *Dispatcher) SendTaskReminder(ctx context.Context, to string, t *domain.Task) error {
	days := int(math.Ceil(t.DueDate.Sub(d.now()).Hours() / 24))
	body, err := render("task_reminder.html", struct {
		Task     *domain.Task
		DaysLeft int
	}{t, days})
	if err != nil {
		return err
	}
	return d.Send(ctx, to, fmt.Sprintf("Task Reminder: %q is due soon!", t.Title), body)
}

func (d *Dispatcher) SendWeeklyReport(ctx context.Context, to, name string, stats domain.TaskStats) error {
	body, err := render("weekly_report.html", struct {
		Name  string
		Stats domain.TaskStats
	}{name, stats})
	if err != nil {
		return err
	}
	subject := "Your Weekly Productivity Report - " + d.now().Format("Jan 2, 2006")
	return d.Send(ctx, to, subject, body)
}

func (d *Dispatcher) SendWelcome(ctx context.Context, to, name string) error {
	body, err := render("welcome.html", struct{ Name string }{name})
	if err != nil {
		return err
	}
	return d.Send(ctx, to, "Welcome to Student Task Tracker", body)
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %v: %w", name, err, domain.ErrDelivery)
	}
	return buf.String(), nil
}

func actionLabel(action string) string {
	switch action {
	case domain.TaskCreated:
		return "Created"
	case domain.TaskCompleted:
		return "Completed"
	case domain.TaskDeleted:
		return "Deleted"
	default:
		return "Updated"
	}
}

func humanMinutes(d time.Duration) string {
	m := int(d.Round(time.Minute) / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
