package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-booking/internal/config"
	"github.com/jwalitptl/clinic-booking/internal/model"
)

type Service interface {
	SendBookingCreated(ctx context.Context, to string, event *model.BookingEvent) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	dialer dialer
	from   string
	loc    *time.Location
}

// NewSMTPService sends mail through the configured SMTP relay. Booking times
// are rendered in loc.
func NewSMTPService(cfg config.SMTPConfig, loc *time.Location) Service {
	if loc == nil {
		loc = time.UTC
	}
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		loc:    loc,
	}
}

func (s *smtpService) SendBookingCreated(ctx context.Context, to string, event *model.BookingEvent) error {
	start := event.StartTime.In(s.loc).Format("15:04")
	end := event.EndTime.In(s.loc).Format("15:04")
	subject := fmt.Sprintf("New booking on %s at %s", event.Date, start)

	var b strings.Builder
	fmt.Fprintf(&b, "Booking: %s\n", event.BookingID)
	fmt.Fprintf(&b, "Service: %s\n", orID(event.ServiceName, event.ServiceID.String()))
	fmt.Fprintf(&b, "Patient: %s\n", orID(event.PatientName, event.PatientID.String()))
	if event.PatientPhone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", event.PatientPhone)
	}
	fmt.Fprintf(&b, "Date: %s\n", event.Date)
	fmt.Fprintf(&b, "Time: %s - %s\n", start, end)
	fmt.Fprintf(&b, "Status: %s\n", event.Status)

	return s.SendCustom(ctx, to, subject, b.String())
}

func (s *smtpService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func orID(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
