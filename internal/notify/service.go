package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stillwater-counseling/practice-platform/internal/contacts"
	"github.com/stillwater-counseling/practice-platform/pkg/logging"
)

// Config holds the practice identity used in outbound messages.
type Config struct {
	PracticeName     string
	PracticeLocation string
	AdminEmail       string
}

// Service builds and dispatches the practice's outbound notifications. Client
// and admin messages are deliberately different shapes: clients get a plain
// confirmation, the admin copy carries the calendar-event fields and the
// intake answers needed to prepare for the session.
type Service struct {
	email  EmailSender
	sms    SMSSender
	cfg    Config
	logger *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, sms SMSSender, cfg Config, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.PracticeName == "" {
		cfg.PracticeName = "Stillwater Counseling"
	}
	return &Service{email: email, sms: sms, cfg: cfg, logger: logger}
}

// SendBookingConfirmation emails the client after a successful booking or
// reschedule. The label is the slot's human-readable local time.
func (s *Service) SendBookingConfirmation(ctx context.Context, c *contacts.Contact, label string, rescheduled bool) error {
	if s.email == nil || c.Email == "" {
		s.logger.Debug("notify: no email route for confirmation", "contact_id", c.ID)
		return nil
	}

	verb := "confirmed"
	if rescheduled {
		verb = "rescheduled"
	}
	subject := fmt.Sprintf("Your appointment is %s - %s", verb, s.cfg.PracticeName)
	body := fmt.Sprintf(`Hi %s,

Your appointment with %s is %s for %s.

If you need to change or cancel, reply to this email or use the link in your
original booking message.

— %s`, firstName(c.Name), s.cfg.PracticeName, verb, label, s.cfg.PracticeName)

	msg := EmailMessage{To: c.Email, ToName: c.Name, Subject: subject, Body: body}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: booking confirmation: %w", err)
	}
	s.logger.Info("notify: booking confirmation sent", "contact_id", c.ID, "rescheduled", rescheduled)
	return nil
}

// SendCancellationNotice emails the client after a cancellation.
func (s *Service) SendCancellationNotice(ctx context.Context, c *contacts.Contact, label string) error {
	if s.email == nil || c.Email == "" {
		return nil
	}
	subject := fmt.Sprintf("Your appointment is cancelled - %s", s.cfg.PracticeName)
	body := fmt.Sprintf(`Hi %s,

Your appointment for %s has been cancelled. You're welcome to book a new time
whenever you're ready.

— %s`, firstName(c.Name), label, s.cfg.PracticeName)

	if err := s.email.Send(ctx, EmailMessage{To: c.Email, ToName: c.Name, Subject: subject, Body: body}); err != nil {
		return fmt.Errorf("notify: cancellation notice: %w", err)
	}
	s.logger.Info("notify: cancellation notice sent", "contact_id", c.ID)
	return nil
}

// SendAdminCalendarNotice emails the practice owner a calendar-ready summary
// of a booking change. action is one of "booked", "rescheduled", "cancelled".
func (s *Service) SendAdminCalendarNotice(ctx context.Context, c *contacts.Contact, startsAt, endsAt time.Time, label, action string) error {
	if s.email == nil || s.cfg.AdminEmail == "" {
		s.logger.Debug("notify: admin email not configured, skipping calendar notice")
		return nil
	}

	subject := fmt.Sprintf("Appointment %s: %s - %s", action, c.Name, label)
	body := fmt.Sprintf(`Appointment %s.

Event: Session with %s
Starts: %s
Ends: %s
Location: %s

Client: %s
Phone: %s
Email: %s

Intake answers:
%s

— %s`,
		action, c.Name,
		startsAt.Format(time.RFC3339), endsAt.Format(time.RFC3339),
		orDefault(s.cfg.PracticeLocation, "office"),
		c.Name, orDefault(c.Phone, "not provided"), orDefault(c.Email, "not provided"),
		orDefault(c.IntakeSummary, "(intake not completed)"),
		s.cfg.PracticeName)

	if err := s.email.Send(ctx, EmailMessage{To: s.cfg.AdminEmail, Subject: subject, Body: body}); err != nil {
		return fmt.Errorf("notify: admin calendar notice: %w", err)
	}
	s.logger.Info("notify: admin calendar notice sent", "contact_id", c.ID, "action", action)
	return nil
}

// SendIntakeReminder nudges a contact to finish intake paperwork. The first
// two reminders go by email; the final one also goes by SMS when a phone
// number is on file. Returns the channel(s) used.
func (s *Service) SendIntakeReminder(ctx context.Context, c *contacts.Contact, stage int) (string, error) {
	var channels []string

	if s.email != nil && c.Email != "" {
		subject := fmt.Sprintf("Reminder: please complete your intake forms - %s", s.cfg.PracticeName)
		urgency := "when you have a moment"
		if stage >= contacts.MaxReminderCount {
			urgency = "as soon as you can, so we can keep your spot"
		}
		body := fmt.Sprintf(`Hi %s,

This is a reminder from %s to complete your intake forms %s.

— %s`, firstName(c.Name), s.cfg.PracticeName, urgency, s.cfg.PracticeName)

		if err := s.email.Send(ctx, EmailMessage{To: c.Email, ToName: c.Name, Subject: subject, Body: body}); err != nil {
			return "", fmt.Errorf("notify: intake reminder email: %w", err)
		}
		channels = append(channels, "email")
	}

	if stage >= contacts.MaxReminderCount && s.sms != nil && c.Phone != "" {
		smsBody := fmt.Sprintf("%s: friendly final reminder to complete your intake forms. Reply STOP to opt out.", s.cfg.PracticeName)
		if err := s.sms.SendSMS(ctx, c.Phone, smsBody); err != nil {
			// Email already went out; report the partial channel rather than
			// failing the whole reminder.
			s.logger.Error("notify: intake reminder SMS failed", "error", err, "contact_id", c.ID)
		} else {
			channels = append(channels, "sms")
		}
	}

	if len(channels) == 0 {
		return "", fmt.Errorf("notify: no reachable channel for contact %s", c.ID)
	}
	s.logger.Info("notify: intake reminder sent", "contact_id", c.ID, "stage", stage, "channels", strings.Join(channels, "+"))
	return strings.Join(channels, "+"), nil
}

func firstName(full string) string {
	full = strings.TrimSpace(full)
	if full == "" {
		return "there"
	}
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
