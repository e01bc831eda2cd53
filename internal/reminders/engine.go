// Package reminders implements the intake reminder escalation engine: a pure
// stage-transition function over each contact's reminder count plus a batch
// processor that sends, records and audits the due reminders.
package reminders

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/stillwater-counseling/practice-platform/internal/contacts"
	"github.com/stillwater-counseling/practice-platform/internal/observability/metrics"
	"github.com/stillwater-counseling/practice-platform/pkg/logging"
)

var remindersTracer = otel.Tracer("stillwater.internal.reminders")

// Thresholds are the escalation waits. The first reminder is measured from
// the contact's creation; later reminders are measured from the previous one.
type Thresholds struct {
	First  time.Duration
	Second time.Duration
	Final  time.Duration
}

// DefaultThresholds returns the standard 24h/48h/168h escalation.
func DefaultThresholds() Thresholds {
	return Thresholds{
		First:  24 * time.Hour,
		Second: 48 * time.Hour,
		Final:  168 * time.Hour,
	}
}

// Sender delivers one reminder and reports the channel(s) used.
// notify.Service satisfies this.
type Sender interface {
	SendIntakeReminder(ctx context.Context, c *contacts.Contact, stage int) (string, error)
}

// Recorder persists a dashboard notification for a sent reminder.
type Recorder interface {
	Record(ctx context.Context, contactID, message string) error
}

// Action classifies what the batch did (or would do) for one contact.
type Action struct {
	ContactID   string `json:"contact_id"`
	ContactName string `json:"contact_name"`
	Stage       int    `json:"stage,omitempty"`
	Result      string `json:"result"` // sent, skipped, error
	Channel     string `json:"channel,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BatchResult summarizes one reminder run.
type BatchResult struct {
	DryRun  bool     `json:"dry_run"`
	Sent    int      `json:"sent"`
	Skipped int      `json:"skipped"`
	Errors  int      `json:"errors"`
	Actions []Action `json:"actions"`
}

// Engine walks every incomplete-intake contact and applies the escalation.
// Re-running a batch inside the same threshold window is a no-op: a send
// advances the contact's state, so the same reminder can never fire twice.
type Engine struct {
	repo       contacts.Repository
	sender     Sender
	recorder   Recorder
	thresholds Thresholds
	metrics    *metrics.SchedulingMetrics
	logger     *logging.Logger
}

// NewEngine creates the reminder engine. Zero thresholds fall back to the
// defaults; the recorder is optional.
func NewEngine(repo contacts.Repository, sender Sender, recorder Recorder, th Thresholds, m *metrics.SchedulingMetrics, logger *logging.Logger) *Engine {
	if th.First <= 0 {
		th.First = DefaultThresholds().First
	}
	if th.Second <= 0 {
		th.Second = DefaultThresholds().Second
	}
	if th.Final <= 0 {
		th.Final = DefaultThresholds().Final
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		repo:       repo,
		sender:     sender,
		recorder:   recorder,
		thresholds: th,
		metrics:    m,
		logger:     logger,
	}
}

// nextStage decides whether a contact is due for a reminder at now, and which
// stage it would be. Completed intake and the hard cap both make a contact
// permanently not due.
func (e *Engine) nextStage(c *contacts.Contact, now time.Time) (int, bool, string) {
	if c.IntakeCompleted {
		return 0, false, "intake_completed"
	}
	if c.ReminderCount >= contacts.MaxReminderCount {
		return 0, false, "reminder_cap"
	}
	switch c.ReminderCount {
	case 0:
		if now.Sub(c.CreatedAt) >= e.thresholds.First {
			return 1, true, ""
		}
	case 1:
		if c.LastReminderAt != nil && now.Sub(*c.LastReminderAt) >= e.thresholds.Second {
			return 2, true, ""
		}
	case 2:
		if c.LastReminderAt != nil && now.Sub(*c.LastReminderAt) >= e.thresholds.Final {
			return 3, true, ""
		}
	}
	return 0, false, "not_due"
}

// ProcessAll runs one reminder batch. With dryRun the classification happens
// but nothing is sent or persisted. A failure on one contact never blocks
// the rest of the batch.
func (e *Engine) ProcessAll(ctx context.Context, now time.Time, dryRun bool) (*BatchResult, error) {
	ctx, span := remindersTracer.Start(ctx, "reminders.process_all")
	defer span.End()
	span.SetAttributes(attribute.Bool("dry_run", dryRun))
	started := time.Now()

	list, err := e.repo.ListIncompleteIntake(ctx)
	if err != nil {
		return nil, fmt.Errorf("reminders: list contacts: %w", err)
	}

	result := &BatchResult{DryRun: dryRun}
	for i := range list {
		c := &list[i]
		action := e.processOne(ctx, c, now, dryRun)
		result.Actions = append(result.Actions, action)
		switch action.Result {
		case "sent":
			result.Sent++
		case "error":
			result.Errors++
		default:
			result.Skipped++
		}
		e.metrics.ObserveReminder(fmt.Sprintf("%d", action.Stage), action.Result)
	}

	e.metrics.ObserveBatchLatency(time.Since(started).Seconds())
	e.logger.Info("reminder batch finished",
		"dry_run", dryRun, "sent", result.Sent, "skipped", result.Skipped, "errors", result.Errors)
	return result, nil
}

func (e *Engine) processOne(ctx context.Context, c *contacts.Contact, now time.Time, dryRun bool) Action {
	action := Action{ContactID: c.ID, ContactName: c.Name}

	stage, due, reason := e.nextStage(c, now)
	if !due {
		action.Result = "skipped"
		action.Reason = reason
		return action
	}
	action.Stage = stage

	if dryRun {
		action.Result = "sent"
		action.Channel = "dry_run"
		return action
	}

	channel, err := e.sender.SendIntakeReminder(ctx, c, stage)
	if err != nil {
		e.logger.Error("reminder send failed", "error", err, "contact_id", c.ID, "stage", stage)
		action.Result = "error"
		action.Error = err.Error()
		return action
	}
	action.Channel = channel

	update := contacts.ReminderUpdate{
		ReminderCount:  stage,
		LastReminderAt: now,
		StatusLabel:    fmt.Sprintf("Reminder %d sent", stage),
		NoteLine:       fmt.Sprintf("intake reminder #%d sent by %s", stage, channel),
	}
	if err := e.repo.SaveReminderState(ctx, c.ID, update); err != nil {
		// The message went out but the state write failed; the next run may
		// resend this stage. Surface loudly.
		e.logger.Error("reminder state save failed", "error", err, "contact_id", c.ID, "stage", stage)
		action.Result = "error"
		action.Error = err.Error()
		return action
	}

	if e.recorder != nil {
		msg := fmt.Sprintf("Intake reminder #%d sent to %s (%s)", stage, c.Name, channel)
		if err := e.recorder.Record(ctx, c.ID, msg); err != nil {
			e.logger.Error("dashboard record failed", "error", err, "contact_id", c.ID)
		}
	}

	e.logger.Info("reminder sent", "contact_id", c.ID, "stage", stage, "channel", channel)
	action.Result = "sent"
	return action
}
