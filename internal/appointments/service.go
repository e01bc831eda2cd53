package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/stillwater-counseling/practice-platform/internal/contacts"
	"github.com/stillwater-counseling/practice-platform/internal/observability/metrics"
	"github.com/stillwater-counseling/practice-platform/internal/schedule"
	"github.com/stillwater-counseling/practice-platform/pkg/logging"
)

var appointmentsTracer = otel.Tracer("stillwater.internal.appointments")

// Notifier sends the differentiated booking notifications. notify.Service
// satisfies this.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, c *contacts.Contact, label string, rescheduled bool) error
	SendCancellationNotice(ctx context.Context, c *contacts.Contact, label string) error
	SendAdminCalendarNotice(ctx context.Context, c *contacts.Contact, startsAt, endsAt time.Time, label, action string) error
}

// Deps wires the scheduling orchestrator.
type Deps struct {
	Repo      contacts.Repository
	Ledger    Ledger
	TZ        *schedule.Normalizer
	Policy    *schedule.Policy
	Conflicts *schedule.ConflictDetector
	Generator *schedule.Generator
	Notifier  Notifier
	Metrics   *metrics.SchedulingMetrics
	Logger    *logging.Logger

	// Now overrides the clock in tests.
	Now func() time.Time
	// SyncNotifications makes notification sends block the request, for tests.
	SyncNotifications bool
	NotifyTimeout     time.Duration
}

// Service orchestrates propose/reschedule/cancel. Every write re-checks
// eligibility and re-fetches the ledger so stale availability views cannot
// double-book a slot.
type Service struct {
	repo      contacts.Repository
	ledger    Ledger
	tz        *schedule.Normalizer
	policy    *schedule.Policy
	conflicts *schedule.ConflictDetector
	generator *schedule.Generator
	notifier  Notifier
	metrics   *metrics.SchedulingMetrics
	logger    *logging.Logger

	now           func() time.Time
	syncNotify    bool
	notifyTimeout time.Duration
}

// NewService creates the scheduling orchestrator.
func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = logging.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NotifyTimeout <= 0 {
		d.NotifyTimeout = 10 * time.Second
	}
	return &Service{
		repo:          d.Repo,
		ledger:        d.Ledger,
		tz:            d.TZ,
		policy:        d.Policy,
		conflicts:     d.Conflicts,
		generator:     d.Generator,
		notifier:      d.Notifier,
		metrics:       d.Metrics,
		logger:        d.Logger,
		now:           d.Now,
		syncNotify:    d.SyncNotifications,
		notifyTimeout: d.NotifyTimeout,
	}
}

// SlotView is one candidate slot in a day availability view.
type SlotView struct {
	StartsAt time.Time `json:"starts_at"`
	Label    string    `json:"label"`
	Eligible bool      `json:"eligible"`
	Reason   string    `json:"reason,omitempty"`
	Booked   bool      `json:"booked"`
}

// DayView is the advisory availability picture for one calendar date. It is a
// snapshot: eligibility and conflicts are always re-checked at booking time.
type DayView struct {
	Date  string     `json:"date"`
	Slots []SlotView `json:"slots"`
}

// BookingResult reports a successful propose or reschedule.
type BookingResult struct {
	ContactID   string    `json:"contact_id"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Label       string    `json:"label"`
	CancelToken string    `json:"cancel_token"`
	Rescheduled bool      `json:"rescheduled"`
}

// DayAvailability expands one date into slots flagged with eligibility and
// booked state. contactID is optional; when present the requester's own
// appointment is carved out of the booked flags and same-day rules apply to
// their reschedule context.
func (s *Service) DayAvailability(ctx context.Context, d schedule.Date, contactID string) (*DayView, error) {
	now := s.now()

	var existing *time.Time
	if contactID != "" {
		c, err := s.repo.GetByID(ctx, contactID)
		if err != nil {
			return nil, err
		}
		if c.HasActiveAppointment() {
			existing = c.ScheduledAt
		}
	}

	booked, err := s.ledger.Booked(ctx, s.tz.DayStart(d), s.tz.DayEnd(d))
	if err != nil {
		return nil, err
	}

	slots := s.generator.SlotsForDate(d)
	views := make([]SlotView, 0, len(slots))
	for _, slot := range slots {
		view := SlotView{
			StartsAt: slot.Instant,
			Label:    slot.Label,
			Booked:   !s.conflicts.IsAvailable(slot.Instant, booked, contactID, existing),
		}
		err := s.policy.CheckSlot(slot.Instant, now, existing)
		var ineligible *schedule.IneligibleError
		switch {
		case err == nil:
			view.Eligible = true
		case errors.As(err, &ineligible):
			view.Reason = ineligible.Reason
		default:
			return nil, err
		}
		views = append(views, view)
	}
	return &DayView{Date: d.String(), Slots: views}, nil
}

// Propose books a slot for a contact. A contact who already holds an active
// appointment is rescheduled instead, keeping their cancel token.
func (s *Service) Propose(ctx context.Context, contactID string, at time.Time) (*BookingResult, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.propose")
	defer span.End()
	span.SetAttributes(attribute.String("contact_id", contactID))

	c, err := s.repo.GetByID(ctx, contactID)
	if err != nil {
		s.metrics.ObserveBooking("propose", "not_found")
		return nil, err
	}
	result, err := s.book(ctx, c, at, "propose")
	if err != nil {
		span.RecordError(err)
	}
	return result, err
}

// Reschedule moves the appointment addressed by a cancel token to a new slot.
func (s *Service) Reschedule(ctx context.Context, cancelToken string, at time.Time) (*BookingResult, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.reschedule")
	defer span.End()

	c, err := s.repo.GetByCancelToken(ctx, cancelToken)
	if err != nil {
		s.metrics.ObserveBooking("reschedule", "not_found")
		return nil, err
	}
	if !c.HasActiveAppointment() {
		s.metrics.ObserveBooking("reschedule", "no_active")
		return nil, ErrNoActiveAppointment
	}
	result, err := s.book(ctx, c, at, "reschedule")
	if err != nil {
		span.RecordError(err)
	}
	return result, err
}

// Cancel releases the appointment addressed by a cancel token. The contact
// record keeps the instant and moves to cancelled, so the slot frees up while
// history stays intact.
func (s *Service) Cancel(ctx context.Context, cancelToken string) error {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.cancel")
	defer span.End()

	c, err := s.repo.GetByCancelToken(ctx, cancelToken)
	if err != nil {
		s.metrics.ObserveBooking("cancel", "not_found")
		return err
	}
	if !c.HasActiveAppointment() {
		s.metrics.ObserveBooking("cancel", "no_active")
		return ErrNoActiveAppointment
	}

	label := s.slotLabel(*c.ScheduledAt)
	if err := s.repo.CancelAppointment(ctx, c.ID); err != nil {
		s.metrics.ObserveBooking("cancel", "error")
		span.RecordError(err)
		return err
	}
	s.metrics.ObserveBooking("cancel", "cancelled")
	s.logger.Info("appointment cancelled", "contact_id", c.ID, "was_at", c.ScheduledAt)

	starts := *c.ScheduledAt
	ends := starts.Add(s.generator.Duration())
	s.dispatch(func(nctx context.Context) {
		if err := s.notifier.SendCancellationNotice(nctx, c, label); err != nil {
			s.logger.Error("cancellation notice failed", "error", err, "contact_id", c.ID)
		}
		if err := s.notifier.SendAdminCalendarNotice(nctx, c, starts, ends, label, "cancelled"); err != nil {
			s.logger.Error("admin cancel notice failed", "error", err, "contact_id", c.ID)
		}
	})
	return nil
}

// Upcoming lists the booked slots starting within the next n days.
func (s *Service) Upcoming(ctx context.Context, days int) ([]schedule.BookedSlot, error) {
	if days <= 0 {
		days = 7
	}
	now := s.now()
	return s.ledger.Booked(ctx, now, now.AddDate(0, 0, days))
}

func (s *Service) book(ctx context.Context, c *contacts.Contact, at time.Time, action string) (*BookingResult, error) {
	now := s.now()

	var existing *time.Time
	if c.HasActiveAppointment() {
		existing = c.ScheduledAt
	}
	rescheduled := existing != nil

	if err := s.policy.CheckSlot(at, now, existing); err != nil {
		outcome := "ineligible"
		if errors.Is(err, schedule.ErrInvalidInstant) {
			outcome = "invalid"
		}
		s.metrics.ObserveBooking(action, outcome)
		return nil, err
	}

	// Re-fetch the day's ledger at write time. The availability view the
	// client saw may be stale.
	day, _, err := s.tz.ToLocal(at)
	if err != nil {
		return nil, err
	}
	booked, err := s.ledger.Booked(ctx, s.tz.DayStart(day), s.tz.DayEnd(day))
	if err != nil {
		s.metrics.ObserveBooking(action, "error")
		return nil, fmt.Errorf("appointments: fetch ledger: %w", err)
	}
	if !s.conflicts.IsAvailable(at, booked, c.ID, existing) {
		s.metrics.ObserveBooking(action, "conflict")
		return nil, &ConflictError{At: at}
	}

	token := c.CancelToken
	if token == "" {
		token = uuid.NewString()
	}
	if err := s.repo.SaveAppointment(ctx, c.ID, at, contacts.AppointmentScheduled, token); err != nil {
		s.metrics.ObserveBooking(action, "error")
		return nil, err
	}
	s.metrics.ObserveBooking(action, "booked")
	s.logger.Info("appointment booked", "contact_id", c.ID, "starts_at", at, "rescheduled", rescheduled)

	label := s.slotLabel(at)
	ends := at.Add(s.generator.Duration())
	updated := *c
	updated.ScheduledAt = &at
	updated.AppointmentStatus = contacts.AppointmentScheduled
	updated.CancelToken = token

	adminAction := "booked"
	if rescheduled {
		adminAction = "rescheduled"
	}
	s.dispatch(func(nctx context.Context) {
		if err := s.notifier.SendBookingConfirmation(nctx, &updated, label, rescheduled); err != nil {
			s.logger.Error("booking confirmation failed", "error", err, "contact_id", updated.ID)
		}
		if err := s.notifier.SendAdminCalendarNotice(nctx, &updated, at, ends, label, adminAction); err != nil {
			s.logger.Error("admin calendar notice failed", "error", err, "contact_id", updated.ID)
		}
	})

	return &BookingResult{
		ContactID:   c.ID,
		StartsAt:    at,
		EndsAt:      ends,
		Label:       label,
		CancelToken: token,
		Rescheduled: rescheduled,
	}, nil
}

// dispatch runs notification work without blocking the booking response.
// Failures are logged; the booking itself already committed.
func (s *Service) dispatch(fn func(ctx context.Context)) {
	if s.notifier == nil {
		return
	}
	if s.syncNotify {
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		fn(ctx)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (s *Service) slotLabel(at time.Time) string {
	return at.In(s.tz.Location()).Format("Monday, January 2 at 3:04 PM")
}
