package schedule

import (
	"fmt"
	"time"
)

// Ineligibility reasons surfaced to callers so the UI can explain a rejection.
const (
	ReasonNoAvailability = "no_availability"
	ReasonOutsideHours   = "outside_hours"
	ReasonPastDate       = "past_date"
	ReasonSameDay        = "same_day"
	ReasonHorizon        = "beyond_horizon"
	ReasonLeadTime       = "lead_time"
)

// IneligibleError reports why a date or slot fails the eligibility policy.
type IneligibleError struct {
	Reason string
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("schedule: slot ineligible: %s", e.Reason)
}

// PolicyConfig holds the tunable booking rules. The same-day exception
// weekdays are configuration rather than hard-coded Thursday/Friday so the
// practice can adjust the policy without a code change.
type PolicyConfig struct {
	LeadTime                 time.Duration
	HorizonBusinessDays      int
	SameDayExceptionWeekdays []time.Weekday
	SlotDuration             time.Duration
}

// Policy decides whether a calendar date or slot is selectable at all.
// All rules are conjunctive: failing any one makes the candidate ineligible.
type Policy struct {
	cfg      PolicyConfig
	tz       *Normalizer
	template *Template
}

// NewPolicy creates an eligibility policy. Zero config fields fall back to
// the practice defaults: 4h lead time, 3 business days, 15-minute slots.
func NewPolicy(cfg PolicyConfig, tz *Normalizer, template *Template) *Policy {
	if cfg.LeadTime <= 0 {
		cfg.LeadTime = 4 * time.Hour
	}
	if cfg.HorizonBusinessDays <= 0 {
		cfg.HorizonBusinessDays = 3
	}
	if cfg.SlotDuration <= 0 {
		cfg.SlotDuration = DefaultSlotDuration
	}
	return &Policy{cfg: cfg, tz: tz, template: template}
}

// IsDateSelectable reports whether any slot on the date could be booked,
// given the current time and the requester's existing appointment (nil when
// booking fresh rather than rescheduling).
func (p *Policy) IsDateSelectable(d Date, now time.Time, existing *time.Time) bool {
	return p.checkDate(d, now, existing) == nil
}

// IsSlotEligible applies every policy rule to a concrete slot instant.
func (p *Policy) IsSlotEligible(instant, now time.Time, existing *time.Time) bool {
	return p.CheckSlot(instant, now, existing) == nil
}

// CheckSlot is IsSlotEligible with the failing reason. Returns nil when the
// slot passes, *IneligibleError otherwise.
func (p *Policy) CheckSlot(instant, now time.Time, existing *time.Time) error {
	d, tod, err := p.tz.ToLocal(instant)
	if err != nil {
		return err
	}
	if err := p.checkDate(d, now, existing); err != nil {
		return err
	}
	if !p.template.Contains(p.tz.Weekday(d), tod, p.cfg.SlotDuration) {
		return &IneligibleError{Reason: ReasonOutsideHours}
	}
	if p.localGap(now, instant) < p.cfg.LeadTime {
		return &IneligibleError{Reason: ReasonLeadTime}
	}
	return nil
}

func (p *Policy) checkDate(d Date, now time.Time, existing *time.Time) error {
	if !p.template.HasWindows(p.tz.Weekday(d)) {
		return &IneligibleError{Reason: ReasonNoAvailability}
	}

	today := p.tz.Today(now)
	target := p.tz.DayStart(d)
	switch {
	case target.Before(p.tz.DayStart(today)):
		return &IneligibleError{Reason: ReasonPastDate}
	case d == today:
		if !p.sameDayAllowed(existing) {
			return &IneligibleError{Reason: ReasonSameDay}
		}
		return nil
	}

	if !p.withinHorizon(today, d) {
		return &IneligibleError{Reason: ReasonHorizon}
	}
	return nil
}

// withinHorizon walks forward from tomorrow, counting only Monday-Friday,
// and reports whether the target date is reached within the allowed number
// of business days. Weekends never advance the counter.
func (p *Policy) withinHorizon(today, target Date) bool {
	cur := today
	business := 0
	for business < p.cfg.HorizonBusinessDays {
		cur = p.tz.NextDate(cur)
		wd := p.tz.Weekday(cur)
		if wd != time.Saturday && wd != time.Sunday {
			business++
		}
		if cur == target {
			return true
		}
	}
	return false
}

// sameDayAllowed permits same-day reselection only in a reschedule flow whose
// existing appointment falls on one of the configured exception weekdays.
func (p *Policy) sameDayAllowed(existing *time.Time) bool {
	if existing == nil || existing.IsZero() {
		return false
	}
	d, _, err := p.tz.ToLocal(*existing)
	if err != nil {
		return false
	}
	wd := p.tz.Weekday(d)
	for _, allowed := range p.cfg.SameDayExceptionWeekdays {
		if wd == allowed {
			return true
		}
	}
	return false
}

// localGap measures the wall-clock distance between now and the slot in the
// business timezone, so a DST transition between them cannot shift the
// lead-time boundary.
func (p *Policy) localGap(now, instant time.Time) time.Duration {
	loc := p.tz.Location()
	localNow := now.In(loc)
	localSlot := instant.In(loc)
	naiveNow := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), localNow.Hour(), localNow.Minute(), localNow.Second(), 0, time.UTC)
	naiveSlot := time.Date(localSlot.Year(), localSlot.Month(), localSlot.Day(), localSlot.Hour(), localSlot.Minute(), localSlot.Second(), 0, time.UTC)
	return naiveSlot.Sub(naiveNow)
}
