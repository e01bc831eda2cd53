package schedule

import "time"

// DefaultSlotTolerance absorbs clock skew when comparing slot instants.
const DefaultSlotTolerance = 60 * time.Second

// BookedSlot is a slot already claimed by a non-cancelled appointment,
// as read from the booking ledger.
type BookedSlot struct {
	Start     time.Time
	End       time.Time
	ContactID string
}

// ConflictDetector decides whether a candidate slot collides with the ledger.
// Only start instants are compared: two bookings whose intervals overlap but
// whose starts differ are not detected as conflicting with each other.
type ConflictDetector struct {
	tolerance time.Duration
}

// NewConflictDetector creates a detector. A non-positive tolerance falls back
// to DefaultSlotTolerance.
func NewConflictDetector(tolerance time.Duration) *ConflictDetector {
	if tolerance <= 0 {
		tolerance = DefaultSlotTolerance
	}
	return &ConflictDetector{tolerance: tolerance}
}

// SameInstant reports whether two instants are the same slot start, within
// the tolerance window.
func (c *ConflictDetector) SameInstant(a, b time.Time) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= c.tolerance
}

// IsAvailable reports whether the candidate instant is free to book.
//
// A candidate is unavailable when some booked slot starts at the same instant,
// unless that booking belongs to the requester and matches their own existing
// appointment instant, so a contact rescheduling can always re-select
// their current slot.
func (c *ConflictDetector) IsAvailable(candidate time.Time, ledger []BookedSlot, requesterContactID string, requesterExisting *time.Time) bool {
	for _, booked := range ledger {
		if !c.SameInstant(candidate, booked.Start) {
			continue
		}
		if requesterExisting != nil &&
			booked.ContactID == requesterContactID &&
			c.SameInstant(booked.Start, *requesterExisting) {
			continue
		}
		return false
	}
	return true
}
