package appointments

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoActiveAppointment is returned when a reschedule or cancel addresses a
// contact with no scheduled appointment.
var ErrNoActiveAppointment = errors.New("appointments: no active appointment")

// ConflictError reports that the requested instant is already booked by
// another contact.
type ConflictError struct {
	At time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("appointments: slot at %s already booked", e.At.Format(time.RFC3339))
}
