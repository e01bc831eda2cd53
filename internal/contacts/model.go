package contacts

import (
	"strings"
	"time"
)

// AppointmentStatus tracks the lifecycle of the appointment embedded in a
// contact record. Cancellation is a status transition, never a deletion.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
)

// MaxReminderCount caps the reminder escalation; a contact at the cap never
// receives another reminder regardless of elapsed time.
const MaxReminderCount = 3

// Contact is a CRM contact record. The appointment and reminder-state fields
// are projections owned by the scheduling orchestrator and the reminder
// engine respectively.
type Contact struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	IntakeSummary string `json:"intake_summary"`
	StatusLabel   string `json:"status_label"`
	Notes         string `json:"notes"`

	// Appointment projection
	ScheduledAt       *time.Time        `json:"scheduled_at,omitempty"`
	AppointmentStatus AppointmentStatus `json:"appointment_status"`
	CancelToken       string            `json:"-"`

	// Reminder-state projection
	IntakeCompleted bool       `json:"intake_completed"`
	ReminderCount   int        `json:"reminder_count"`
	LastReminderAt  *time.Time `json:"last_reminder_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasActiveAppointment reports whether the contact currently holds a slot.
func (c *Contact) HasActiveAppointment() bool {
	return c.AppointmentStatus == AppointmentScheduled && c.ScheduledAt != nil
}

// AppendNote adds a timestamped free-text audit line to the contact's notes.
func (c *Contact) AppendNote(at time.Time, line string) {
	entry := at.UTC().Format(time.RFC3339) + " " + line
	if strings.TrimSpace(c.Notes) == "" {
		c.Notes = entry
		return
	}
	c.Notes = c.Notes + "\n" + entry
}
