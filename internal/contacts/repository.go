package contacts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ReminderUpdate carries one reminder-engine state transition: the new
// counter, the send time, the refreshed coarse status label, and the audit
// line appended to the contact's notes.
type ReminderUpdate struct {
	ReminderCount  int
	LastReminderAt time.Time
	StatusLabel    string
	NoteLine       string
}

// Repository defines the interface for contact storage.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Contact, error)
	GetByCancelToken(ctx context.Context, token string) (*Contact, error)
	ListIncompleteIntake(ctx context.Context) ([]Contact, error)
	SaveAppointment(ctx context.Context, id string, scheduledAt time.Time, status AppointmentStatus, cancelToken string) error
	CancelAppointment(ctx context.Context, id string) error
	SaveReminderState(ctx context.Context, id string, update ReminderUpdate) error
}

// InMemoryRepository is a Repository backed by process memory, used in tests
// and local development.
type InMemoryRepository struct {
	mu       sync.RWMutex
	contacts map[string]*Contact
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{contacts: make(map[string]*Contact)}
}

// Put inserts or replaces a contact. Missing IDs are assigned.
func (r *InMemoryRepository) Put(c *Contact) *Contact {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	clone := *c
	r.contacts[c.ID] = &clone
	return c
}

// GetByID retrieves a contact by id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contacts[id]
	if !ok {
		return nil, ErrContactNotFound
	}
	clone := *c
	return &clone, nil
}

// GetByCancelToken retrieves the contact owning a cancel token.
func (r *InMemoryRepository) GetByCancelToken(ctx context.Context, token string) (*Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.contacts {
		if c.CancelToken != "" && c.CancelToken == token {
			clone := *c
			return &clone, nil
		}
	}
	return nil, ErrTokenNotFound
}

// ListIncompleteIntake returns every contact still owing intake paperwork,
// oldest first for stable batch ordering.
func (r *InMemoryRepository) ListIncompleteIntake(ctx context.Context) ([]Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Contact
	for _, c := range r.contacts {
		if !c.IntakeCompleted {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// SaveAppointment overwrites the appointment projection on a contact.
func (r *InMemoryRepository) SaveAppointment(ctx context.Context, id string, scheduledAt time.Time, status AppointmentStatus, cancelToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok {
		return ErrContactNotFound
	}
	at := scheduledAt
	c.ScheduledAt = &at
	c.AppointmentStatus = status
	c.CancelToken = cancelToken
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// CancelAppointment transitions the appointment to cancelled, keeping history.
func (r *InMemoryRepository) CancelAppointment(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok {
		return ErrContactNotFound
	}
	c.AppointmentStatus = AppointmentCancelled
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// SaveReminderState applies one reminder transition.
func (r *InMemoryRepository) SaveReminderState(ctx context.Context, id string, update ReminderUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok {
		return ErrContactNotFound
	}
	c.ReminderCount = update.ReminderCount
	at := update.LastReminderAt
	c.LastReminderAt = &at
	if update.StatusLabel != "" {
		c.StatusLabel = update.StatusLabel
	}
	if update.NoteLine != "" {
		c.AppendNote(update.LastReminderAt, update.NoteLine)
	}
	c.UpdatedAt = time.Now().UTC()
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
