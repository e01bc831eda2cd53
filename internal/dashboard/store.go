// Package dashboard stores the notification feed surfaced to practice staff.
// Only the records live here; rendering them is the admin UI's problem.
package dashboard

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Notification is one feed entry.
type Notification struct {
	ID        string    `json:"id"`
	ContactID string    `json:"contact_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists notifications in the relational database.
type Store struct {
	db *sql.DB
}

// NewStore creates a notification store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record inserts one notification. Satisfies reminders.Recorder.
func (s *Store) Record(ctx context.Context, contactID, message string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dashboard_notifications (id, contact_id, message, created_at)
		VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), contactID, message, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("dashboard: record notification: %w", err)
	}
	return nil
}

// List returns the newest notifications, capped at limit.
func (s *Store) List(ctx context.Context, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contact_id, message, created_at
		FROM dashboard_notifications
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("dashboard: list notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.ContactID, &n.Message, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("dashboard: scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
