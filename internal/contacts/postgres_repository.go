package contacts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores contacts in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by a pgx pool or mock.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("contacts: db required")
	}
	return &PostgresRepository{db: db}
}

const contactColumns = `
	id, name, email, phone, intake_summary, status_label, notes,
	scheduled_at, appointment_status, cancel_token,
	intake_completed, reminder_count, last_reminder_at,
	created_at, updated_at`

// GetByID fetches one contact by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Contact, error) {
	row := r.db.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("contacts: select by id: %w", err)
	}
	return c, nil
}

// GetByCancelToken fetches the contact owning a cancel token.
func (r *PostgresRepository) GetByCancelToken(ctx context.Context, token string) (*Contact, error) {
	row := r.db.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE cancel_token = $1`, token)
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("contacts: select by cancel token: %w", err)
	}
	return c, nil
}

// ListIncompleteIntake returns every contact still owing intake paperwork,
// oldest first so batch runs process in stable order.
func (r *PostgresRepository) ListIncompleteIntake(ctx context.Context) ([]Contact, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE intake_completed = FALSE
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("contacts: list incomplete intake: %w", err)
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("contacts: scan contact: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// SaveAppointment overwrites the appointment projection on a contact.
func (r *PostgresRepository) SaveAppointment(ctx context.Context, id string, scheduledAt time.Time, status AppointmentStatus, cancelToken string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE contacts
		SET scheduled_at = $1, appointment_status = $2, cancel_token = $3, updated_at = $4
		WHERE id = $5`,
		scheduledAt.UTC(), string(status), cancelToken, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("contacts: save appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}

// CancelAppointment transitions the appointment to cancelled without deleting
// the scheduled instant, preserving history.
func (r *PostgresRepository) CancelAppointment(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE contacts
		SET appointment_status = $1, updated_at = $2
		WHERE id = $3`,
		string(AppointmentCancelled), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("contacts: cancel appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}

// SaveReminderState applies one reminder transition: counter, send time,
// status label, and an appended audit note line.
func (r *PostgresRepository) SaveReminderState(ctx context.Context, id string, update ReminderUpdate) error {
	noteLine := update.LastReminderAt.UTC().Format(time.RFC3339) + " " + update.NoteLine
	tag, err := r.db.Exec(ctx, `
		UPDATE contacts
		SET reminder_count = $1,
		    last_reminder_at = $2,
		    status_label = COALESCE(NULLIF($3, ''), status_label),
		    notes = CASE WHEN notes = '' THEN $4 ELSE notes || E'\n' || $4 END,
		    updated_at = $5
		WHERE id = $6`,
		update.ReminderCount, update.LastReminderAt.UTC(), update.StatusLabel, noteLine, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("contacts: save reminder state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}

func scanContact(row pgx.Row) (*Contact, error) {
	var c Contact
	var status string
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.IntakeSummary, &c.StatusLabel, &c.Notes,
		&c.ScheduledAt, &status, &c.CancelToken,
		&c.IntakeCompleted, &c.ReminderCount, &c.LastReminderAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.AppointmentStatus = AppointmentStatus(status)
	return &c, nil
}

var _ Repository = (*PostgresRepository)(nil)
