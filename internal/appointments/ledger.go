package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stillwater-counseling/practice-platform/internal/schedule"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Ledger reads the booked-slot view of the contact table. Every booking
// decision re-fetches from here at write time; the ledger is never cached.
type Ledger interface {
	Booked(ctx context.Context, from, to time.Time) ([]schedule.BookedSlot, error)
}

// PostgresLedger queries non-cancelled appointment instants from Postgres.
type PostgresLedger struct {
	db           DB
	slotDuration time.Duration
}

// NewPostgresLedger creates a ledger over the contacts table.
func NewPostgresLedger(db DB, slotDuration time.Duration) *PostgresLedger {
	if slotDuration <= 0 {
		slotDuration = schedule.DefaultSlotDuration
	}
	return &PostgresLedger{db: db, slotDuration: slotDuration}
}

// Booked returns every scheduled appointment starting in [from, to), oldest
// first. Cancelled and completed appointments never appear.
func (l *PostgresLedger) Booked(ctx context.Context, from, to time.Time) ([]schedule.BookedSlot, error) {
	rows, err := l.db.Query(ctx, `
		SELECT id, scheduled_at
		FROM contacts
		WHERE appointment_status = 'scheduled'
		  AND scheduled_at >= $1 AND scheduled_at < $2
		ORDER BY scheduled_at ASC`,
		from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("appointments: query ledger: %w", err)
	}
	defer rows.Close()

	var out []schedule.BookedSlot
	for rows.Next() {
		var id string
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("appointments: scan ledger row: %w", err)
		}
		out = append(out, schedule.BookedSlot{
			Start:     at,
			End:       at.Add(l.slotDuration),
			ContactID: id,
		})
	}
	return out, rows.Err()
}

var _ Ledger = (*PostgresLedger)(nil)
