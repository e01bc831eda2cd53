package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresLedgerBooked(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	from := time.Date(2026, time.January, 7, 5, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	first := time.Date(2026, time.January, 7, 21, 0, 0, 0, time.UTC)
	second := first.Add(30 * time.Minute)

	mock.ExpectQuery(`SELECT id, scheduled_at(.|\n)*FROM contacts(.|\n)*WHERE appointment_status = 'scheduled'`).
		WithArgs(from, to).
		WillReturnRows(mock.NewRows([]string{"id", "scheduled_at"}).
			AddRow("c-1", first).
			AddRow("c-2", second))

	ledger := NewPostgresLedger(mock, 15*time.Minute)
	booked, err := ledger.Booked(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, booked, 2)
	assert.Equal(t, "c-1", booked[0].ContactID)
	assert.True(t, booked[0].Start.Equal(first))
	assert.True(t, booked[0].End.Equal(first.Add(15*time.Minute)))
	assert.Equal(t, "c-2", booked[1].ContactID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	from := time.Date(2026, time.January, 7, 5, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	mock.ExpectQuery(`SELECT id, scheduled_at`).
		WithArgs(from, to).
		WillReturnRows(mock.NewRows([]string{"id", "scheduled_at"}))

	ledger := NewPostgresLedger(mock, 0)
	booked, err := ledger.Booked(context.Background(), from, to)
	require.NoError(t, err)
	assert.Empty(t, booked)
	assert.NoError(t, mock.ExpectationsWereMet())
}
