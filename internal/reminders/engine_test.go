package reminders

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stillwater-counseling/practice-platform/internal/contacts"
)

var batchNow = time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)

type stubSender struct {
	sent   []struct{ contactID string; stage int }
	failID string
}

func (s *stubSender) SendIntakeReminder(ctx context.Context, c *contacts.Contact, stage int) (string, error) {
	if s.failID != "" && c.ID == s.failID {
		return "", errors.New("send failed")
	}
	s.sent = append(s.sent, struct{ contactID string; stage int }{c.ID, stage})
	return "email", nil
}

type stubRecorder struct {
	records []string
}

func (r *stubRecorder) Record(ctx context.Context, contactID, message string) error {
	r.records = append(r.records, contactID+": "+message)
	return nil
}

func newEngine(repo contacts.Repository, sender Sender, recorder Recorder) *Engine {
	return NewEngine(repo, sender, recorder, Thresholds{}, nil, nil)
}

func TestFirstReminderAfter24Hours(t *testing.T) {
	repo := contacts.NewInMemoryRepository()
	sender := &stubSender{}
	recorder := &stubRecorder{}
	c := repo.Put(&contacts.Contact{Name: "Dana", Email: "dana@example.com", CreatedAt: batchNow.Add(-25 * time.Hour)})

	engine := newEngine(repo, sender, recorder)
	result, err := engine.ProcessAll(context.Background(), batchNow, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 0, result.Errors)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, 1, sender.sent[0].stage)

	stored, err := repo.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ReminderCount)
	require.NotNil(t, stored.LastReminderAt)
	assert.True(t, stored.LastReminderAt.Equal(batchNow))
	assert.Equal(t, "Reminder 1 sent", stored.StatusLabel)
	assert.Contains(t, stored.Notes, "intake reminder #1 sent by email")

	require.Len(t, recorder.records, 1)
	assert.True(t, strings.Contains(recorder.records[0], "Intake reminder #1"))
}

func TestFirstReminderNotDueBefore24Hours(t *testing.T) {
	repo := contacts.NewInMemoryRepository()
	sender := &stubSender{}
	repo.Put(&contacts.Contact{Name: "Dana", CreatedAt: batchNow.Add(-23 * time.Hour)})

	engine := newEngine(repo, sender, nil)
	result, err := engine.ProcessAll(context.Background(), batchNow, false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "not_due", result.Actions[0].Reason)
}

func TestSecondReminderWindow(t *testing.T) {
	repo := contacts.NewInMemoryRepository()
	sender := &stubSender{}
	at47 := batchNow.Add(-47 * time.Hour)
	c := repo.Put(&contacts.Contact{
		Name:           "Dana",
		Email:          "dana@example.com",
		CreatedAt:      batchNow.Add(-100 * time.Hour),
		ReminderCount:  1,
		LastReminderAt: &at47,
	})

	// 47h since the first reminder: below the 48h threshold.
	engine := newEngine(repo, sender, nil)
	result, err := engine.ProcessAll(context.Background(), batchNow, false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Sent)

	// 49h since the first reminder: due for reminder #2.
	at49 := batchNow.Add(-49 * time.Hour)
	c.LastReminderAt = &at49
	repo.Put(c)

	result, err = engine.ProcessAll(context.Background(), batchNow, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, 2, sender.sent[0].stage)
}

func TestFinalReminderAfterWeek(t *testing.T) {
	repo := contacts.NewInMemoryRepository()
	sender := &stubSender{}
	at167 := batchNow.Add(-167 * time.Hour)
	c := repo.Put(&contacts.Contact{
		Name:           "Dana",
		Email:          "dana@example.com",
		CreatedAt:      batchNow.Add(-500 * time.Hour),
		ReminderCount:  2,
		LastReminderAt: &at167,
	})

	engine := newEngine(repo, sender, nil)
	result, err := engine.ProcessAll(context.Background(), batchNow, false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Sent, "167h is inside the final wait")

	at169 := batchNow.Add(-169 * time.Hour)
	c.LastReminderAt = &at169
	repo.Put(c)

	result, err = engine.ProcessAll(context.Background(), batchNow, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 3, sender.sent[0].stage)
}

func TestReminderCapNeverExceeded(t *testing.T) {
	repo := contacts.NewInMemoryRepository()
	sender := &stubSender{}
	long := batchNow.Add(-10000 * time.Hour)
	repo.Put(&contacts.Contact{
		Name:           "Dana",
		CreatedAt:      long,
		ReminderCount:  3,
		LastReminderAt: &long,
	})

	engine := newEngine(repo, sender, nil)
	result, err := engine.ProcessAll(context.Background(), batchNow, false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "reminder_cap", result.Actions[0].Reason)
	assert.Empty(t, sender.sent)
}

func TestRerunInsideWindowIsIdempotent(t *testing.T) {
	repo := contacts.NewInMemoryRepository()
	sender := &stubSender{}
	repo.Put(&contacts.Contact{Name: "Dana", Email: "dana@example.com", CreatedAt: batchNow.Add(-25 * time.Hour)})

	engine := newEngine(repo, sender, nil)
	first, err := engine.ProcessAll(context.Background(), batchNow, false)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Sent)

	// Same batch window, run again: the send advanced the state, so nothing
	// is due.
	second, err := engine.ProcessAll(context.Background(), batchNow.Add(time.Minute), false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Sent)
	assert.Equal(t, 1, second.Skipped)
	assert.Len(t, sender.sent, 1)
}

func TestPerContactIsolation(t *testing.T) {
	repo := contacts.NewInMemoryRepository()
	failing := repo.Put(&contacts.Contact{Name: "Failing", Email: "f@example.com", CreatedAt: batchNow.Add(-30 * time.Hour)})
	healthy := repo.Put(&contacts.Contact{Name: "Healthy", Email: "h@example.com", CreatedAt: batchNow.Add(-29 * time.Hour)})
	sender := &stubSender{failID: failing.ID}

	engine := newEngine(repo, sender, nil)
	result, err := engine.ProcessAll(context.Background(), batchNow, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Errors)

	// The failed contact's state is untouched; the healthy one advanced.
	f, _ := repo.GetByID(context.Background(), failing.ID)
	assert.Equal(t, 0, f.ReminderCount)
	h, _ := repo.GetByID(context.Background(), healthy.ID)
	assert.Equal(t, 1, h.ReminderCount)
}

func TestDryRunTouchesNothing(t *testing.T) {
	repo := contacts.NewInMemoryRepository()
	sender := &stubSender{}
	recorder := &stubRecorder{}
	c := repo.Put(&contacts.Contact{Name: "Dana", Email: "dana@example.com", CreatedAt: batchNow.Add(-25 * time.Hour)})

	engine := newEngine(repo, sender, recorder)
	result, err := engine.ProcessAll(context.Background(), batchNow, true)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, "dry_run", result.Actions[0].Channel)
	assert.Equal(t, 1, result.Actions[0].Stage)

	assert.Empty(t, sender.sent)
	assert.Empty(t, recorder.records)
	stored, _ := repo.GetByID(context.Background(), c.ID)
	assert.Equal(t, 0, stored.ReminderCount)
}

func TestCompletedIntakeExcluded(t *testing.T) {
	repo := contacts.NewInMemoryRepository()
	sender := &stubSender{}
	repo.Put(&contacts.Contact{Name: "Done", CreatedAt: batchNow.Add(-100 * time.Hour), IntakeCompleted: true})

	engine := newEngine(repo, sender, nil)
	result, err := engine.ProcessAll(context.Background(), batchNow, false)
	require.NoError(t, err)
	assert.Empty(t, result.Actions)
}

func TestListFailureAbortsBatch(t *testing.T) {
	engine := newEngine(failingRepo{}, &stubSender{}, nil)
	_, err := engine.ProcessAll(context.Background(), batchNow, false)
	require.Error(t, err)
}

type failingRepo struct {
	contacts.Repository
}

func (failingRepo) ListIncompleteIntake(ctx context.Context) ([]contacts.Contact, error) {
	return nil, errors.New("db down")
}
