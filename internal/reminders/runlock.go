package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/stillwater-counseling/practice-platform/pkg/logging"
)

const runLockKey = "reminders:run-lock"

// RunLock is a redis SETNX lease that keeps overlapping worker invocations
// from interleaving one batch window. The engine itself stays idempotent;
// the lock only suppresses duplicate concurrent runs. The TTL frees the lock
// if a holder crashes mid-batch.
type RunLock struct {
	client *redis.Client
	holder string
	ttl    time.Duration
	logger *logging.Logger
}

// NewRunLock creates a run lock with a unique holder id.
func NewRunLock(client *redis.Client, ttl time.Duration, logger *logging.Logger) *RunLock {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RunLock{
		client: client,
		holder: uuid.NewString(),
		ttl:    ttl,
		logger: logger,
	}
}

// Acquire attempts to take the lease. Returns false when another run holds it.
func (l *RunLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, runLockKey, l.holder, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reminders: acquire run lock: %w", err)
	}
	return ok, nil
}

// Release frees the lease if this instance still holds it. A lease that
// expired and was re-acquired by another holder is left alone.
func (l *RunLock) Release(ctx context.Context) error {
	current, err := l.client.Get(ctx, runLockKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reminders: read run lock: %w", err)
	}
	if current != l.holder {
		l.logger.Warn("run lock held by another instance, not releasing", "holder", current)
		return nil
	}
	if err := l.client.Del(ctx, runLockKey).Err(); err != nil {
		return fmt.Errorf("reminders: release run lock: %w", err)
	}
	return nil
}
