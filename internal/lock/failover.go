package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"roombook/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverLocker prefers the primary locker and switches to the fallback
// when the primary errors for a reason other than contention. The primary
// is retried once a minute.
type FailoverLocker struct {
	primary   domain.Locker
	fallback  domain.Locker
	logger    *zerolog.Logger
	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverLocker(primary, fallback domain.Locker, logger *zerolog.Logger) *FailoverLocker {
	return &FailoverLocker{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (l *FailoverLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	if l.isDown.Load() && l.recheckDue() {
		l.isDown.Store(false)
	}

	if !l.isDown.Load() {
		release, err := l.primary.Acquire(ctx, keys...)
		if err == nil || errors.Is(err, ErrLockTimeout) || ctx.Err() != nil {
			return release, err
		}
		l.logger.Error().Err(err).Msg("Primary locker failed, falling back to memory")
		l.markDown()
	}

	return l.fallback.Acquire(ctx, keys...)
}

func (l *FailoverLocker) markDown() {
	l.mu.Lock()
	l.lastCheck = time.Now()
	l.mu.Unlock()
	l.isDown.Store(true)
}

func (l *FailoverLocker) recheckDue() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return time.Since(l.lastCheck) > time.Minute
}
