package service

import (
	"testing"
	"time"

	"roombook/internal/database"
	"roombook/internal/events"
	"roombook/internal/lock"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testDate = "2025-03-01"

type testEnv struct {
	db       *database.DB
	bookings *BookingService
	identity *IdentityService
	bus      *events.EventBus
	received []string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{db: db, bus: events.NewEventBus(&logger)}
	env.bus.Subscribe(func(e *events.Event) error {
		env.received = append(env.received, e.Type)
		return nil
	}, events.AllTypes()...)

	locker := lock.NewMemoryLocker(time.Second)
	env.bookings = NewBookingService(db, db, locker, env.bus, &logger)
	env.identity = NewIdentityService(db, env.bus, &logger)
	return env
}

func intPtr(v int) *int { return &v }
