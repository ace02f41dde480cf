package database

import (
	"context"
	"testing"
	"time"

	"roombook/internal/domain"
	"roombook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b := newTestBooking(2, 20, 4, "u1")
	require.NoError(t, db.CreateBooking(ctx, b))

	at := time.Date(2025, 2, 28, 9, 0, 0, 0, time.UTC)
	c := models.NewCancellation(b, at)
	require.NoError(t, db.CancelBooking(ctx, c))
	assert.NotZero(t, c.ID)

	_, err := db.GetBooking(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := db.ListCancellations(ctx, testDate)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].BookingID)
	assert.Equal(t, 2, list[0].RoomNumber)
	assert.Equal(t, 800, list[0].Price)
	assert.Equal(t, models.BookingHourly, list[0].BookingType)
	assert.True(t, at.Equal(list[0].CancelledAt))
}

func TestCancelBooking_MissingBookingWritesNothing(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b := newTestBooking(1, 20, 2, "u1")
	b.ID = 999

	err := db.CancelBooking(ctx, models.NewCancellation(b, time.Now()))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := db.ListCancellations(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list, "snapshot must roll back with the delete")
}

func TestCancelBooking_SnapshotFailureKeepsBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b := newTestBooking(1, 20, 2, "u1")
	require.NoError(t, db.CreateBooking(ctx, b))

	_, err := db.ExecContext(ctx, `DROP TABLE cancellations`)
	require.NoError(t, err)

	err = db.CancelBooking(ctx, models.NewCancellation(b, time.Now()))
	assert.Error(t, err)

	still, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, still.ID)
}

func TestReassignAndUpdateCancellations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	var ids []int64
	for _, user := range []string{"walk_in_a", "walk_in_a", "u2"} {
		b := newTestBooking(1, 20, 2, user)
		require.NoError(t, db.CreateBooking(ctx, b))
		c := models.NewCancellation(b, time.Now())
		require.NoError(t, db.CancelBooking(ctx, c))
		ids = append(ids, c.ID)
	}

	target := testIdentity("u5")
	n, err := db.ReassignCancellations(ctx, "walk_in_a", target)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, db.UpdateCancellationIdentity(ctx, ids[2], target))

	list, err := db.ListCancellations(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 3)
	for _, c := range list {
		assert.Equal(t, target, c.Identity())
	}
}
