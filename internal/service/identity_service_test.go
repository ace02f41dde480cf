package service

import (
	"context"
	"testing"
	"time"

	"roombook/internal/domain"
	"roombook/internal/events"
	"roombook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBooking(t *testing.T, env *testEnv, room, start int, id models.Identity) *models.Booking {
	t.Helper()
	b := &models.Booking{
		RoomNumber:  room,
		Date:        testDate,
		BookingType: models.BookingHourly,
		StartHour:   start,
		Duration:    2,
		Price:       400,
	}
	b.SetIdentity(id)
	require.NoError(t, env.db.CreateBooking(context.Background(), b))
	return b
}

func seedCancellation(t *testing.T, env *testEnv, id models.Identity) *models.Cancellation {
	t.Helper()
	b := seedBooking(t, env, 3, 40, id)
	c := models.NewCancellation(b, time.Now())
	require.NoError(t, env.db.CancelBooking(context.Background(), c))
	return c
}

func TestMerge(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	source := models.Identity{UserID: "walk_in_a1", UserName: "Оля", UserPhone: ""}
	seedBooking(t, env, 1, 20, source)
	seedBooking(t, env, 2, 30, source)
	seedCancellation(t, env, source)
	seedBooking(t, env, 1, 30, models.Identity{UserID: "u9", UserName: "Other"})

	n, err := env.identity.Merge(ctx, MergeRequest{
		SourceUserID:    "walk_in_a1",
		TargetUserID:    "77",
		TargetUserName:  "Ольга",
		TargetUserPhone: "+7 900 111-22-33",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	moved, err := env.db.ListClientBookings(ctx, "77", testDate)
	require.NoError(t, err)
	require.Len(t, moved, 2)
	assert.Equal(t, "Ольга", moved[0].UserName)
	assert.Equal(t, "9001112233", moved[0].UserPhone)

	cancellations, err := env.db.ListCancellations(ctx, "")
	require.NoError(t, err)
	require.Len(t, cancellations, 1)
	assert.Equal(t, "77", cancellations[0].UserID)

	again, err := env.identity.Merge(ctx, MergeRequest{SourceUserID: "walk_in_a1", TargetUserID: "77"})
	require.NoError(t, err)
	assert.Zero(t, again)
	assert.Contains(t, env.received, events.EventClientsMerged)
}

func TestMerge_RequiresIDs(t *testing.T) {
	env := setupEnv(t)

	_, err := env.identity.Merge(context.Background(), MergeRequest{TargetUserID: "1"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestDedup(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	a := seedBooking(t, env, 1, 20, models.Identity{UserID: "walk_in_a", UserName: "Anna", UserPhone: ""})
	b := seedBooking(t, env, 2, 20, models.Identity{UserID: "walk_in_b", UserName: " anna ", UserPhone: "+7 912 345 67 89"})
	c := seedBooking(t, env, 3, 20, models.Identity{UserID: "walk_in_c", UserName: "Boris", UserPhone: "8-900-111-22-33"})
	registered := seedBooking(t, env, 1, 30, models.Identity{UserID: "42", UserName: "Anna", UserPhone: "9001112233"})
	nameless := seedBooking(t, env, 2, 30, models.Identity{UserID: "walk_in_n", UserName: "", UserPhone: ""})
	cancelled := seedCancellation(t, env, models.Identity{UserID: "walk_in_d", UserName: "ANNA", UserPhone: ""})

	n, err := env.identity.Dedup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	canonical := models.Identity{UserID: "walk_in_b", UserName: " anna ", UserPhone: "9123456789"}
	for _, id := range []int64{a.ID, b.ID} {
		got, err := env.db.GetBooking(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, canonical, got.Identity())
	}

	boris, err := env.db.GetBooking(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "9001112233", boris.UserPhone)
	assert.Equal(t, "walk_in_c", boris.UserID)

	reg, err := env.db.GetBooking(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "42", reg.UserID)

	// единственный безымянный клиент остается как есть
	anon, err := env.db.GetBooking(ctx, nameless.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Identity{UserID: "walk_in_n"}, anon.Identity())

	cancellations, err := env.db.ListCancellations(ctx, "")
	require.NoError(t, err)
	require.Len(t, cancellations, 1)
	assert.Equal(t, cancelled.BookingID, cancellations[0].BookingID)
	assert.Equal(t, canonical, cancellations[0].Identity())

	second, err := env.identity.Dedup(ctx)
	require.NoError(t, err)
	assert.Zero(t, second, "dedup must be idempotent")
}

func TestDedup_BlankNamesGroupTogether(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	x := seedBooking(t, env, 1, 20, models.Identity{UserID: "walk_in_x", UserName: "", UserPhone: ""})
	y := seedBooking(t, env, 2, 20, models.Identity{UserID: "walk_in_y", UserName: "   ", UserPhone: "89001112233"})

	n, err := env.identity.Dedup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	want := models.Identity{UserID: "walk_in_y", UserName: "   ", UserPhone: "9001112233"}
	for _, id := range []int64{x.ID, y.ID} {
		got, err := env.db.GetBooking(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Identity())
	}

	second, err := env.identity.Dedup(ctx)
	require.NoError(t, err)
	assert.Zero(t, second)
}

func TestDedup_CancellationsWithoutBookingGroup(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	seedCancellation(t, env, models.Identity{UserID: "walk_in_p", UserName: "Пётр", UserPhone: ""})
	seedCancellation(t, env, models.Identity{UserID: "walk_in_q", UserName: "пётр", UserPhone: "89995554433"})
	seedCancellation(t, env, models.Identity{UserID: "walk_in_r", UserName: "Роман", UserPhone: ""})

	n, err := env.identity.Dedup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	cancellations, err := env.db.ListCancellations(ctx, "")
	require.NoError(t, err)
	require.Len(t, cancellations, 3)
	want := models.Identity{UserID: "walk_in_q", UserName: "пётр", UserPhone: "9995554433"}
	assert.Equal(t, want, cancellations[0].Identity())
	assert.Equal(t, want, cancellations[1].Identity())
	assert.Equal(t, "walk_in_r", cancellations[2].UserID)

	second, err := env.identity.Dedup(ctx)
	require.NoError(t, err)
	assert.Zero(t, second)
}
