package domain

import (
	"context"

	"roombook/internal/models"
)

// BookingStore is the record store the booking engine persists its decisions in.
type BookingStore interface {
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListRoomBookings(ctx context.Context, roomNumber int, date string) ([]*models.Booking, error)
	ListClientBookings(ctx context.Context, userID, date string) ([]*models.Booking, error)
	ListBookings(ctx context.Context) ([]*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingSchedule(ctx context.Context, booking *models.Booking) error
	UpdateBookingIdentity(ctx context.Context, id int64, identity models.Identity) error
	ReassignBookings(ctx context.Context, fromUserID string, to models.Identity) (int64, error)

	// CancelBooking writes the snapshot and deletes c.BookingID as one unit.
	CancelBooking(ctx context.Context, c *models.Cancellation) error
	ListCancellations(ctx context.Context, date string) ([]*models.Cancellation, error)
	UpdateCancellationIdentity(ctx context.Context, id int64, identity models.Identity) error
	ReassignCancellations(ctx context.Context, fromUserID string, to models.Identity) (int64, error)
}

// UserDirectory resolves registered clients.
type UserDirectory interface {
	FindUserByPhone(ctx context.Context, normalizedPhone string) (*models.User, error)
}

// Locker grants exclusive leases on string keys. Release must be called
// exactly once after a successful Acquire.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
