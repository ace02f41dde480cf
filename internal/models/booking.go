package models

import "time"

// Booking is a reservation of one room for one date by one client.
// StartHour and Duration are in half-hour units, see package schedule.
type Booking struct {
	ID          int64       `json:"id"`
	RoomNumber  int         `json:"room_number"`
	Date        string      `json:"date"`
	BookingType BookingType `json:"booking_type"`
	StartHour   int         `json:"start_hour"`
	Duration    int         `json:"duration"`
	UserID      string      `json:"user_id"`
	UserName    string      `json:"user_name"`
	UserPhone   string      `json:"user_phone"`
	Price       int         `json:"price"`

	// Payment fields belong to the payment collaborator and are only carried along.
	Paid          bool   `json:"paid"`
	PaymentMethod string `json:"payment_method,omitempty"`
	PaidAmount    int    `json:"paid_amount"`
	IsDebtor      bool   `json:"is_debtor"`
	ExtraTime     int    `json:"extra_time"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// End returns the exclusive end unit of the booking interval.
func (b *Booking) End() int {
	return b.StartHour + b.Duration
}

// Identity returns the client attribution of the booking.
func (b *Booking) Identity() Identity {
	return Identity{UserID: b.UserID, UserName: b.UserName, UserPhone: b.UserPhone}
}

// SetIdentity overwrites the client attribution of the booking.
func (b *Booking) SetIdentity(id Identity) {
	b.UserID = id.UserID
	b.UserName = id.UserName
	b.UserPhone = id.UserPhone
}

// Cancellation is the audit snapshot written when a booking is removed.
type Cancellation struct {
	ID          int64       `json:"id"`
	BookingID   int64       `json:"booking_id"`
	UserID      string      `json:"user_id"`
	UserName    string      `json:"user_name"`
	UserPhone   string      `json:"user_phone"`
	RoomNumber  int         `json:"room_number"`
	Date        string      `json:"date"`
	BookingType BookingType `json:"booking_type"`
	Price       int         `json:"price"`
	CancelledAt time.Time   `json:"cancelled_at"`
}

// NewCancellation snapshots the booking attribution, placement and price.
func NewCancellation(b *Booking, at time.Time) *Cancellation {
	return &Cancellation{
		BookingID:   b.ID,
		UserID:      b.UserID,
		UserName:    b.UserName,
		UserPhone:   b.UserPhone,
		RoomNumber:  b.RoomNumber,
		Date:        b.Date,
		BookingType: b.BookingType,
		Price:       b.Price,
		CancelledAt: at,
	}
}

// Identity returns the client attribution of the cancellation.
func (c *Cancellation) Identity() Identity {
	return Identity{UserID: c.UserID, UserName: c.UserName, UserPhone: c.UserPhone}
}
