package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"roombook/internal/domain"
	"roombook/internal/models"
)

const bookingColumns = `id, room_number, date, booking_type, start_hour, duration,
	user_id, user_name, user_phone, price,
	paid, payment_method, paid_amount, is_debtor, extra_time,
	created_at, updated_at`

func scanBooking(r rowScanner) (*models.Booking, error) {
	var b models.Booking
	err := r.Scan(
		&b.ID, &b.RoomNumber, &b.Date, &b.BookingType, &b.StartHour, &b.Duration,
		&b.UserID, &b.UserName, &b.UserPhone, &b.Price,
		&b.Paid, &b.PaymentMethod, &b.PaidAmount, &b.IsDebtor, &b.ExtraTime,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}
	return bookings, nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// ListRoomBookings returns the bookings of a room on a date ordered by start.
func (db *DB) ListRoomBookings(ctx context.Context, roomNumber int, date string) ([]*models.Booking, error) {
	return db.queryBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE room_number = ? AND date = ? ORDER BY start_hour, id`,
		roomNumber, date)
}

// ListClientBookings returns the bookings of a client on a date across all rooms.
func (db *DB) ListClientBookings(ctx context.Context, userID, date string) ([]*models.Booking, error) {
	return db.queryBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? AND date = ? ORDER BY room_number, start_hour, id`,
		userID, date)
}

// ListBookings returns every booking in insertion order.
func (db *DB) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	return db.queryBookings(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY id`)
}

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (
				room_number, date, booking_type, start_hour, duration,
				user_id, user_name, user_phone, price,
				paid, payment_method, paid_amount, is_debtor, extra_time,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		booking.RoomNumber,
		booking.Date,
		booking.BookingType,
		booking.StartHour,
		booking.Duration,
		booking.UserID,
		booking.UserName,
		booking.UserPhone,
		booking.Price,
		booking.Paid,
		booking.PaymentMethod,
		booking.PaidAmount,
		booking.IsDebtor,
		booking.ExtraTime,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

// UpdateBookingSchedule writes placement, window and price of an edited booking.
func (db *DB) UpdateBookingSchedule(ctx context.Context, booking *models.Booking) error {
	query := `UPDATE bookings
              SET room_number = ?, date = ?, booking_type = ?, start_hour = ?, duration = ?, price = ?, updated_at = ?
              WHERE id = ?`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		booking.RoomNumber, booking.Date, booking.BookingType, booking.StartHour, booking.Duration, booking.Price,
		now, booking.ID)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("booking %d: %w", booking.ID, domain.ErrNotFound)
	}
	booking.UpdatedAt = now
	return nil
}

func (db *DB) UpdateBookingIdentity(ctx context.Context, id int64, identity models.Identity) error {
	query := `UPDATE bookings SET user_id = ?, user_name = ?, user_phone = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, identity.UserID, identity.UserName, identity.UserPhone, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking identity: %w", err)
	}
	return nil
}

// ReassignBookings moves every booking of fromUserID to the target identity.
func (db *DB) ReassignBookings(ctx context.Context, fromUserID string, to models.Identity) (int64, error) {
	query := `UPDATE bookings SET user_id = ?, user_name = ?, user_phone = ?, updated_at = ? WHERE user_id = ?`
	result, err := db.ExecContext(ctx, query, to.UserID, to.UserName, to.UserPhone, time.Now(), fromUserID)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign bookings: %w", err)
	}
	return result.RowsAffected()
}
