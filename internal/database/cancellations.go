package database

import (
	"context"
	"fmt"

	"roombook/internal/domain"
	"roombook/internal/models"
)

const cancellationColumns = `id, booking_id, user_id, user_name, user_phone, room_number, date, booking_type, price, cancelled_at`

// CancelBooking records the snapshot and deletes the booking in one transaction.
// If the booking is already gone nothing is written and ErrNotFound is returned.
func (db *DB) CancelBooking(ctx context.Context, c *models.Cancellation) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `INSERT INTO cancellations (
				booking_id, user_id, user_name, user_phone, room_number, date, booking_type, price, cancelled_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.BookingID, c.UserID, c.UserName, c.UserPhone, c.RoomNumber, c.Date, c.BookingType, c.Price, c.CancelledAt)
	if err != nil {
		return fmt.Errorf("failed to insert cancellation in tx: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}

	deleted, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, c.BookingID)
	if err != nil {
		return fmt.Errorf("failed to delete booking in tx: %w", err)
	}
	if rows, _ := deleted.RowsAffected(); rows == 0 {
		return fmt.Errorf("booking %d: %w", c.BookingID, domain.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cancellation: %w", err)
	}
	c.ID = id
	return nil
}

// ListCancellations returns cancellations for a date, or all of them when date is empty.
func (db *DB) ListCancellations(ctx context.Context, date string) ([]*models.Cancellation, error) {
	query := `SELECT ` + cancellationColumns + ` FROM cancellations`
	var args []any
	if date != "" {
		query += ` WHERE date = ?`
		args = append(args, date)
	}
	query += ` ORDER BY id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get cancellations: %w", err)
	}
	defer rows.Close()

	var res []*models.Cancellation
	for rows.Next() {
		c := &models.Cancellation{}
		err := rows.Scan(&c.ID, &c.BookingID, &c.UserID, &c.UserName, &c.UserPhone,
			&c.RoomNumber, &c.Date, &c.BookingType, &c.Price, &c.CancelledAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cancellation: %w", err)
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (db *DB) UpdateCancellationIdentity(ctx context.Context, id int64, identity models.Identity) error {
	query := `UPDATE cancellations SET user_id = ?, user_name = ?, user_phone = ? WHERE id = ?`
	if _, err := db.ExecContext(ctx, query, identity.UserID, identity.UserName, identity.UserPhone, id); err != nil {
		return fmt.Errorf("failed to update cancellation identity: %w", err)
	}
	return nil
}

// ReassignCancellations moves every cancellation of fromUserID to the target identity.
func (db *DB) ReassignCancellations(ctx context.Context, fromUserID string, to models.Identity) (int64, error) {
	query := `UPDATE cancellations SET user_id = ?, user_name = ?, user_phone = ? WHERE user_id = ?`
	result, err := db.ExecContext(ctx, query, to.UserID, to.UserName, to.UserPhone, fromUserID)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign cancellations: %w", err)
	}
	return result.RowsAffected()
}
