package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"roombook/internal/domain"
	"roombook/internal/models"
	"roombook/internal/phone"
)

const userColumns = `id, name, phone, phone_normalized, created_at, updated_at`

// UpsertUser creates or updates a registered user keyed by id.
func (db *DB) UpsertUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, name, phone, phone_normalized, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                name = excluded.name,
                phone = excluded.phone,
                phone_normalized = excluded.phone_normalized,
                updated_at = excluded.updated_at`
	now := time.Now()
	user.PhoneNormalized = phone.Normalize(user.Phone)
	_, err := db.ExecContext(ctx, query, user.ID, user.Name, user.Phone, user.PhoneNormalized, now, now)
	if err != nil {
		return fmt.Errorf("failed to create or update user: %w", err)
	}
	return nil
}

func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	return db.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// FindUserByPhone returns the oldest registered user with the normalized phone.
func (db *DB) FindUserByPhone(ctx context.Context, normalizedPhone string) (*models.User, error) {
	if normalizedPhone == "" {
		return nil, fmt.Errorf("empty phone: %w", domain.ErrNotFound)
	}
	return db.queryUser(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone_normalized = ? ORDER BY created_at, id LIMIT 1`,
		normalizedPhone)
}

func (db *DB) queryUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.Name, &user.Phone, &user.PhoneNormalized, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
