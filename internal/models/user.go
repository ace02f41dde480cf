package models

import (
	"strings"
	"time"
)

// User is a registered client account.
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	PhoneNormalized string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Identity is the (userId, userName, userPhone) triple a booking is attributed to.
type Identity struct {
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	UserPhone string `json:"user_phone"`
}

// IsWalkIn reports whether the id is a synthetic walk-in id.
func IsWalkIn(userID string) bool {
	return strings.HasPrefix(userID, WalkInPrefix)
}
