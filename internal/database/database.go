package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB is the SQLite record store for bookings, cancellations and users.
type DB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if path != ":memory:" {
		// Создаем директорию для БД, если её нет
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: sqlDB, path: path, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Зарегистрированные клиенты
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            phone TEXT NOT NULL DEFAULT '',
            phone_normalized TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		// Бронирования комнат
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            room_number INTEGER NOT NULL CHECK (room_number BETWEEN 1 AND 3),
            date TEXT NOT NULL,
            booking_type TEXT NOT NULL CHECK (booking_type IN ('hourly', 'daily')),
            start_hour INTEGER NOT NULL,
            duration INTEGER NOT NULL,
            user_id TEXT NOT NULL,
            user_name TEXT NOT NULL DEFAULT '',
            user_phone TEXT NOT NULL DEFAULT '',
            price INTEGER NOT NULL,
            paid BOOLEAN NOT NULL DEFAULT 0,
            payment_method TEXT NOT NULL DEFAULT '',
            paid_amount INTEGER NOT NULL DEFAULT 0,
            is_debtor BOOLEAN NOT NULL DEFAULT 0,
            extra_time INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		// Журнал отмен
		`CREATE TABLE IF NOT EXISTS cancellations (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            booking_id INTEGER NOT NULL,
            user_id TEXT NOT NULL,
            user_name TEXT NOT NULL DEFAULT '',
            user_phone TEXT NOT NULL DEFAULT '',
            room_number INTEGER NOT NULL,
            date TEXT NOT NULL,
            booking_type TEXT NOT NULL,
            price INTEGER NOT NULL,
            cancelled_at DATETIME NOT NULL
        )`,

		`CREATE INDEX IF NOT EXISTS idx_users_phone ON users(phone_normalized)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_room_date ON bookings(room_number, date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_date ON bookings(user_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_cancellations_date ON cancellations(date)`,
		`CREATE INDEX IF NOT EXISTS idx_cancellations_user ON cancellations(user_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", trimSQL(query), err)
		}
	}
	return nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

type rowScanner interface {
	Scan(dest ...any) error
}

func trimSQL(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
