package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/mattn/go-sqlite3"
)

// timeLayout is the storage format for all timestamps. Fixed width and always
// UTC, so string comparison in SQL matches chronological order.
const timeLayout = "2006-01-02 15:04:05"

// DB is the sqlite-backed store. Every tenant-scoped method takes the tenant
// id explicitly; there is no ambient tenant filter to forget.
type DB struct {
	db     *sql.DB
	locks  *staffLocks
	logger *zerolog.Logger
}

// NewDB opens (and creates, if needed) the sqlite database at path.
// Use ":memory:" in tests.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// A single connection sidesteps sqlite's writer contention; serialization
	// of booking writes happens on the per-staff locks anyway.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{db: db, locks: newStaffLocks(), logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tenants (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            slug TEXT NOT NULL UNIQUE,
            timezone TEXT NOT NULL DEFAULT 'UTC',
            currency TEXT NOT NULL DEFAULT 'USD',
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS services (
            id TEXT PRIMARY KEY,
            tenant_id TEXT NOT NULL,
            name TEXT NOT NULL,
            description TEXT,
            base_price REAL NOT NULL DEFAULT 0,
            duration_minutes INTEGER NOT NULL,
            capacity INTEGER NOT NULL DEFAULT 1,
            buffer_minutes INTEGER NOT NULL DEFAULT 0,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL,
            CHECK (duration_minutes > 0),
            CHECK (capacity >= 1)
        )`,
		`CREATE TABLE IF NOT EXISTS staff_members (
            id TEXT PRIMARY KEY,
            tenant_id TEXT NOT NULL,
            user_id TEXT,
            display_name TEXT NOT NULL,
            title TEXT,
            accepts_bookings BOOLEAN NOT NULL DEFAULT 1,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS staff_service_links (
            id TEXT PRIMARY KEY,
            tenant_id TEXT NOT NULL,
            staff_id TEXT NOT NULL,
            service_id TEXT NOT NULL,
            price_override REAL,
            duration_override INTEGER,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            UNIQUE (staff_id, service_id)
        )`,
		`CREATE TABLE IF NOT EXISTS working_hours (
            id TEXT PRIMARY KEY,
            tenant_id TEXT NOT NULL,
            staff_id TEXT NOT NULL,
            day_of_week INTEGER NOT NULL,
            start_time TEXT NOT NULL,
            end_time TEXT NOT NULL,
            is_active BOOLEAN NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS staff_breaks (
            id TEXT PRIMARY KEY,
            tenant_id TEXT NOT NULL,
            staff_id TEXT NOT NULL,
            day_of_week INTEGER NOT NULL,
            start_time TEXT NOT NULL,
            end_time TEXT NOT NULL,
            description TEXT,
            is_active BOOLEAN NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS clients (
            id TEXT PRIMARY KEY,
            tenant_id TEXT NOT NULL,
            user_id TEXT,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL,
            phone TEXT,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL,
            UNIQUE (tenant_id, email)
        )`,
		`CREATE TABLE IF NOT EXISTS appointments (
            id TEXT PRIMARY KEY,
            tenant_id TEXT NOT NULL,
            service_id TEXT NOT NULL,
            staff_id TEXT NOT NULL,
            client_id TEXT NOT NULL,
            group_session_id TEXT,
            start_time TEXT NOT NULL,
            end_time TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            price REAL NOT NULL DEFAULT 0,
            duration_minutes INTEGER NOT NULL,
            customer_notes TEXT,
            internal_notes TEXT,
            cancellation_reason TEXT,
            cancelled_at TEXT,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL,
            version INTEGER NOT NULL DEFAULT 1
        )`,

		`CREATE INDEX IF NOT EXISTS idx_appointments_staff_time ON appointments(staff_id, start_time, end_time)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_tenant_time ON appointments(tenant_id, start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_clients_tenant_email ON clients(tenant_id, email)`,
		`CREATE INDEX IF NOT EXISTS idx_working_hours_staff_day ON working_hours(staff_id, day_of_week)`,
		`CREATE INDEX IF NOT EXISTS idx_staff_breaks_staff_day ON staff_breaks(staff_id, day_of_week)`,
		`CREATE INDEX IF NOT EXISTS idx_services_tenant ON services(tenant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_staff_members_tenant ON staff_members(tenant_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing schema statement: %w", err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func fmtTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(timeLayout)
}

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return t, nil
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
