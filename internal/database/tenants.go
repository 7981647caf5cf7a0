package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookdesk/internal/models"

	"github.com/google/uuid"
)

func (db *DB) CreateTenant(ctx context.Context, t *models.Tenant) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Timezone == "" {
		t.Timezone = "UTC"
	}
	if t.Currency == "" {
		t.Currency = "USD"
	}
	now := time.Now().UTC().Truncate(time.Second)

	query := `INSERT INTO tenants (id, name, slug, timezone, currency, is_active, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.db.ExecContext(ctx, query,
		t.ID, t.Name, t.Slug, t.Timezone, t.Currency, t.IsActive, fmtTime(now), fmtTime(now))
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

func (db *DB) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	query := `SELECT id, name, slug, timezone, currency, is_active, created_at, updated_at
              FROM tenants WHERE id = ?`
	return db.scanTenant(db.db.QueryRowContext(ctx, query, id))
}

func (db *DB) GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	query := `SELECT id, name, slug, timezone, currency, is_active, created_at, updated_at
              FROM tenants WHERE slug = ?`
	return db.scanTenant(db.db.QueryRowContext(ctx, query, slug))
}

func (db *DB) DeactivateTenant(ctx context.Context, id string) error {
	query := `UPDATE tenants SET is_active = 0, updated_at = ? WHERE id = ?`
	result, err := db.db.ExecContext(ctx, query, fmtTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate tenant: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) scanTenant(row *sql.Row) (*models.Tenant, error) {
	var t models.Tenant
	var createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Timezone, &t.Currency, &t.IsActive, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
