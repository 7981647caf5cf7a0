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

func (db *DB) CreateClient(ctx context.Context, tenantID string, c *models.Client) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.TenantID = tenantID
	now := time.Now().UTC().Truncate(time.Second)

	query := `INSERT INTO clients (id, tenant_id, user_id, first_name, last_name, email, phone,
                                   is_active, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.db.ExecContext(ctx, query,
		c.ID, c.TenantID, c.UserID, c.FirstName, c.LastName, c.Email, c.Phone,
		c.IsActive, fmtTime(now), fmtTime(now))
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func (db *DB) GetClient(ctx context.Context, tenantID, id string) (*models.Client, error) {
	query := clientSelect + ` WHERE id = ? AND tenant_id = ?`
	return db.scanClient(db.db.QueryRowContext(ctx, query, id, tenantID))
}

// GetClientByEmail looks a client up by email within one tenant. The same
// email may exist under several tenants; they are distinct clients.
func (db *DB) GetClientByEmail(ctx context.Context, tenantID, email string) (*models.Client, error) {
	query := clientSelect + ` WHERE tenant_id = ? AND email = ?`
	return db.scanClient(db.db.QueryRowContext(ctx, query, tenantID, email))
}

const clientSelect = `SELECT id, tenant_id, COALESCE(user_id, ''), first_name, last_name, email,
                             COALESCE(phone, ''), is_active, created_at, updated_at
                      FROM clients`

func (db *DB) scanClient(row *sql.Row) (*models.Client, error) {
	var c models.Client
	var createdAt, updatedAt string
	err := row.Scan(&c.ID, &c.TenantID, &c.UserID, &c.FirstName, &c.LastName, &c.Email,
		&c.Phone, &c.IsActive, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
