package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookdesk/internal/config"
	"bookdesk/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisSlotCache caches computed day availability in redis. Entries are
// short-lived and invalidated on every booking mutation for the staff
// member's day, so a hit is at worst slightly stale and never trusted by the
// booking transaction itself.
type RedisSlotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient creates a redis client from the configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisSlotCache(client *redis.Client, ttl time.Duration) *RedisSlotCache {
	return &RedisSlotCache{client: client, ttl: ttl}
}

// Keys group by tenant, staff and date first so one day of one calendar can
// be dropped with a single pattern.
func slotKey(tenantID, staffID, date, serviceID string) string {
	return fmt.Sprintf("slots:%s:%s:%s:%s", tenantID, staffID, date, serviceID)
}

func slotDayPattern(tenantID, staffID, date string) string {
	return fmt.Sprintf("slots:%s:%s:%s:*", tenantID, staffID, date)
}

func (r *RedisSlotCache) Get(ctx context.Context, tenantID, staffID, serviceID, date string) ([]models.TimeSlot, bool, error) {
	if r.client == nil {
		return nil, false, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, slotKey(tenantID, staffID, date, serviceID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read slot cache: %w", err)
	}

	var slots []models.TimeSlot
	if err := json.Unmarshal([]byte(val), &slots); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached slots: %w", err)
	}
	return slots, true, nil
}

func (r *RedisSlotCache) Set(ctx context.Context, tenantID, staffID, serviceID, date string, slots []models.TimeSlot) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	raw, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("failed to encode slots: %w", err)
	}
	if err := r.client.Set(ctx, slotKey(tenantID, staffID, date, serviceID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write slot cache: %w", err)
	}
	return nil
}

func (r *RedisSlotCache) InvalidateDay(ctx context.Context, tenantID, staffID, date string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	keys, err := r.client.Keys(ctx, slotDayPattern(tenantID, staffID, date)).Result()
	if err != nil {
		return fmt.Errorf("failed to scan slot cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to drop slot cache keys: %w", err)
	}
	return nil
}
