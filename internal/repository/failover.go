package repository

import (
	"context"
	"sync/atomic"
	"time"

	"bookdesk/internal/domain"
	"bookdesk/internal/models"

	"github.com/rs/zerolog"
)

// recoveryInterval is how long the primary stays benched after a failure
// before we probe it again.
const recoveryInterval = time.Minute

// FailoverSlotCache serves from the primary cache and falls back to the
// secondary when the primary errors, probing the primary periodically.
// Availability caching is an optimization, so a degraded cache must never
// fail a request.
type FailoverSlotCache struct {
	primary  domain.SlotCache
	fallback domain.SlotCache
	logger   *zerolog.Logger
	isDown   atomic.Bool
	downedAt atomic.Int64
}

func NewFailoverSlotCache(primary, fallback domain.SlotCache, logger *zerolog.Logger) *FailoverSlotCache {
	return &FailoverSlotCache{primary: primary, fallback: fallback, logger: logger}
}

func (f *FailoverSlotCache) markDown(err error) {
	f.logger.Error().Err(err).Msg("primary slot cache failed, falling back to memory")
	f.isDown.Store(true)
	f.downedAt.Store(time.Now().UnixNano())
}

func (f *FailoverSlotCache) shouldProbe() bool {
	return time.Since(time.Unix(0, f.downedAt.Load())) > recoveryInterval
}

func (f *FailoverSlotCache) Get(ctx context.Context, tenantID, staffID, serviceID, date string) ([]models.TimeSlot, bool, error) {
	if !f.isDown.Load() || f.shouldProbe() {
		slots, hit, err := f.primary.Get(ctx, tenantID, staffID, serviceID, date)
		if err == nil {
			f.isDown.Store(false)
			return slots, hit, nil
		}
		f.markDown(err)
	}
	return f.fallback.Get(ctx, tenantID, staffID, serviceID, date)
}

func (f *FailoverSlotCache) Set(ctx context.Context, tenantID, staffID, serviceID, date string, slots []models.TimeSlot) error {
	if !f.isDown.Load() {
		err := f.primary.Set(ctx, tenantID, staffID, serviceID, date, slots)
		if err == nil {
			return nil
		}
		f.markDown(err)
	}
	return f.fallback.Set(ctx, tenantID, staffID, serviceID, date, slots)
}

func (f *FailoverSlotCache) InvalidateDay(ctx context.Context, tenantID, staffID, date string) error {
	// Invalidation goes to both sides: a stale entry surviving in the
	// benched primary must not resurface after recovery.
	var firstErr error
	if err := f.primary.InvalidateDay(ctx, tenantID, staffID, date); err != nil {
		f.markDown(err)
		firstErr = err
	}
	if err := f.fallback.InvalidateDay(ctx, tenantID, staffID, date); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
