package repository

import (
	"context"
	"testing"
	"time"

	"bookdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleSlots = []models.TimeSlot{
	{
		Start:       time.Date(2030, 3, 4, 9, 0, 0, 0, time.UTC),
		End:         time.Date(2030, 3, 4, 10, 0, 0, 0, time.UTC),
		IsAvailable: true,
	},
}

func TestMemorySlotCacheRoundTrip(t *testing.T) {
	cache := NewMemorySlotCache(time.Minute)
	ctx := context.Background()

	_, hit, err := cache.Get(ctx, "t1", "s1", "svc1", "2030-03-04")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "t1", "s1", "svc1", "2030-03-04", sampleSlots))

	slots, hit, err := cache.Get(ctx, "t1", "s1", "svc1", "2030-03-04")
	require.NoError(t, err)
	assert.True(t, hit)
	require.Len(t, slots, 1)
	assert.True(t, slots[0].IsAvailable)
}

func TestMemorySlotCacheExpiry(t *testing.T) {
	cache := NewMemorySlotCache(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "t1", "s1", "svc1", "2030-03-04", sampleSlots))
	time.Sleep(25 * time.Millisecond)

	_, hit, err := cache.Get(ctx, "t1", "s1", "svc1", "2030-03-04")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemorySlotCacheInvalidateDay(t *testing.T) {
	cache := NewMemorySlotCache(time.Minute)
	ctx := context.Background()

	// Two services on the same staff day, plus one entry that must survive.
	require.NoError(t, cache.Set(ctx, "t1", "s1", "svc1", "2030-03-04", sampleSlots))
	require.NoError(t, cache.Set(ctx, "t1", "s1", "svc2", "2030-03-04", sampleSlots))
	require.NoError(t, cache.Set(ctx, "t1", "s2", "svc1", "2030-03-04", sampleSlots))

	require.NoError(t, cache.InvalidateDay(ctx, "t1", "s1", "2030-03-04"))

	_, hit, _ := cache.Get(ctx, "t1", "s1", "svc1", "2030-03-04")
	assert.False(t, hit)
	_, hit, _ = cache.Get(ctx, "t1", "s1", "svc2", "2030-03-04")
	assert.False(t, hit)
	_, hit, _ = cache.Get(ctx, "t1", "s2", "svc1", "2030-03-04")
	assert.True(t, hit, "other staff member's day is untouched")
}
