package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"bookdesk/internal/models"
)

// MemorySlotCache is the in-process fallback used when redis is disabled or
// unreachable. Entries expire lazily on read.
type MemorySlotCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

type memoryEntry struct {
	slots     []models.TimeSlot
	expiresAt time.Time
}

func NewMemorySlotCache(ttl time.Duration) *MemorySlotCache {
	return &MemorySlotCache{entries: make(map[string]memoryEntry), ttl: ttl}
}

func (m *MemorySlotCache) Get(ctx context.Context, tenantID, staffID, serviceID, date string) ([]models.TimeSlot, bool, error) {
	key := slotKey(tenantID, staffID, date, serviceID)

	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return entry.slots, true, nil
}

func (m *MemorySlotCache) Set(ctx context.Context, tenantID, staffID, serviceID, date string, slots []models.TimeSlot) error {
	key := slotKey(tenantID, staffID, date, serviceID)
	m.mu.Lock()
	m.entries[key] = memoryEntry{slots: slots, expiresAt: time.Now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemorySlotCache) InvalidateDay(ctx context.Context, tenantID, staffID, date string) error {
	prefix := strings.TrimSuffix(slotDayPattern(tenantID, staffID, date), "*")
	m.mu.Lock()
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	m.mu.Unlock()
	return nil
}
