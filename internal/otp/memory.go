package otp

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"
)

type record struct {
	code      string
	expiresAt time.Time
}

// MemoryRegistry keeps codes in process memory. Pending codes do not survive
// a restart, and entries are only reaped lazily when consumed or replaced,
// so it is only suitable for single-instance deployments.
type MemoryRegistry struct {
	mu      sync.Mutex
	records map[string]record
	now     func() time.Time
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		records: make(map[string]record),
		now:     time.Now,
	}
}

func (m *MemoryRegistry) Put(_ context.Context, key, code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = record{
		code:      code,
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

func (m *MemoryRegistry) Consume(_ context.Context, key, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return ErrNotRequested
	}
	if m.now().After(rec.expiresAt) {
		delete(m.records, key)
		return ErrExpired
	}
	if subtle.ConstantTimeCompare([]byte(rec.code), []byte(code)) != 1 {
		return ErrMismatch
	}
	delete(m.records, key)
	return nil
}
