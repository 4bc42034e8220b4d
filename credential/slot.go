package credential

import (
	"context"
	"sync"
	"time"
)

// Slot is a durable holding place for the bearer credential. Implementations
// must honor the TTL passed to Store: a credential must never be readable
// after its bound elapses.
type Slot interface {
	// Load returns the held credential, or "" when the slot is empty or the
	// held value has expired.
	Load(ctx context.Context) (string, error)

	// Store replaces the held credential. ttl > 0 bounds its lifetime;
	// ttl <= 0 is rejected by implementations that cannot enforce a bound.
	Store(ctx context.Context, token string, ttl time.Duration) error

	// Clear empties the slot. Clearing an empty slot is a no-op.
	Clear(ctx context.Context) error
}

// MemorySlot is the default slot: process-scoped, cleared when the process
// exits. It enforces the TTL bound on read.
type MemorySlot struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewMemorySlot creates an empty process-scoped slot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

// Load implements [Slot].
func (m *MemorySlot) Load(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == "" {
		return "", nil
	}
	if !m.expiresAt.IsZero() && time.Now().After(m.expiresAt) {
		m.token = ""
		m.expiresAt = time.Time{}
		return "", nil
	}
	return m.token, nil
}

// Store implements [Slot].
func (m *MemorySlot) Store(_ context.Context, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
	if ttl > 0 {
		m.expiresAt = time.Now().Add(ttl)
	} else {
		m.expiresAt = time.Time{}
	}
	return nil
}

// Clear implements [Slot].
func (m *MemorySlot) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = ""
	m.expiresAt = time.Time{}
	return nil
}
