package credential

import (
	"context"
	"sync"
	"time"
)

// Store holds the current bearer credential in memory and mirrors it into a
// durable [Slot]. All methods are safe for concurrent use.
//
//	Docs: docs/credential.md
type Store struct {
	mu       sync.Mutex
	token    string
	hydrated bool
	slot     Slot
	slotTTL  time.Duration
}

// NewStore creates a credential [Store] backed by the given slot. A nil slot
// falls back to a process-scoped [MemorySlot]. slotTTL bounds how long the
// slot may retain a credential.
func NewStore(slot Slot, slotTTL time.Duration) *Store {
	if slot == nil {
		slot = NewMemorySlot()
	}
	return &Store{slot: slot, slotTTL: slotTTL}
}

// Get returns the current credential, or "" when none exists. When memory is
// empty and the slot has not been consulted yet, Get hydrates from the slot
// once; a failed slot read is treated as no credential and retried on the
// next call.
func (s *Store) Get(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" || s.hydrated {
		return s.token
	}

	token, err := s.slot.Load(ctx)
	if err != nil {
		return ""
	}
	s.token = token
	s.hydrated = true
	return s.token
}

// Current returns the in-memory credential without consulting the slot.
func (s *Store) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Hydrate re-reads the slot and adopts its value when memory holds no
// credential, returning the resulting credential. Session resume uses this
// instead of [Store.Get] because a sibling process may have stored a fresher
// credential after this process last looked.
func (s *Store) Hydrate(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" {
		return s.token, nil
	}

	token, err := s.slot.Load(ctx)
	if err != nil {
		return "", err
	}
	s.token = token
	s.hydrated = true
	return token, nil
}

// Set stores the credential in memory and then in the slot. Memory is updated
// even when the slot write fails; the slot error is returned so the caller
// can record it as a best-effort failure.
func (s *Store) Set(ctx context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.hydrated = true
	s.mu.Unlock()

	return s.slot.Store(ctx, token, s.slotTTL)
}

// Clear wipes the credential from memory and from the slot. Memory is cleared
// even when the slot clear fails.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.hydrated = true
	s.mu.Unlock()

	return s.slot.Clear(ctx)
}
