package store

import (
	"context"
	"sync"
	"time"

	"github.com/padimaster/spots/core"
	"github.com/padimaster/spots/ports"
)

type entry struct {
	token  string
	expiry time.Time
}

// MemoryTokenStore is an in-memory implementation of the TokenStore
// interface, primarily intended for testing.
type MemoryTokenStore struct {
	tokens map[string]entry
	mu     sync.RWMutex
}

// NewMemoryTokenStore creates a new in-memory token store
func NewMemoryTokenStore() ports.TokenStore {
	return &MemoryTokenStore{tokens: make(map[string]entry)}
}

// Set stores a bridged token for a wallet address
func (s *MemoryTokenStore) Set(ctx context.Context, address, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[address] = entry{token: token, expiry: time.Now().Add(ttl)}
	return nil
}

// Get retrieves the bridged token for a wallet address
func (s *MemoryTokenStore) Get(ctx context.Context, address string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.tokens[address]
	if !ok || time.Now().After(e.expiry) {
		return "", core.ErrNotAuthenticated
	}

	return e.token, nil
}

// Delete removes the bridged token for a wallet address
func (s *MemoryTokenStore) Delete(ctx context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, address)
	return nil
}

// MemoryIntentStore is an in-memory implementation of the IntentStore
// interface, primarily intended for testing.
type MemoryIntentStore struct {
	intents  map[string]*core.PaymentIntent
	expiries map[string]time.Time
	mu       sync.RWMutex
}

// NewMemoryIntentStore creates a new in-memory intent store
func NewMemoryIntentStore() ports.IntentStore {
	return &MemoryIntentStore{
		intents:  make(map[string]*core.PaymentIntent),
		expiries: make(map[string]time.Time),
	}
}

// Put stores a payment intent with an expiry window
func (s *MemoryIntentStore) Put(ctx context.Context, intent *core.PaymentIntent, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *intent
	s.intents[intent.ID] = &cp
	s.expiries[intent.ID] = time.Now().Add(ttl)
	return nil
}

// Get retrieves a payment intent by id
func (s *MemoryIntentStore) Get(ctx context.Context, id string) (*core.PaymentIntent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	intent, ok := s.intents[id]
	if !ok || time.Now().After(s.expiries[id]) {
		return nil, core.ErrIntentNotFound
	}

	cp := *intent
	return &cp, nil
}
