package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padimaster/spots/core"
)

func TestMemoryTokenStore(t *testing.T) {
	s := NewMemoryTokenStore()
	ctx := context.Background()

	const addr = "0x1fb249bfa4ffB9fa98529692889d38359a57294D"

	_, err := s.Get(ctx, addr)
	assert.ErrorIs(t, err, core.ErrNotAuthenticated)

	require.NoError(t, s.Set(ctx, addr, "session-1", time.Minute))
	token, err := s.Get(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, "session-1", token)

	require.NoError(t, s.Delete(ctx, addr))
	_, err = s.Get(ctx, addr)
	assert.ErrorIs(t, err, core.ErrNotAuthenticated)

	// Deleting again is a no-op
	assert.NoError(t, s.Delete(ctx, addr))
}

func TestMemoryTokenStoreExpiry(t *testing.T) {
	s := NewMemoryTokenStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "0xabc", "session-1", -time.Second))
	_, err := s.Get(ctx, "0xabc")
	assert.ErrorIs(t, err, core.ErrNotAuthenticated)
}

func TestMemoryIntentStore(t *testing.T) {
	s := NewMemoryIntentStore()
	ctx := context.Background()

	intent, err := core.NewPaymentIntent("id-1", core.MinStake, decimal.RequireFromString("10"), "0xdead")
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, intent, time.Minute))

	// Mutating the original must not leak into the store
	intent.State = core.IntentFailed

	got, err := s.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, core.IntentCreated, got.State)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrIntentNotFound)
}

func TestMemoryIntentStoreExpiry(t *testing.T) {
	s := NewMemoryIntentStore()
	ctx := context.Background()

	intent, err := core.NewPaymentIntent("id-1", core.MinStake, decimal.RequireFromString("10"), "0xdead")
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, intent, -time.Second))

	_, err = s.Get(ctx, "id-1")
	assert.ErrorIs(t, err, core.ErrIntentNotFound)
}
