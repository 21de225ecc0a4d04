package ports

import (
	"context"
	"time"

	"github.com/padimaster/spots/core"
)

// TokenStore keeps bridged API tokens keyed by wallet address
type TokenStore interface {
	Set(ctx context.Context, address, token string, ttl time.Duration) error
	Get(ctx context.Context, address string) (string, error)
	Delete(ctx context.Context, address string) error
}

// IntentStore persists payment intents for the confirmation window
type IntentStore interface {
	Put(ctx context.Context, intent *core.PaymentIntent, ttl time.Duration) error
	Get(ctx context.Context, id string) (*core.PaymentIntent, error)
}
