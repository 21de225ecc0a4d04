package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/padimaster/spots/core"
	"github.com/padimaster/spots/ports"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RedisTokenStore is a Redis implementation of the TokenStore interface
type RedisTokenStore struct {
	client *redis.Client
	prefix string
}

// NewRedisTokenStore creates a new Redis token store
func NewRedisTokenStore(client *redis.Client) ports.TokenStore {
	return &RedisTokenStore{
		client: client,
		prefix: "spots:bridge-token:",
	}
}

// Set stores a bridged token for a wallet address
func (s *RedisTokenStore) Set(ctx context.Context, address, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+address, token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store bridged token: %w", err)
	}
	return nil
}

// Get retrieves the bridged token for a wallet address
func (s *RedisTokenStore) Get(ctx context.Context, address string) (string, error) {
	val, err := s.client.Get(ctx, s.prefix+address).Result()
	if err != nil {
		if err == redis.Nil {
			return "", core.ErrNotAuthenticated
		}
		return "", fmt.Errorf("failed to read bridged token: %w", err)
	}
	return val, nil
}

// Delete removes the bridged token for a wallet address
func (s *RedisTokenStore) Delete(ctx context.Context, address string) error {
	if err := s.client.Del(ctx, s.prefix+address).Err(); err != nil {
		return fmt.Errorf("failed to delete bridged token: %w", err)
	}
	return nil
}

// RedisIntentStore is a Redis implementation of the IntentStore interface
type RedisIntentStore struct {
	client *redis.Client
	prefix string
}

// NewRedisIntentStore creates a new Redis intent store
func NewRedisIntentStore(client *redis.Client) ports.IntentStore {
	return &RedisIntentStore{
		client: client,
		prefix: "spots:intent:",
	}
}

type intentRecord struct {
	ID        string    `json:"id"`
	Amount    string    `json:"amount"`
	Recipient string    `json:"recipient"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// Put stores a payment intent with an expiry window
func (s *RedisIntentStore) Put(ctx context.Context, intent *core.PaymentIntent, ttl time.Duration) error {
	rec := intentRecord{
		ID:        intent.ID,
		Amount:    intent.Amount.String(),
		Recipient: intent.Recipient,
		State:     string(intent.State),
		CreatedAt: intent.CreatedAt,
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal intent: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+intent.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store intent: %w", err)
	}

	return nil
}

// Get retrieves a payment intent by id
func (s *RedisIntentStore) Get(ctx context.Context, id string) (*core.PaymentIntent, error) {
	payload, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, core.ErrIntentNotFound
		}
		return nil, fmt.Errorf("failed to read intent: %w", err)
	}

	var rec intentRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal intent: %w", err)
	}

	amount, err := decimal.NewFromString(rec.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse intent amount: %w", err)
	}

	return &core.PaymentIntent{
		ID:        rec.ID,
		Amount:    amount,
		Recipient: rec.Recipient,
		State:     core.IntentState(rec.State),
		CreatedAt: rec.CreatedAt,
	}, nil
}
