package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/padimaster/spots/ports"
)

const (
	TopicLogin          = "spots.auth.login"
	TopicLogout         = "spots.auth.logout"
	TopicPaymentSettled = "spots.payment.settled"
)

// AuthEvent represents a login or logout event
type AuthEvent struct {
	Address string `json:"address"`
}

// PaymentSettledEvent is published after the primary transfer succeeds
type PaymentSettledEvent struct {
	Reference string `json:"reference"`
	Address   string `json:"address"`
	Amount    string `json:"amount"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, address string) error {
	return p.publish(TopicLogin, AuthEvent{Address: address})
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, address string) error {
	return p.publish(TopicLogout, AuthEvent{Address: address})
}

// PublishPaymentSettled publishes a payment settlement event
func (p *WatermillPublisher) PublishPaymentSettled(ctx context.Context, reference, address, amount string) error {
	return p.publish(TopicPaymentSettled, PaymentSettledEvent{
		Reference: reference,
		Address:   address,
		Amount:    amount,
	})
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
