package ports

import "context"

// EventPublisher notifies other instances about auth and payment changes
type EventPublisher interface {
	PublishLogin(ctx context.Context, address string) error
	PublishLogout(ctx context.Context, address string) error
	PublishPaymentSettled(ctx context.Context, reference, address, amount string) error
}
