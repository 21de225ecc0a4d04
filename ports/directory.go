package ports

import (
	"context"

	"github.com/padimaster/spots/core"
)

// UserDirectory resolves host-app usernames to wallet identities. Used as
// a best-effort fallback when a payment recipient is not supplied.
type UserDirectory interface {
	GetUserByUsername(ctx context.Context, username string) (*core.User, error)
	GetUserInfo(ctx context.Context, address string) (*core.User, error)
}
