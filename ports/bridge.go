package ports

import "context"

// SessionBridge exchanges a verified wallet address for an external-API
// session token. Login failure is non-fatal to wallet-level auth; logout
// is best-effort.
type SessionBridge interface {
	Login(ctx context.Context, address string) (string, error)
	Logout(ctx context.Context, token string) error
}
