// Package bridge talks to the external session API that exchanges a
// verified wallet address for an opaque bearer token.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/padimaster/spots/ports"
)

const maxRetries = 1

// withRetry runs fn, retrying a transient failure once with backoff.
func withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * 500 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := fn(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

// HTTPBridge implements the SessionBridge interface over HTTP
type HTTPBridge struct {
	baseURL string
	http    *http.Client
}

// NewHTTPBridge creates a bridge client with a bounded request timeout
func NewHTTPBridge(baseURL string) ports.SessionBridge {
	return &HTTPBridge{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

type loginRequest struct {
	Username string `json:"username"`
}

type loginResponse struct {
	SessionID string `json:"session_id"`
}

// Login exchanges a wallet address for a session token. The external API
// creates the account if it does not exist yet. A transient failure is
// retried once with backoff before the caller's own reconciliation takes
// over.
func (b *HTTPBridge) Login(ctx context.Context, address string) (string, error) {
	var token string
	err := withRetry(ctx, func() error {
		var err error
		token, err = b.login(ctx, address)
		return err
	})
	return token, err
}

func (b *HTTPBridge) login(ctx context.Context, address string) (string, error) {
	body, err := json.Marshal(loginRequest{Username: address})
	if err != nil {
		return "", fmt.Errorf("failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := b.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("bridge login request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return "", fmt.Errorf("bridge login http %d", res.StatusCode)
	}

	var out loginResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	if out.SessionID == "" {
		return "", fmt.Errorf("bridge login returned no session_id")
	}

	return out.SessionID, nil
}

// Logout invalidates the bridged session. The still-valid token must be
// attached as a bearer credential, which is why callers log out of the
// bridge before tearing down the local session.
func (b *HTTPBridge) Logout(ctx context.Context, token string) error {
	return withRetry(ctx, func() error {
		return b.logout(ctx, token)
	})
}

func (b *HTTPBridge) logout(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/auth/logout", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to build logout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("bridge logout request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("bridge logout http %d", res.StatusCode)
	}

	return nil
}
