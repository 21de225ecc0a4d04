// Package directory resolves host-app usernames to wallet identities.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/padimaster/spots/core"
	"github.com/padimaster/spots/ports"
)

const maxRetries = 1

// HTTPDirectory implements the UserDirectory interface over the host
// app's usernames API.
type HTTPDirectory struct {
	baseURL string
	http    *http.Client
}

// NewHTTPDirectory creates a directory client
func NewHTTPDirectory(baseURL string) ports.UserDirectory {
	return &HTTPDirectory{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

type userRecord struct {
	WalletAddress     string `json:"wallet_address"`
	Username          string `json:"username"`
	ProfilePictureURL string `json:"profile_picture_url"`
}

// GetUserByUsername looks up a user by their host-app username
func (d *HTTPDirectory) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	return d.get(ctx, d.baseURL+"/api/v1/users/"+url.PathEscape(username))
}

// GetUserInfo looks up a user by wallet address
func (d *HTTPDirectory) GetUserInfo(ctx context.Context, address string) (*core.User, error) {
	return d.get(ctx, d.baseURL+"/api/v1/addresses/"+url.PathEscape(address))
}

// get fetches a user record, retrying transient failures with
// exponential backoff (500ms, 1s).
func (d *HTTPDirectory) get(ctx context.Context, endpoint string) (*core.User, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * 500 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		user, err := d.fetch(ctx, endpoint)
		if err == nil {
			return user, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("directory lookup failed after %d attempts: %w", maxRetries+1, lastErr)
}

func (d *HTTPDirectory) fetch(ctx context.Context, endpoint string) (*core.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build directory request: %w", err)
	}

	res, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("directory http %d", res.StatusCode)
	}

	var rec userRecord
	if err := json.NewDecoder(res.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode directory response: %w", err)
	}

	return &core.User{
		Address:           rec.WalletAddress,
		Username:          rec.Username,
		ProfilePictureURL: rec.ProfilePictureURL,
	}, nil
}
