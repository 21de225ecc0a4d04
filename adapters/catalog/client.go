// Package catalog fetches the events listing from the catalog API. The
// listing itself is presentation data; this client only gives it a typed,
// retried fetch.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const maxRetries = 2

// Selection is one priced outcome of a market
type Selection struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Odds decimal.Decimal `json:"odds"`
}

// Market groups the selections of one bet type
type Market struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Selections []Selection `json:"selections"`
}

// Event is one listed sports event
type Event struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	SportType   string   `json:"sport_type"`
	Competition string   `json:"competition"`
	StartTime   string   `json:"start_time"`
	Status      string   `json:"status"`
	MainMarkets []Market `json:"main_markets"`
}

// EventsResponse is the catalog's listing payload
type EventsResponse struct {
	Events []Event `json:"events"`
}

// Filter narrows the featured listing
type Filter struct {
	DateFrom string
	DateTo   string
	Limit    int
	Page     int
}

// Client fetches event listings with bounded retries
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a catalog client
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// FeaturedEvents fetches the featured football listing. Transient
// failures are retried with exponential backoff (1s, 2s).
func (c *Client) FeaturedEvents(ctx context.Context, filter *Filter) (*EventsResponse, error) {
	q := url.Values{}
	q.Set("sport_type", "football")
	if filter != nil {
		if filter.DateFrom != "" {
			q.Set("date_from", filter.DateFrom)
		}
		if filter.DateTo != "" {
			q.Set("date_to", filter.DateTo)
		}
		if filter.Limit > 0 {
			q.Set("limit", strconv.Itoa(filter.Limit))
		}
		if filter.Page > 0 {
			q.Set("page", strconv.Itoa(filter.Page))
		}
	}

	endpoint := c.baseURL + "/events/featured?" + q.Encode()

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		out, err := c.fetch(ctx, endpoint)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("failed to fetch events after %d attempts: %w", maxRetries+1, lastErr)
}

func (c *Client) fetch(ctx context.Context, endpoint string) (*EventsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build events request: %w", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("events request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("events http %d", res.StatusCode)
	}

	var out EventsResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode events response: %w", err)
	}

	return &out, nil
}
