package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultFetchTimeout bounds a single rate fetch.
const DefaultFetchTimeout = 8 * time.Second

// Client fetches rate snapshots from an external JSON rate source.
// The source takes the base code and comma-joined target codes as query
// parameters and answers with an echoed base, an as-of date string and a
// rates object. No retries: the caller decides whether to degrade.
type Client struct {
	url    string
	client *http.Client
}

// NewClient initializes a rate source client for the given endpoint URL.
func NewClient(rawURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Client{
		url:    rawURL,
		client: &http.Client{Timeout: timeout},
	}
}

type ratesPayload struct {
	Base  string                 `json:"base"`
	Date  string                 `json:"date"`
	Rates map[string]json.Number `json:"rates"`
}

// Fetch obtains a rate snapshot for base against symbols. Every failure
// mode (transport, status, payload shape, unparsable numbers) reports
// ErrRateUnavailable.
func (c *Client) Fetch(ctx context.Context, base string, symbols []string) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: build request: %v", ErrRateUnavailable, err)
	}

	q := url.Values{}
	q.Set("from", base)
	q.Set("to", strings.Join(symbols, ","))
	req.URL.RawQuery = q.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Snapshot{}, fmt.Errorf("%w: unexpected status %d", ErrRateUnavailable, resp.StatusCode)
	}

	var payload ratesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decode payload: %v", ErrRateUnavailable, err)
	}
	if payload.Rates == nil {
		return Snapshot{}, fmt.Errorf("%w: payload has no rates", ErrRateUnavailable)
	}

	rates := make(map[string]decimal.Decimal, len(payload.Rates))
	for code, num := range payload.Rates {
		rate, err := decimal.NewFromString(num.String())
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: rate %s=%q not numeric", ErrRateUnavailable, code, num)
		}
		rates[code] = rate
	}

	snapBase := payload.Base
	if snapBase == "" {
		snapBase = base
	}

	snap := Snapshot{Base: snapBase, Date: payload.Date, Rates: rates}
	slog.DebugContext(ctx, "Fetched rate snapshot",
		"base", snap.Base,
		"date", snap.Date,
		"symbols", strings.Join(symbols, ","))
	return snap, nil
}
