// Package archive looks up archived snapshots of dead URLs through the
// Wayback availability API. Lookups are best effort: callers get an explicit
// found/not-found answer and decide for themselves to proceed without one.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://archive.org/wayback/available"

type Client struct {
	BaseURL   string
	UserAgent string
	HTTP      *http.Client
}

func New(userAgent string) *Client {
	return &Client{
		BaseURL:   defaultBaseURL,
		UserAgent: userAgent,
		HTTP:      &http.Client{Timeout: 15 * time.Second},
	}
}

type availability struct {
	ArchivedSnapshots struct {
		Closest struct {
			Available bool   `json:"available"`
			URL       string `json:"url"`
			Timestamp string `json:"timestamp"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

// Lookup returns the closest archived snapshot of target, if one exists.
func (c *Client) Lookup(ctx context.Context, target string) (snapshot string, found bool, err error) {
	q := url.Values{}
	q.Set("url", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", false, fmt.Errorf("build availability request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("availability lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("availability lookup: status %s", resp.Status)
	}

	var av availability
	if err := json.NewDecoder(resp.Body).Decode(&av); err != nil {
		return "", false, fmt.Errorf("decode availability response: %w", err)
	}
	closest := av.ArchivedSnapshots.Closest
	if !closest.Available || closest.URL == "" {
		return "", false, nil
	}
	return closest.URL, true, nil
}
