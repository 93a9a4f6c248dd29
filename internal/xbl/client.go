// Package xbl is a minimal client for the OpenXBL API (https://xbl.io).
// Responses are kept as order-preserving documents because the API owns their
// shape; only the fields the merge step needs are ever interpreted.
package xbl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/voxbl/friendsync/internal/document"
)

const defaultBaseURL = "https://xbl.io/api/v2"

// Client calls the OpenXBL read endpoints. Both fetches are single batched
// requests; the API accepts a comma-separated identifier list in the path.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an OpenXBL client. baseURL may be empty for the default.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Profiles fetches the profile documents for the given identifiers in one
// request. The API wraps them in a "people" array.
func (c *Client) Profiles(ctx context.Context, xuids []string) ([]*document.Document, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/account/%s", c.baseURL, strings.Join(xuids, ",")))
	if err != nil {
		return nil, fmt.Errorf("profile fetch: %w", err)
	}

	var wrapper struct {
		People json.RawMessage `json:"people"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("profile fetch: parse response: %w", err)
	}
	if len(wrapper.People) == 0 {
		return []*document.Document{}, nil
	}

	docs, err := document.ParseList(wrapper.People)
	if err != nil {
		return nil, fmt.Errorf("profile fetch: %w", err)
	}
	return docs, nil
}

// Presence fetches the presence documents for the given identifiers in one
// request. The response is a bare array.
func (c *Client) Presence(ctx context.Context, xuids []string) ([]*document.Document, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/%s/presence", c.baseURL, strings.Join(xuids, ",")))
	if err != nil {
		return nil, fmt.Errorf("presence fetch: %w", err)
	}

	docs, err := document.ParseList(body)
	if err != nil {
		return nil, fmt.Errorf("presence fetch: %w", err)
	}
	return docs, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-authorization", c.apiKey)
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("GET %s failed with status %d: %s", url, resp.StatusCode, truncate(body, 512))
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
