// Package notion talks to a Notion database over its REST API and adapts it
// to storage.Store. Each item is one page; rank, completion and the other
// record fields are page properties.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/steveyegge/lineup/internal/debug"
)

const (
	DefaultBaseURL  = "https://api.notion.com/v1"
	DefaultVersion  = "2022-06-28"
	DefaultTimeout  = 30 * time.Second
	MaxRetries      = 3
	RetryDelay      = time.Second
	DefaultPageSize = 100
)

// Client provides methods to interact with the Notion REST API.
type Client struct {
	BaseURL    string
	Token      string
	DatabaseID string
	Version    string
	HTTPClient *http.Client

	// RetryDelay is the first wait after a rate-limited response. It doubles
	// on each further 429.
	RetryDelay time.Duration
}

// NewClient creates a new Notion client.
func NewClient(token string) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		Token:   token,
		Version: DefaultVersion,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		RetryDelay: RetryDelay,
	}
}

// WithDatabaseID returns a new client configured for a specific database.
func (c *Client) WithDatabaseID(databaseID string) *Client {
	clone := *c
	clone.DatabaseID = databaseID
	return &clone
}

// WithBaseURL returns a new client that sends requests to baseURL.
func (c *Client) WithBaseURL(baseURL string) *Client {
	clone := *c
	clone.BaseURL = baseURL
	return &clone
}

// request sends an HTTP request and returns the response body. Rate-limited
// responses are retried with exponential delay; every other failure status
// is returned as an *APIError without retry.
func (c *Client) request(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	var respBody []byte
	op := func() error {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.Token)
		req.Header.Set("Notion-Version", c.Version)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("request failed: %w", err))
		}
		data, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to read response: %w", err))
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := parseAPIError(resp.StatusCode, data)
			if resp.StatusCode == http.StatusTooManyRequests {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}
		respBody = data
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.RetryDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, MaxRetries), ctx)

	notify := func(err error, delay time.Duration) {
		debug.Logger().Debug("notion rate limited", "method", method, "path", path, "delay", delay)
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return respBody, nil
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = string(body)
	}
	apiErr.StatusCode = status
	return apiErr
}

// CreatePage creates a page in the configured database.
func (c *Client) CreatePage(ctx context.Context, properties map[string]interface{}) (*Page, error) {
	if c.DatabaseID == "" {
		return nil, fmt.Errorf("database ID not configured")
	}
	body := map[string]interface{}{
		"parent":     map[string]string{"database_id": c.DatabaseID},
		"properties": properties,
	}
	resp, err := c.request(ctx, http.MethodPost, "/pages", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return decodePage(resp)
}

// RetrievePage fetches a single page.
func (c *Client) RetrievePage(ctx context.Context, pageID string) (*Page, error) {
	resp, err := c.request(ctx, http.MethodGet, "/pages/"+pageID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve page %s: %w", pageID, err)
	}
	return decodePage(resp)
}

// UpdatePage assigns properties on an existing page.
func (c *Client) UpdatePage(ctx context.Context, pageID string, properties map[string]interface{}) (*Page, error) {
	body := map[string]interface{}{"properties": properties}
	resp, err := c.request(ctx, http.MethodPatch, "/pages/"+pageID, body)
	if err != nil {
		return nil, fmt.Errorf("failed to update page %s: %w", pageID, err)
	}
	return decodePage(resp)
}

// ArchivePage moves a page to the trash. The API has no hard delete.
func (c *Client) ArchivePage(ctx context.Context, pageID string) error {
	body := map[string]interface{}{"archived": true}
	if _, err := c.request(ctx, http.MethodPatch, "/pages/"+pageID, body); err != nil {
		return fmt.Errorf("failed to archive page %s: %w", pageID, err)
	}
	return nil
}

// QueryDatabase runs a query against the configured database and follows
// cursors until every result has been fetched.
func (c *Client) QueryDatabase(ctx context.Context, query QueryRequest) ([]Page, error) {
	if c.DatabaseID == "" {
		return nil, fmt.Errorf("database ID not configured")
	}
	if query.PageSize == 0 {
		query.PageSize = DefaultPageSize
	}

	path := fmt.Sprintf("/databases/%s/query", c.DatabaseID)
	var all []Page
	for {
		resp, err := c.request(ctx, http.MethodPost, path, query)
		if err != nil {
			return nil, fmt.Errorf("failed to query database: %w", err)
		}
		var page QueryResponse
		if err := json.Unmarshal(resp, &page); err != nil {
			return nil, fmt.Errorf("failed to parse query results: %w", err)
		}
		all = append(all, page.Results...)

		if !page.HasMore || page.NextCursor == nil || *page.NextCursor == "" {
			break
		}
		query.StartCursor = *page.NextCursor
	}
	return all, nil
}

func decodePage(data []byte) (*Page, error) {
	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return &page, nil
}
