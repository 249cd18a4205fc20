package notion

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/steveyegge/lineup/internal/storage"
)

// Page is a database row as returned by the API.
type Page struct {
	Object         string              `json:"object"`
	ID             string              `json:"id"`
	CreatedTime    time.Time           `json:"created_time"`
	LastEditedTime time.Time           `json:"last_edited_time"`
	Archived       bool                `json:"archived"`
	URL            string              `json:"url,omitempty"`
	Properties     map[string]Property `json:"properties"`
}

// Property is a typed page property value. Only the member matching Type is
// populated.
type Property struct {
	ID       string     `json:"id,omitempty"`
	Type     string     `json:"type"`
	Title    []RichText `json:"title,omitempty"`
	RichText []RichText `json:"rich_text,omitempty"`
	Checkbox bool       `json:"checkbox,omitempty"`
	Number   *float64   `json:"number,omitempty"`
	Date     *Date      `json:"date,omitempty"`
}

// PlainText joins the plain text of a title or rich_text property.
func (p Property) PlainText() string {
	parts := p.RichText
	if p.Type == "title" {
		parts = p.Title
	}
	var b strings.Builder
	for _, rt := range parts {
		switch {
		case rt.PlainText != "":
			b.WriteString(rt.PlainText)
		case rt.Text != nil:
			b.WriteString(rt.Text.Content)
		}
	}
	return b.String()
}

// RichText is one run of formatted text.
type RichText struct {
	Type      string   `json:"type,omitempty"`
	PlainText string   `json:"plain_text,omitempty"`
	Text      *Text    `json:"text,omitempty"`
	Mention   *Mention `json:"mention,omitempty"`
}

// Text is the content of a text run.
type Text struct {
	Content string `json:"content"`
}

// Mention is an inline reference, used by the Category property to point at
// a category page.
type Mention struct {
	Type string   `json:"type"`
	Page *PageRef `json:"page,omitempty"`
}

// PageRef identifies a page.
type PageRef struct {
	ID string `json:"id"`
}

// Date is a date property value.
type Date struct {
	Start string  `json:"start"`
	End   *string `json:"end,omitempty"`
}

// QueryRequest is the body of a database query.
type QueryRequest struct {
	Filter      interface{} `json:"filter,omitempty"`
	Sorts       []Sort      `json:"sorts,omitempty"`
	StartCursor string      `json:"start_cursor,omitempty"`
	PageSize    int         `json:"page_size,omitempty"`
}

// Sort orders query results by a property or a page timestamp.
type Sort struct {
	Property  string `json:"property,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Direction string `json:"direction"`
}

// Sort directions
const (
	Ascending  = "ascending"
	Descending = "descending"
)

// QueryResponse is one page of query results.
type QueryResponse struct {
	Object     string  `json:"object"`
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// APIError is an error response from the API.
type APIError struct {
	StatusCode int    `json:"status"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("notion API error %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("notion API error %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps conflict and not-found responses onto the storage sentinels.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusConflict || e.Code == "conflict_error":
		return storage.ErrConflict
	case e.StatusCode == http.StatusNotFound || e.Code == "object_not_found":
		return storage.ErrNotFound
	}
	return nil
}

// IsRateLimited reports whether err is a 429 response.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}
