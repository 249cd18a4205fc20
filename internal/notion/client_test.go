package notion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/steveyegge/lineup/internal/storage"
)

func TestNewClient(t *testing.T) {
	client := NewClient("test-token")

	if client.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", client.BaseURL, DefaultBaseURL)
	}
	if client.Token != "test-token" {
		t.Errorf("Token not set correctly")
	}
	if client.Version != DefaultVersion {
		t.Errorf("Version = %q, want %q", client.Version, DefaultVersion)
	}
	if client.HTTPClient == nil {
		t.Error("HTTPClient is nil")
	}
}

func TestClientWithDatabaseID(t *testing.T) {
	base := NewClient("test-token")
	client := base.WithDatabaseID("db-123")

	if client.DatabaseID != "db-123" {
		t.Errorf("DatabaseID = %q, want db-123", client.DatabaseID)
	}
	if base.DatabaseID != "" {
		t.Error("WithDatabaseID must not modify the receiver")
	}
}

func TestClientRequestHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer test-token")
		}
		if got := r.Header.Get("Notion-Version"); got != DefaultVersion {
			t.Errorf("Notion-Version = %q, want %q", got, DefaultVersion)
		}
		if r.Method == http.MethodPatch {
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object": "page", "id": "p1"}`))
	}))
	defer server.Close()

	client := NewClient("test-token").WithBaseURL(server.URL)
	resp, err := client.request(context.Background(), http.MethodPatch, "/pages/p1", map[string]bool{"archived": true})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(resp, &result); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if result["id"] != "p1" {
		t.Errorf("id = %v, want p1", result["id"])
	}
}

func TestClientRequestRetriesRateLimit(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"object":"error","status":429,"code":"rate_limited","message":"slow down"}`))
			return
		}
		w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	client := NewClient("test-token").WithBaseURL(server.URL)
	client.RetryDelay = time.Millisecond

	if _, err := client.request(context.Background(), http.MethodGet, "/test", nil); err != nil {
		t.Fatalf("request failed after retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestClientRequestRateLimitExhausted(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"object":"error","status":429,"code":"rate_limited","message":"slow down"}`))
	}))
	defer server.Close()

	client := NewClient("test-token").WithBaseURL(server.URL)
	client.RetryDelay = time.Millisecond

	_, err := client.request(context.Background(), http.MethodGet, "/test", nil)
	if !IsRateLimited(err) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if attempts != MaxRetries+1 {
		t.Errorf("attempts = %d, want %d", attempts, MaxRetries+1)
	}
}

func TestClientRequestErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		conflict bool
		notFound bool
	}{
		{"conflict", http.StatusConflict, `{"object":"error","status":409,"code":"conflict_error","message":"Conflict occurred while saving."}`, true, false},
		{"not found", http.StatusNotFound, `{"object":"error","status":404,"code":"object_not_found","message":"Could not find page"}`, false, true},
		{"validation", http.StatusBadRequest, `{"object":"error","status":400,"code":"validation_error","message":"bad property"}`, false, false},
		{"non-json", http.StatusBadGateway, `upstream down`, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts++
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient("test-token").WithBaseURL(server.URL)
			_, err := client.request(context.Background(), http.MethodGet, "/pages/x", nil)
			if err == nil {
				t.Fatal("expected error")
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if got := storage.IsConflict(err); got != tt.conflict {
				t.Errorf("IsConflict = %v, want %v", got, tt.conflict)
			}
			if got := storage.IsNotFound(err); got != tt.notFound {
				t.Errorf("IsNotFound = %v, want %v", got, tt.notFound)
			}
			if attempts != 1 {
				t.Errorf("attempts = %d, want 1 (only 429 is retried)", attempts)
			}
		})
	}
}

func TestCreatePageRequiresDatabase(t *testing.T) {
	client := NewClient("test-token")
	if _, err := client.CreatePage(context.Background(), nil); err == nil {
		t.Error("expected error without database ID")
	}
	if _, err := client.QueryDatabase(context.Background(), QueryRequest{}); err == nil {
		t.Error("expected error without database ID")
	}
}

func TestQueryDatabasePaginates(t *testing.T) {
	fake, client := newFakeNotion(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := client.CreatePage(ctx, map[string]interface{}{
			"Title": map[string]interface{}{"title": textRuns("item")},
		}); err != nil {
			t.Fatalf("CreatePage: %v", err)
		}
	}

	pages, err := client.QueryDatabase(ctx, QueryRequest{})
	if err != nil {
		t.Fatalf("QueryDatabase: %v", err)
	}
	if len(pages) != 5 {
		t.Fatalf("got %d pages, want 5", len(pages))
	}

	queries := 0
	for _, r := range fake.requestLog() {
		if r == "POST /databases/db-1/query" {
			queries++
		}
	}
	if queries != 3 {
		t.Errorf("query requests = %d, want 3 (page size 2)", queries)
	}
}

func TestArchivePage(t *testing.T) {
	_, client := newFakeNotion(t)
	ctx := context.Background()

	page, err := client.CreatePage(ctx, map[string]interface{}{})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if err := client.ArchivePage(ctx, page.ID); err != nil {
		t.Fatalf("ArchivePage: %v", err)
	}
	got, err := client.RetrievePage(ctx, page.ID)
	if err != nil {
		t.Fatalf("RetrievePage: %v", err)
	}
	if !got.Archived {
		t.Error("page should be archived")
	}
}

func TestPropertyPlainText(t *testing.T) {
	title := Property{Type: "title", Title: []RichText{{PlainText: "Buy "}, {Text: &Text{Content: "milk"}}}}
	if got := title.PlainText(); got != "Buy milk" {
		t.Errorf("PlainText() = %q, want %q", got, "Buy milk")
	}
	rt := Property{Type: "rich_text", RichText: []RichText{{PlainText: "5000000000"}}}
	if got := rt.PlainText(); got != "5000000000" {
		t.Errorf("PlainText() = %q", got)
	}
}
