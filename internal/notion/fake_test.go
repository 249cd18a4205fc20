package notion

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeNotion is a minimal in-process stand-in for the pages and database
// query endpoints.
type fakeNotion struct {
	t      *testing.T
	mu     sync.Mutex
	pages  map[string]*Page
	order  []string
	nextID int

	pageSize     int
	rateLimit    int // 429 responses to send before serving
	conflictOn   map[string]int
	requests     []string
	lastQueryRaw []byte
}

func newFakeNotion(t *testing.T) (*fakeNotion, *Client) {
	t.Helper()
	f := &fakeNotion{t: t, pages: map[string]*Page{}, conflictOn: map[string]int{}, pageSize: 2}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	c := NewClient("secret-token").WithBaseURL(srv.URL).WithDatabaseID("db-1")
	c.RetryDelay = time.Millisecond
	return f, c
}

func (f *fakeNotion) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	if r.Header.Get("Authorization") != "Bearer secret-token" {
		f.fail(w, http.StatusUnauthorized, "unauthorized", "bad token")
		return
	}
	if r.Header.Get("Notion-Version") == "" {
		f.fail(w, http.StatusBadRequest, "missing_version", "Notion-Version header required")
		return
	}
	if f.rateLimit > 0 {
		f.rateLimit--
		f.fail(w, http.StatusTooManyRequests, "rate_limited", "slow down")
		return
	}

	var body map[string]interface{}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/pages":
		f.create(w, body)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/pages/"):
		f.retrieve(w, strings.TrimPrefix(r.URL.Path, "/pages/"))
	case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/pages/"):
		f.update(w, strings.TrimPrefix(r.URL.Path, "/pages/"), body)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/query"):
		f.lastQueryRaw, _ = json.Marshal(body)
		f.query(w, body)
	default:
		f.fail(w, http.StatusNotFound, "invalid_request_url", r.URL.Path)
	}
}

func (f *fakeNotion) create(w http.ResponseWriter, body map[string]interface{}) {
	f.nextID++
	id := fmt.Sprintf("page-%d", f.nextID)
	page := &Page{
		Object:      "page",
		ID:          id,
		CreatedTime: time.Date(2024, 1, 1, 0, 0, f.nextID, 0, time.UTC),
		Properties:  map[string]Property{},
	}
	applyProperties(page, body["properties"])
	f.pages[id] = page
	f.order = append(f.order, id)
	f.write(w, page)
}

func (f *fakeNotion) retrieve(w http.ResponseWriter, id string) {
	page, ok := f.pages[id]
	if !ok {
		f.fail(w, http.StatusNotFound, "object_not_found", "no page "+id)
		return
	}
	f.write(w, page)
}

func (f *fakeNotion) update(w http.ResponseWriter, id string, body map[string]interface{}) {
	page, ok := f.pages[id]
	if !ok {
		f.fail(w, http.StatusNotFound, "object_not_found", "no page "+id)
		return
	}
	if f.conflictOn[id] > 0 {
		f.conflictOn[id]--
		f.fail(w, http.StatusConflict, "conflict_error", "transaction conflict")
		return
	}
	if archived, ok := body["archived"].(bool); ok {
		page.Archived = archived
	}
	applyProperties(page, body["properties"])
	f.write(w, page)
}

// query pages through every page in creation order, honouring only the
// page size and cursor. Filtering and sorting are left to the store.
func (f *fakeNotion) query(w http.ResponseWriter, body map[string]interface{}) {
	start := 0
	if c, ok := body["start_cursor"].(string); ok && c != "" {
		start, _ = strconv.Atoi(c)
	}
	end := start + f.pageSize
	if end > len(f.order) {
		end = len(f.order)
	}

	resp := QueryResponse{Object: "list", Results: []Page{}}
	for _, id := range f.order[start:end] {
		resp.Results = append(resp.Results, *f.pages[id])
	}
	if end < len(f.order) {
		next := strconv.Itoa(end)
		resp.HasMore = true
		resp.NextCursor = &next
	}
	f.write(w, resp)
}

func (f *fakeNotion) write(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		f.t.Errorf("encode response: %v", err)
	}
}

func (f *fakeNotion) fail(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"object": "error", "status": status, "code": code, "message": msg,
	})
}

func (f *fakeNotion) requestLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeNotion) sortedPageIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.pages))
	for id := range f.pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// applyProperties converts a request payload into stored property values.
func applyProperties(page *Page, raw interface{}) {
	props, _ := raw.(map[string]interface{})
	for name, v := range props {
		val, _ := v.(map[string]interface{})
		switch {
		case val["title"] != nil:
			page.Properties[name] = Property{Type: "title", Title: runs(val["title"])}
		case val["rich_text"] != nil:
			page.Properties[name] = Property{Type: "rich_text", RichText: runs(val["rich_text"])}
		case hasKey(val, "checkbox"):
			b, _ := val["checkbox"].(bool)
			page.Properties[name] = Property{Type: "checkbox", Checkbox: b}
		case hasKey(val, "date"):
			p := Property{Type: "date"}
			if d, ok := val["date"].(map[string]interface{}); ok {
				start, _ := d["start"].(string)
				p.Date = &Date{Start: start}
			}
			page.Properties[name] = p
		}
	}
}

func runs(raw interface{}) []RichText {
	items, _ := raw.([]interface{})
	out := []RichText{}
	for _, it := range items {
		m, _ := it.(map[string]interface{})
		if text, ok := m["text"].(map[string]interface{}); ok {
			content, _ := text["content"].(string)
			out = append(out, RichText{Type: "text", PlainText: content, Text: &Text{Content: content}})
			continue
		}
		if mention, ok := m["mention"].(map[string]interface{}); ok {
			pageRef, _ := mention["page"].(map[string]interface{})
			id, _ := pageRef["id"].(string)
			out = append(out, RichText{
				Type:      "mention",
				PlainText: "Groceries",
				Mention:   &Mention{Type: "page", Page: &PageRef{ID: id}},
			})
		}
	}
	return out
}

func hasKey(m map[string]interface{}, k string) bool {
	_, ok := m[k]
	return ok
}
