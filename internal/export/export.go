// Package export writes the ordered item list as JSON, YAML or TOML.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/lineup/internal/types"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseFormat accepts json, yaml/yml and toml, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unsupported export format %q (use json, yaml or toml)", s)
}

// FormatForPath picks the format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatJSON
	}
	return f
}

// Document is the exported file layout.
type Document struct {
	ExportedAt time.Time `json:"exported_at" yaml:"exported_at" toml:"exported_at"`
	Backend    string    `json:"backend,omitempty" yaml:"backend,omitempty" toml:"backend,omitempty"`
	Count      int       `json:"count" yaml:"count" toml:"count"`
	Items      []Entry   `json:"items" yaml:"items" toml:"items"`
}

// Entry is one exported item. Position is 1-based list order.
type Entry struct {
	Position    int        `json:"position" yaml:"position" toml:"position"`
	ID          string     `json:"id" yaml:"id" toml:"id"`
	Rank        string     `json:"rank" yaml:"rank" toml:"rank"`
	Partition   string     `json:"partition" yaml:"partition" toml:"partition"`
	Title       string     `json:"title" yaml:"title" toml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Category    string     `json:"category,omitempty" yaml:"category,omitempty" toml:"category,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty" yaml:"deadline,omitempty" toml:"deadline,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty" toml:"completed_at,omitempty"`
}

// NewDocument builds a Document from items in list order.
func NewDocument(items []*types.Item, backend string, now time.Time) *Document {
	doc := &Document{
		ExportedAt: now.UTC(),
		Backend:    backend,
		Count:      len(items),
		Items:      make([]Entry, 0, len(items)),
	}
	for i, it := range items {
		doc.Items = append(doc.Items, Entry{
			Position:    i + 1,
			ID:          it.ID,
			Rank:        it.Rank,
			Partition:   string(it.Partition),
			Title:       it.Title,
			Description: it.Description,
			Category:    it.Category,
			Deadline:    it.Deadline,
			CompletedAt: it.CompletedAt,
		})
	}
	return doc
}

// Encode writes doc to w in the given format.
func Encode(w io.Writer, doc *Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to close yaml encoder: %w", err)
		}
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(doc); err != nil {
			return fmt.Errorf("failed to encode toml: %w", err)
		}
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
	return nil
}

// Decode reads a Document previously written by Encode.
func Decode(r io.Reader, format Format) (*Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&doc)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	case FormatTOML:
		_, err = toml.NewDecoder(r).Decode(&doc)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", format, err)
	}
	return &doc, nil
}

// WriteFile encodes doc to path atomically: it writes a temp file in the
// same directory and renames it over path.
func WriteFile(path string, doc *Document, format Format) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tempFile, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp export file: %w", err)
	}
	tempPath := tempFile.Name()
	defer func() {
		_ = tempFile.Close()    // Best effort: may already be closed before rename
		_ = os.Remove(tempPath) // Best effort: may already be renamed
	}()

	if err := Encode(tempFile, doc, format); err != nil {
		return err
	}

	// Close before rename (required on Windows)
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp export file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to replace export file: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to set export permissions: %v\n", err)
	}
	return nil
}
