package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Key describes a configuration key.
type Key struct {
	Key         string      // Full key name (e.g., "retry.base-delay")
	Description string      // Human-readable description
	EnvVar      string      // Primary environment variable
	Default     interface{} // Default value (nil = no default)
	Secret      bool        // If true, value is never written to config files
	Validate    func(string) error
}

// Keys defines every recognised configuration key.
var Keys = []Key{
	{
		Key:         "backend",
		Description: "Record store: memory, sqlite or notion",
		EnvVar:      "LINEUP_BACKEND",
		Default:     "sqlite",
		Validate:    validateBackend,
	},
	{
		Key:         "db",
		Description: "SQLite database path (default .lineup/lineup.db)",
		EnvVar:      "LINEUP_DB",
		Default:     "",
	},
	{
		Key:         "actor",
		Description: "Name recorded in debug logs for changes made by this process",
		EnvVar:      "LINEUP_ACTOR",
		Default:     "",
	},
	{
		Key:         "json",
		Description: "Print machine-readable JSON output",
		EnvVar:      "LINEUP_JSON",
		Default:     false,
		Validate:    validateBool,
	},
	{
		Key:         "notion.token",
		Description: "Integration token for the hosted database",
		EnvVar:      "NOTION_TOKEN",
		Secret:      true,
	},
	{
		Key:         "notion.database-id",
		Description: "Id of the hosted database holding the items",
		EnvVar:      "NOTION_DATABASE_ID",
		Default:     "",
	},
	{
		Key:         "notion.base-url",
		Description: "API base URL",
		EnvVar:      "LINEUP_NOTION_BASE_URL",
		Default:     "https://api.notion.com/v1",
	},
	{Key: "notion.properties.title", Description: "Title property name", Default: "Title"},
	{Key: "notion.properties.rank", Description: "Rank property name (rich text)", Default: "Rank"},
	{Key: "notion.properties.status", Description: "Completion checkbox property name", Default: "Status"},
	{Key: "notion.properties.completed", Description: "Completion date property name", Default: "Completed"},
	{Key: "notion.properties.description", Description: "Description property name", Default: "Description"},
	{Key: "notion.properties.category", Description: "Category property name", Default: "Category"},
	{Key: "notion.properties.deadline", Description: "Deadline date property name", Default: "Deadline"},
	{
		Key:         "retry.max-attempts",
		Description: "Update attempts before a write conflict is reported",
		EnvVar:      "LINEUP_RETRY_MAX_ATTEMPTS",
		Default:     3,
		Validate:    validatePositiveInt,
	},
	{
		Key:         "retry.base-delay",
		Description: "Delay unit between conflicting attempts (waits 1x, 2x, ...)",
		EnvVar:      "LINEUP_RETRY_BASE_DELAY",
		Default:     500 * time.Millisecond,
		Validate:    validateDuration,
	},
	{
		Key:         "otel.enabled",
		Description: "Record OpenTelemetry spans and metrics for store operations",
		EnvVar:      "LINEUP_OTEL_ENABLED",
		Default:     false,
		Validate:    validateBool,
	},
	{
		Key:         "otel.stdout",
		Description: "Print spans and metrics to stderr",
		EnvVar:      "LINEUP_OTEL_STDOUT",
		Default:     false,
		Validate:    validateBool,
	},
	{
		Key:         "otel.endpoint",
		Description: "OTLP/HTTP metrics endpoint, e.g. localhost:4318",
		EnvVar:      "OTEL_EXPORTER_OTLP_ENDPOINT",
		Default:     "",
	},
	{
		Key:         "otel.interval",
		Description: "Metric export interval",
		EnvVar:      "LINEUP_OTEL_INTERVAL",
		Default:     30 * time.Second,
		Validate:    validateDuration,
	},
	{
		Key:         "log.format",
		Description: "Log output format: text, json or logfmt",
		EnvVar:      "LINEUP_LOG_FORMAT",
		Default:     "text",
		Validate:    validateLogFormat,
	},
}

var keyMap map[string]*Key

func init() {
	keyMap = make(map[string]*Key, len(Keys))
	for i := range Keys {
		keyMap[Keys[i].Key] = &Keys[i]
	}
}

// LookupKey returns the definition of key, or nil.
func LookupKey(key string) *Key {
	return keyMap[key]
}

// ValidateKey checks that key is known, not secret, and value is acceptable.
func ValidateKey(key, value string) error {
	k := keyMap[key]
	if k == nil {
		known := make([]string, 0, len(Keys))
		for _, k := range Keys {
			known = append(known, k.Key)
		}
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(known, ", "))
	}
	if k.Secret {
		return fmt.Errorf("key %q is a secret and must not be stored in config (set %s instead)", key, k.EnvVar)
	}
	if k.Validate != nil {
		if err := k.Validate(value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
	}
	return nil
}

// Validation helpers

func validateBackend(value string) error {
	switch strings.ToLower(value) {
	case "memory", "sqlite", "notion":
		return nil
	default:
		return fmt.Errorf("must be one of: memory, sqlite, notion; got %q", value)
	}
}

func validateLogFormat(value string) error {
	switch strings.ToLower(value) {
	case "text", "json", "logfmt":
		return nil
	default:
		return fmt.Errorf("must be one of: text, json, logfmt; got %q", value)
	}
}

func validatePositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("must be a number, got %q", value)
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1, got %d", n)
	}
	return nil
}

func validateDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("must be a duration like 500ms or 2s, got %q", value)
	}
	if d < 0 {
		return fmt.Errorf("must not be negative, got %s", d)
	}
	return nil
}

func validateBool(value string) error {
	switch strings.ToLower(value) {
	case "true", "false", "1", "0":
		return nil
	default:
		return fmt.Errorf("must be true or false, got %q", value)
	}
}
