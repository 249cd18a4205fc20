// Package config loads lineup settings from config files, environment
// variables and flags through a package-level viper instance.
//
// Precedence, highest first: values set with Set (flags), LINEUP_* env vars,
// the project config (.lineup/config.yaml found walking up from the working
// directory), the user config (<user config dir>/lineup/config.yaml), then
// defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ProjectDirName is the per-project settings directory.
const ProjectDirName = ".lineup"

// ConfigFileName is the settings file inside ProjectDirName.
const ConfigFileName = "config.yaml"

var v *viper.Viper

// Initialize sets up the viper configuration singleton.
// Should be called once at application startup.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix("LINEUP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	// The hosted database credentials keep their conventional names.
	_ = v.BindEnv("notion.token", "LINEUP_NOTION_TOKEN", "NOTION_TOKEN")
	_ = v.BindEnv("notion.database-id", "LINEUP_NOTION_DATABASE_ID", "NOTION_DATABASE_ID")
	_ = v.BindEnv("otel.endpoint", "LINEUP_OTEL_ENDPOINT",
		"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")

	for _, k := range Keys {
		if k.Default != nil {
			v.SetDefault(k.Key, k.Default)
		}
	}

	if path := findConfigFile(); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("error reading config file %s: %w", path, err)
			}
		}
	}
	return nil
}

// ResetForTesting clears the singleton so the next call re-initializes.
func ResetForTesting() {
	v = nil
}

// findConfigFile returns the project config if one exists above the working
// directory, else the user config if it exists, else "".
func findConfigFile() string {
	if path, err := FindProjectConfig(); err == nil {
		return path
	}
	if dir, err := os.UserConfigDir(); err == nil {
		path := filepath.Join(dir, "lineup", ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// FindProjectConfig walks up from the working directory looking for
// .lineup/config.yaml.
func FindProjectConfig() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	for dir := cwd; ; dir = filepath.Dir(dir) {
		path := filepath.Join(dir, ProjectDirName, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		if dir == filepath.Dir(dir) {
			break
		}
	}
	return "", fmt.Errorf("no %s/%s found in current directory or parents", ProjectDirName, ConfigFileName)
}

// ConfigFileUsed returns the path of the loaded config file, or "".
func ConfigFileUsed() string {
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}

// GetString retrieves a string configuration value.
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool retrieves a boolean configuration value.
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt retrieves an integer configuration value.
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// GetDuration retrieves a duration configuration value.
func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// Set overrides a value for the rest of the process. Flags use this.
func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}

// AllSettings returns every resolved setting as a nested map.
func AllSettings() map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v.AllSettings()
}

// Backend returns the configured store backend name.
func Backend() string {
	return strings.ToLower(GetString("backend"))
}

// DBPath returns the SQLite database path, defaulting to .lineup/lineup.db
// next to the loaded project config or in the working directory.
func DBPath() string {
	if p := GetString("db"); p != "" {
		return p
	}
	if used := ConfigFileUsed(); used != "" && filepath.Base(filepath.Dir(used)) == ProjectDirName {
		return filepath.Join(filepath.Dir(used), "lineup.db")
	}
	return filepath.Join(ProjectDirName, "lineup.db")
}

// LogFormat returns the log formatter name (text, json or logfmt).
func LogFormat() string {
	return GetString("log.format")
}

// NotionSettings holds the hosted database connection settings.
type NotionSettings struct {
	Token      string
	DatabaseID string
	BaseURL    string

	TitleProperty       string
	RankProperty        string
	StatusProperty      string
	CompletedProperty   string
	DescriptionProperty string
	CategoryProperty    string
	DeadlineProperty    string
}

// Notion returns the hosted database settings.
func Notion() NotionSettings {
	return NotionSettings{
		Token:               GetString("notion.token"),
		DatabaseID:          GetString("notion.database-id"),
		BaseURL:             GetString("notion.base-url"),
		TitleProperty:       GetString("notion.properties.title"),
		RankProperty:        GetString("notion.properties.rank"),
		StatusProperty:      GetString("notion.properties.status"),
		CompletedProperty:   GetString("notion.properties.completed"),
		DescriptionProperty: GetString("notion.properties.description"),
		CategoryProperty:    GetString("notion.properties.category"),
		DeadlineProperty:    GetString("notion.properties.deadline"),
	}
}

// TelemetrySettings mirrors the otel.* keys.
type TelemetrySettings struct {
	Enabled  bool
	Stdout   bool
	Endpoint string
	Interval time.Duration
}

// Telemetry returns the otel.* settings.
func Telemetry() TelemetrySettings {
	return TelemetrySettings{
		Enabled:  GetBool("otel.enabled"),
		Stdout:   GetBool("otel.stdout"),
		Endpoint: GetString("otel.endpoint"),
		Interval: GetDuration("otel.interval"),
	}
}

// RetrySettings configures the conflict-safe writer.
type RetrySettings struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Retry returns the writer retry settings.
func Retry() RetrySettings {
	return RetrySettings{
		MaxAttempts: GetInt("retry.max-attempts"),
		BaseDelay:   GetDuration("retry.base-delay"),
	}
}
