// Package debug provides leveled logging for lineup.
//
// Output goes through a charmbracelet/log logger on stderr. Debug messages are
// shown when LINEUP_DEBUG is set or verbose mode is on; quiet mode suppresses
// normal informational output.
package debug

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	enabled     = os.Getenv("LINEUP_DEBUG") != ""
	verboseMode = false
	quietMode   = false

	loggerMu sync.Mutex
	logger   = newLogger(os.Stderr, log.TextFormatter)
)

func newLogger(w io.Writer, f log.Formatter) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		Formatter: f,
		Prefix:    "lineup",
	})
	l.SetLevel(currentLevel())
	return l
}

func currentLevel() log.Level {
	if enabled || verboseMode {
		return log.DebugLevel
	}
	if quietMode {
		return log.WarnLevel
	}
	return log.InfoLevel
}

func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables verbose/debug output
func SetVerbose(verbose bool) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	verboseMode = verbose
	logger.SetLevel(currentLevel())
}

// SetQuiet enables quiet mode (suppress non-essential output)
func SetQuiet(quiet bool) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	quietMode = quiet
	logger.SetLevel(currentLevel())
}

// IsQuiet returns true if quiet mode is enabled
func IsQuiet() bool {
	return quietMode
}

// SetOutput redirects the logger. format is text, json or logfmt.
func SetOutput(w io.Writer, format string) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = newLogger(w, ParseFormatter(format))
}

// Logger returns the shared structured logger.
func Logger() *log.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	return logger
}

// ParseFormatter maps a config value to a charmbracelet/log formatter.
func ParseFormatter(format string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// Logf writes a formatted debug message when debug output is enabled.
func Logf(format string, args ...interface{}) {
	if enabled || verboseMode {
		Logger().Debug(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
	}
}

// PrintNormal prints output unless quiet mode is enabled
// Use this for normal informational output that should be suppressed in quiet mode
func PrintNormal(format string, args ...interface{}) {
	if !quietMode {
		fmt.Printf(format, args...)
	}
}

// PrintlnNormal prints a line unless quiet mode is enabled
func PrintlnNormal(args ...interface{}) {
	if !quietMode {
		fmt.Println(args...)
	}
}
