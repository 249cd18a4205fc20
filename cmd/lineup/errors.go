package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	errorPrefix = color.New(color.FgRed, color.Bold).SprintFunc()
	warnPrefix  = color.New(color.FgYellow).SprintFunc()
)

// FatalError writes an error message to stderr and exits with code 1.
func FatalError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s "+format+"\n", append([]interface{}{errorPrefix("Error:")}, args...)...)
	os.Exit(1)
}

// FatalErrorWithHint writes an error message with a hint to stderr and exits.
func FatalErrorWithHint(message, hint string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorPrefix("Error:"), message)
	fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	os.Exit(1)
}

// WarnError writes a warning message to stderr and returns.
func WarnError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s "+format+"\n", append([]interface{}{warnPrefix("Warning:")}, args...)...)
}
