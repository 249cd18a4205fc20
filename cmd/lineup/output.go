package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/steveyegge/lineup/internal/debug"
	"github.com/steveyegge/lineup/internal/types"
)

// outputJSON writes v to w as indented JSON.
func outputJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// printItemResult prints the outcome of a single-item command.
func (a *app) printItemResult(w io.Writer, verb string, it *types.Item) error {
	if a.jsonOutput {
		return outputJSON(w, it)
	}
	if debug.IsQuiet() {
		return nil
	}
	green := color.New(color.FgGreen).SprintFunc()
	_, err := fmt.Fprintf(w, "%s %s %s (%s, rank %s)\n", green("✓"), verb, it.ID, it.Partition, it.Rank)
	return err
}
