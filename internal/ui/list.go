package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/steveyegge/lineup/internal/types"
)

// ListOptions controls RenderItems.
type ListOptions struct {
	ShowRank bool      // print each item's rank
	Width    int       // wrap width, 0 uses TerminalWidth
	Now      time.Time // reference for overdue deadlines, zero uses time.Now
}

// RenderItems renders items grouped into an open and a done section, keeping
// the order they were given in.
func RenderItems(items []*types.Item, opts ListOptions) string {
	if opts.Width <= 0 {
		opts.Width = TerminalWidth()
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	var open, done []*types.Item
	for _, it := range items {
		if it.IsCompleted() {
			done = append(done, it)
		} else {
			open = append(open, it)
		}
	}

	var b strings.Builder
	writeSection(&b, "To do", open, opts)
	if len(done) > 0 {
		b.WriteString("\n")
		writeSection(&b, "Done", done, opts)
	}
	return b.String()
}

func writeSection(b *strings.Builder, name string, items []*types.Item, opts ListOptions) {
	fmt.Fprintf(b, "%s %s\n", RenderCategory(name), RenderMuted(fmt.Sprintf("(%d)", len(items))))
	if len(items) == 0 {
		b.WriteString(RenderMuted("  nothing here") + "\n")
		return
	}
	for _, it := range items {
		b.WriteString(renderItem(it, opts))
		b.WriteString("\n")
	}
}

func renderItem(it *types.Item, opts ListOptions) string {
	icon := IconOpen
	if it.IsCompleted() {
		icon = IconPass
	}
	if !ShouldUseEmoji() {
		icon = "[ ]"
		if it.IsCompleted() {
			icon = "[x]"
		}
	}

	var meta []string
	if it.Category != "" {
		meta = append(meta, "#"+it.Category)
	}
	if it.Deadline != nil {
		due := "due " + it.Deadline.Format("2006-01-02")
		if !it.IsCompleted() && it.Deadline.Before(opts.Now) {
			due = RenderFail(due + " " + IconWarn)
		} else {
			due = RenderMuted(due)
		}
		meta = append(meta, due)
	}

	prefix := "  " + icon + " "
	if opts.ShowRank {
		prefix += RenderMuted(it.Rank) + " "
	}
	avail := opts.Width - len([]rune(it.ID)) - 12
	if opts.ShowRank {
		avail -= len(it.Rank) + 1
	}
	if avail < 10 {
		avail = 10
	}
	title := TruncateSimple(it.Title, avail)
	if it.IsCompleted() {
		title = render(DoneStyle, title)
	}

	line := prefix + title + " " + RenderMuted(it.ID)
	if len(meta) > 0 {
		line += "  " + strings.Join(meta, " ")
	}
	return line
}
