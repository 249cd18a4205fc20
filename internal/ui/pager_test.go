package ui

import (
	"bytes"
	"testing"
)

func TestToPagerWritesDirectlyWhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	if err := ToPager(&buf, "line 1\nline 2\n", PagerOptions{NoPager: true}); err != nil {
		t.Fatalf("ToPager: %v", err)
	}
	if buf.String() != "line 1\nline 2\n" {
		t.Errorf("ToPager wrote %q", buf.String())
	}
}

func TestPagerCommand(t *testing.T) {
	t.Setenv("LINEUP_PAGER", "")
	t.Setenv("PAGER", "")
	if got := pagerCommand(); got != "less" {
		t.Errorf("pagerCommand() = %q, want less", got)
	}
	t.Setenv("PAGER", "more")
	if got := pagerCommand(); got != "more" {
		t.Errorf("pagerCommand() = %q, want more", got)
	}
	t.Setenv("LINEUP_PAGER", "less -S")
	if got := pagerCommand(); got != "less -S" {
		t.Errorf("pagerCommand() = %q, want %q", got, "less -S")
	}
}

func TestContentHeight(t *testing.T) {
	tests := map[string]int{"": 0, "a": 1, "a\nb": 2, "a\nb\n": 3}
	for in, want := range tests {
		if got := contentHeight(in); got != want {
			t.Errorf("contentHeight(%q) = %d, want %d", in, got, want)
		}
	}
}
