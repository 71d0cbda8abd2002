package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestFrameHeader(t *testing.T) {
	f := NewFrame(80, 24)

	h := f.Header(0, "Ada Lv 3")
	if strings.Contains(h, "new") {
		t.Errorf("header without unread should have no badge: %q", h)
	}
	if !strings.Contains(h, "Ada Lv 3") {
		t.Errorf("header missing hero summary: %q", h)
	}
	if w := lipgloss.Width(h); w != 80 {
		t.Errorf("header width = %d, want 80", w)
	}

	if h := f.Header(4, ""); !strings.Contains(h, "4 new") {
		t.Errorf("header missing unread badge: %q", h)
	}
}

func TestFrameStatusBarPrefersNotice(t *testing.T) {
	f := NewFrame(30, 10)
	bar := f.StatusBar("q quit | ? help | a add | d done | / filter", "task added")
	if !strings.Contains(bar, "task added") {
		t.Errorf("status bar dropped the notice: %q", bar)
	}
	if w := lipgloss.Width(bar); w > 30 {
		t.Errorf("status bar width = %d, want <= 30", w)
	}
}

func TestContentHeight(t *testing.T) {
	if got := NewFrame(80, 24).ContentHeight(); got != 22 {
		t.Errorf("ContentHeight = %d, want 22", got)
	}
	if got := NewFrame(80, 1).ContentHeight(); got != 0 {
		t.Errorf("ContentHeight = %d, want 0", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 6, "hello…"},
		{"hello", 1, "."},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
