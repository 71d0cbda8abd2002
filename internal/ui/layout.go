package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/theme"
)

// appTitle is shown at the left of the header.
const appTitle = "TaskGeek"

var unreadBadge = lipgloss.NewStyle().
	Bold(true).
	Foreground(theme.ColorWhite).
	Background(theme.ColorRed).
	Padding(0, 1)

// Frame splits the terminal into a one-line header, the active view and a
// one-line status bar.
type Frame struct {
	Width  int
	Height int
}

// NewFrame creates a Frame for the given terminal size.
func NewFrame(width, height int) Frame {
	return Frame{Width: width, Height: height}
}

// ContentHeight returns the rows left for the active view.
func (f Frame) ContentHeight() int {
	return max(f.Height-2, 0)
}

// Header renders the title, an unread notification badge when there is
// anything new, and the hero summary on the right.
func (f Frame) Header(unread int, hero string) string {
	left := theme.HeaderStyle.Render(appTitle)
	if unread > 0 {
		left = lipgloss.JoinHorizontal(lipgloss.Top, left,
			unreadBadge.Render(fmt.Sprintf("%d new", unread)))
	}
	return f.spread(left, theme.HeaderStyle.Render(hero), theme.HeaderStyle)
}

// StatusBar renders key hints on the left and the latest notice on the
// right. The notice wins when both do not fit.
func (f Frame) StatusBar(hints, notice string) string {
	right := ""
	if notice != "" {
		right = theme.StatusBarStyle.Render(notice)
	}
	room := f.Width - lipgloss.Width(right)
	left := theme.StatusBarStyle.Render(truncate(hints, max(room-2, 0)))
	return f.spread(left, right, theme.StatusBarStyle)
}

// Render stacks header, content and status bar.
func (f Frame) Render(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// spread places left and right at the edges of a full-width line filled
// with the background of style.
func (f Frame) spread(left, right string, style lipgloss.Style) string {
	gap := max(f.Width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 1 {
		return strings.Repeat(".", width)
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
