// Package theme holds the terminal styles shared by the command line tools.
package theme

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Colors is a terminal palette.
type Colors struct {
	Primary   lipgloss.Color
	Text      lipgloss.Color
	TextMuted lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Warning   lipgloss.Color
}

// Default is the palette used unless SetTheme is called.
var Default = Colors{
	Primary:   lipgloss.Color("#00ff00"),
	Text:      lipgloss.Color("#ffffff"),
	TextMuted: lipgloss.Color("#808080"),
	Success:   lipgloss.Color("#5fd75f"),
	Error:     lipgloss.Color("#ff5f5f"),
	Warning:   lipgloss.Color("#ffaf00"),
}

// CurrentTheme is the active palette.
var CurrentTheme = Default

// SetTheme sets the current theme
func SetTheme(colors Colors) {
	CurrentTheme = colors
}

// Styles are the rendered styles of a palette.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Box     lipgloss.Style
}

// NewStyles builds styles from c.
func NewStyles(c Colors) Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(c.Primary),
		Label:   lipgloss.NewStyle().Bold(true).Foreground(c.Text),
		Muted:   lipgloss.NewStyle().Foreground(c.TextMuted),
		Success: lipgloss.NewStyle().Foreground(c.Success),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(c.Error),
		Warning: lipgloss.NewStyle().Foreground(c.Warning),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c.TextMuted).
			Padding(0, 1),
	}
}

// Current returns the styles of CurrentTheme.
func Current() Styles {
	return NewStyles(CurrentTheme)
}

// Highlight renders source with terminal colors. The language is guessed
// when lang is empty; source is returned unchanged when highlighting fails.
func Highlight(source, lang string) string {
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, source, lang, "terminal256", "monokai"); err != nil {
		return source
	}
	return buf.String()
}

// Preview flattens s to one line no wider than width cells. Escape
// sequences already in s are dropped.
func Preview(s string, width int) string {
	s = strings.Join(strings.Fields(ansi.Strip(s)), " ")
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "...")
}
