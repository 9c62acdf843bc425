package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for terminal output.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/secondary text color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title lipgloss.Style
	Label lipgloss.Style
	Value lipgloss.Style
	Dim   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Value: lipgloss.NewStyle(),
		Dim:   lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Row is one label/value line of a summary.
type Row struct {
	Label string
	Value string
}

// Summary is a titled list of label/value rows, the layout used by
// `taf info`.
type Summary struct {
	Styles Styles
	Title  string
	Rows   []Row
}

// Render renders the summary to a string, labels right-padded to a
// common width.
func (s Summary) Render() string {
	width := 0
	for _, r := range s.Rows {
		if len(r.Label) > width {
			width = len(r.Label)
		}
	}

	var b strings.Builder
	b.WriteString(s.Styles.Title.Render(s.Title))
	b.WriteString("\n")
	for _, r := range s.Rows {
		label := r.Label + strings.Repeat(" ", width-len(r.Label))
		b.WriteString("  ")
		b.WriteString(s.Styles.Label.Render(label))
		b.WriteString("  ")
		b.WriteString(s.Styles.Value.Render(r.Value))
		b.WriteString("\n")
	}
	return b.String()
}
