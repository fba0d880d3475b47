package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - consistent across all output
var (
	Green  = lipgloss.Color("10") // success, settled
	Red    = lipgloss.Color("9")  // error, failed
	Grey   = lipgloss.Color("8")  // muted text
	Blue   = lipgloss.Color("4")  // headers, borders
	White  = lipgloss.Color("15") // header text
	Cyan   = lipgloss.Color("6")  // left side, agents
	Purple = lipgloss.Color("5")  // right side, synthesis
)

// Status indicators
const (
	SuccessIcon = "✓"
	FailIcon    = "✗"
	PendingIcon = "○"
	RunningIcon = "●"
)

// Styles returns styled text helpers bound to a renderer
type Styles struct {
	renderer *lipgloss.Renderer

	// Text styles
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	// Compare columns
	LeftHeader  lipgloss.Style
	RightHeader lipgloss.Style
	ColumnRule  lipgloss.Style

	// Crew dashboard
	AgentName lipgloss.Style
	Synthesis lipgloss.Style

	// Table styles
	TableHeader lipgloss.Style
	TableCell   lipgloss.Style
	TableBorder lipgloss.Style
}

// NewStyles creates a new Styles instance for the given output
func NewStyles(output *os.File) *Styles {
	r := lipgloss.NewRenderer(output)

	return &Styles{
		renderer: r,

		Title: r.NewStyle().
			Bold(true).
			Foreground(White),

		Subtitle: r.NewStyle().
			Foreground(Grey),

		Success: r.NewStyle().
			Foreground(Green),

		Error: r.NewStyle().
			Foreground(Red),

		Muted: r.NewStyle().
			Foreground(Grey),

		Bold: r.NewStyle().
			Bold(true),

		LeftHeader: r.NewStyle().
			Bold(true).
			Foreground(Cyan),

		RightHeader: r.NewStyle().
			Bold(true).
			Foreground(Purple),

		ColumnRule: r.NewStyle().
			Foreground(Blue),

		AgentName: r.NewStyle().
			Bold(true).
			Foreground(Cyan),

		Synthesis: r.NewStyle().
			Foreground(Purple),

		TableHeader: r.NewStyle().
			Bold(true).
			Foreground(White).
			Padding(0, 1),

		TableCell: r.NewStyle().
			Padding(0, 1),

		TableBorder: r.NewStyle().
			Foreground(Blue),
	}
}

// DefaultStyles returns styles for stderr (default TUI output)
func DefaultStyles() *Styles {
	return NewStyles(os.Stderr)
}

// FormatResult returns a styled success/fail result
func (s *Styles) FormatResult(success bool, msg string) string {
	if success {
		return s.Success.Render(SuccessIcon+" ") + msg
	}
	return s.Error.Render(FailIcon+" ") + msg
}

// StatusIcon returns a styled icon for an agent or stream status.
func (s *Styles) StatusIcon(status string) string {
	switch status {
	case "done":
		return s.Success.Render(SuccessIcon)
	case "failed":
		return s.Error.Render(FailIcon)
	case "running", "streaming":
		return s.Bold.Render(RunningIcon)
	default:
		return s.Muted.Render(PendingIcon)
	}
}

// Truncate shortens a string to maxLen with ellipsis
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
