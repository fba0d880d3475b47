package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/codeswap/codeswap/internal/engine"
	"github.com/codeswap/codeswap/internal/usage"
)

// TerminalWidth returns the width of the output terminal, or a sane default
// when output is not a terminal.
func TerminalWidth(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// RenderColumns lays out left and right blocks side by side, separated by a
// vertical rule, wrapping each block to its half of the width.
func (s *Styles) RenderColumns(left, right string, width int) string {
	if width < 20 {
		width = 20
	}
	colWidth := (width - 3) / 2

	leftStyle := s.renderer.NewStyle().Width(colWidth)
	rightStyle := s.renderer.NewStyle().Width(colWidth)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		leftStyle.Render(left),
		s.ColumnRule.Render(" │ "),
		rightStyle.Render(right),
	)
}

// RenderCompare renders a full A/B snapshot: side headers, both response
// columns, and a per-side status line.
func (s *Styles) RenderCompare(snap engine.CompareSnapshot, width int) string {
	var b strings.Builder

	header := s.RenderColumns(
		s.LeftHeader.Render(snap.Left.Model),
		s.RightHeader.Render(snap.Right.Model),
		width,
	)
	b.WriteString(header)
	b.WriteString("\n\n")

	b.WriteString(s.RenderColumns(snap.Left.Text, snap.Right.Text, width))
	b.WriteString("\n\n")

	b.WriteString(s.RenderColumns(
		s.sideStatus(snap.Left),
		s.sideStatus(snap.Right),
		width,
	))

	return b.String()
}

func (s *Styles) sideStatus(side engine.UnitSnapshot) string {
	switch side.Status {
	case engine.StatusFailed:
		msg := side.Err
		if msg == "" {
			msg = "failed"
		}
		return s.Error.Render(FailIcon + " " + msg)
	case engine.StatusDone:
		if side.Usage != nil {
			return s.Muted.Render(SuccessIcon + " " + UsageLine(*side.Usage))
		}
		return s.Success.Render(SuccessIcon + " done")
	case engine.StatusStreaming:
		return s.Muted.Render(RunningIcon + " streaming")
	default:
		return s.Muted.Render(PendingIcon + " waiting")
	}
}

// UsageLine formats one response's token and cost accounting.
func UsageLine(info usage.Info) string {
	line := fmt.Sprintf("%s in / %s out · %s",
		usage.FormatTokens(info.TokensIn),
		usage.FormatTokens(info.TokensOut),
		usage.FormatCost(info.Cost))
	if info.Estimated {
		line += " (est)"
	}
	return line
}

// TotalsLine formats the running session totals for the footer.
func TotalsLine(t *engine.Totals) string {
	line := fmt.Sprintf("session: %s in / %s out · %s",
		usage.FormatTokens(t.TokensIn),
		usage.FormatTokens(t.TokensOut),
		usage.FormatCost(t.Cost))
	if t.CrewTotalCost > 0 || t.CrewBudget > 0 {
		line = fmt.Sprintf("crew: %s", usage.FormatCost(t.CrewTotalCost))
		if t.CrewBudget > 0 {
			line += fmt.Sprintf(" / %s budget", usage.FormatCost(t.CrewBudget))
		}
	}
	return line
}
