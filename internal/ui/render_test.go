package ui

import (
	"strings"
	"testing"

	"github.com/codeswap/codeswap/internal/engine"
	"github.com/codeswap/codeswap/internal/usage"
)

func TestUsageLine(t *testing.T) {
	got := UsageLine(usage.Info{TokensIn: 1200, TokensOut: 450, Cost: 0.0102})
	if got != "1.2k in / 450 out · $0.01" {
		t.Errorf("UsageLine = %q", got)
	}

	got = UsageLine(usage.Info{TokensIn: 10, TokensOut: 5, Cost: 0.0001, Estimated: true})
	if !strings.HasSuffix(got, "(est)") {
		t.Errorf("estimated usage not marked: %q", got)
	}
	if !strings.Contains(got, "$0.0001") {
		t.Errorf("sub-cent cost not shown with 4 decimals: %q", got)
	}
}

func TestTotalsLine(t *testing.T) {
	totals := &engine.Totals{TokensIn: 500, TokensOut: 200, Cost: 0.05}
	got := TotalsLine(totals)
	if !strings.Contains(got, "500 in / 200 out") || !strings.Contains(got, "$0.05") {
		t.Errorf("TotalsLine = %q", got)
	}

	crew := &engine.Totals{CrewTotalCost: 0.42, CrewBudget: 5}
	got = TotalsLine(crew)
	if !strings.Contains(got, "crew: $0.42") || !strings.Contains(got, "$5.00 budget") {
		t.Errorf("crew TotalsLine = %q", got)
	}
}

func TestRenderColumnsMinWidth(t *testing.T) {
	s := DefaultStyles()
	out := s.RenderColumns("left", "right", 5)
	if !strings.Contains(out, "left") || !strings.Contains(out, "right") {
		t.Errorf("columns dropped content: %q", out)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}
