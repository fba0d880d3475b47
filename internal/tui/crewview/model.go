// Package crewview renders a live dashboard for a crew run: the plan, each
// agent's progress, the synthesis as it streams, and running cost against
// the budget.
package crewview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/codeswap/codeswap/internal/engine"
	"github.com/codeswap/codeswap/internal/ui"
	"github.com/codeswap/codeswap/internal/usage"
)

// snapshotMsg carries a fresh reducer snapshot.
type snapshotMsg engine.CrewSnapshot

// doneMsg signals the stream has finished.
type doneMsg struct{}

// Model is the bubbletea model for the crew dashboard.
type Model struct {
	spinner   spinner.Model
	styles    *ui.Styles
	snapshots <-chan engine.CrewSnapshot
	snap      engine.CrewSnapshot
	done      bool
	cancelled bool
	cancel    func()
}

// New builds a dashboard fed by snapshots. cancel is invoked when the user
// aborts with ctrl+c or esc; the stream then winds down on its own and the
// channel closes.
func New(snapshots <-chan engine.CrewSnapshot, styles *ui.Styles, cancel func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{
		spinner:   s,
		styles:    styles,
		snapshots: snapshots,
		cancel:    cancel,
	}
}

// Cancelled reports whether the user aborted the run.
func (m Model) Cancelled() bool {
	return m.cancelled
}

// Snapshot returns the last state seen, for printing a summary after exit.
func (m Model) Snapshot() engine.CrewSnapshot {
	return m.snap
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForSnapshot(m.snapshots))
}

func waitForSnapshot(snapshots <-chan engine.CrewSnapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-snapshots
		if !ok {
			return doneMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
			// Keep draining snapshots so the final state lands.
			return m, nil
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.snap = engine.CrewSnapshot(msg)
		return m, waitForSnapshot(m.snapshots)

	case doneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	switch {
	case m.snap.Status == "" || m.snap.Status == engine.StatusIdle:
		b.WriteString(m.spinner.View() + " Assembling crew...\n")
	default:
		b.WriteString(m.renderPlan())
		b.WriteString(m.renderAgents())
		b.WriteString(m.renderSynthesis())
	}

	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderPlan() string {
	if len(m.snap.Subtasks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Plan"))
	b.WriteString("\n")
	for _, st := range m.snap.Subtasks {
		b.WriteString(fmt.Sprintf("  %s %s",
			m.styles.Muted.Render(st.ID+"."),
			st.Description))
		if st.AssignTo != "" {
			b.WriteString(m.styles.Muted.Render(" → " + st.AssignTo))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderAgents() string {
	if len(m.snap.Agents) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Agents"))
	b.WriteString("\n")
	for _, name := range m.snap.Order {
		a := m.snap.Agents[name]
		icon := m.styles.StatusIcon(string(a.Status))
		if a.Status == engine.AgentRunning {
			icon = m.spinner.View()
		}
		b.WriteString(fmt.Sprintf("  %s %s", icon, m.styles.AgentName.Render(name)))
		if a.Model != "" {
			b.WriteString(m.styles.Muted.Render(" (" + a.Model + ")"))
		}
		switch a.Status {
		case engine.AgentDone:
			var parts []string
			if a.Tokens != nil {
				parts = append(parts, usage.FormatTokens(*a.Tokens))
			}
			if a.Cost != nil {
				parts = append(parts, usage.FormatCost(*a.Cost))
			}
			if len(parts) > 0 {
				b.WriteString("  " + m.styles.Muted.Render(strings.Join(parts, " · ")))
			}
		case engine.AgentRunning:
			preview := ui.Truncate(lastLine(a.Text), 60)
			if preview != "" {
				b.WriteString("  " + m.styles.Muted.Render(preview))
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderSynthesis() string {
	if m.snap.Synthesis == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Synthesis"))
	b.WriteString("\n")
	b.WriteString(m.styles.Synthesis.Render(m.snap.Synthesis))
	b.WriteString("\n\n")
	return b.String()
}

func (m Model) renderFooter() string {
	cost := usage.FormatCost(m.snap.TotalCost)
	line := "cost " + cost
	if m.snap.Budget > 0 {
		line += " / " + usage.FormatCost(m.snap.Budget) + " budget"
	}
	switch {
	case m.cancelled && !m.done:
		line += " · cancelling..."
	case m.snap.Status == engine.StatusFailed:
		msg := m.snap.Err
		if msg == "" {
			msg = "crew failed"
		}
		line = ui.FailIcon + " " + msg + " · " + line
		return m.styles.Error.Render(line) + "\n"
	case m.snap.Status == engine.StatusDone:
		line = ui.SuccessIcon + " done · " + line
	default:
		line += " · esc to cancel"
	}
	return m.styles.Muted.Render(line) + "\n"
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\n")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
