package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/codeswap/codeswap/internal/api"
	"github.com/codeswap/codeswap/internal/config"
	"github.com/codeswap/codeswap/internal/crew"
	"github.com/codeswap/codeswap/internal/engine"
	"github.com/codeswap/codeswap/internal/session"
	"github.com/codeswap/codeswap/internal/tui/crewview"
	"github.com/codeswap/codeswap/internal/ui"
	"github.com/codeswap/codeswap/internal/usage"
)

var (
	crewName   string
	crewBudget float64
	crewText   bool
)

var crewCmd = &cobra.Command{
	Use:   "crew <task>",
	Short: "Run a crew of agents on a task",
	Long: `Send a task to a crew: an orchestrator model plans subtasks, assigns
them to specialist agents, and synthesizes their results. Progress, per-agent
cost and the synthesis stream into a live dashboard.

Crew definitions are YAML files; see 'codeswap crews'.

Examples:
  codeswap crew "research QUIC and summarize the tradeoffs"
  codeswap crew "design a schema for invoices" --crew default --budget 2.50
  codeswap crew "compare testing frameworks" --text`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCrew,
}

func init() {
	crewCmd.Flags().StringVar(&crewName, "crew", "", "Crew definition to use (default from config)")
	crewCmd.Flags().Float64Var(&crewBudget, "budget", 0, "Budget limit in USD (display only, default from crew definition)")
	crewCmd.Flags().BoolVarP(&crewText, "text", "t", false, "Plain text output instead of the dashboard")
	rootCmd.AddCommand(crewCmd)
}

func runCrew(cmd *cobra.Command, args []string) error {
	task := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	name := crewName
	if name == "" {
		name = cfg.Crew.Name
	}
	if err := crew.EnsureDefaults(); err != nil {
		return err
	}
	def, err := crew.Load(name)
	if err != nil {
		return err
	}

	budget := resolveBudget(def, cfg, crewBudget)

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	store := openStore()
	defer store.Close()

	remote, err := client.CreateSession(ctx, api.SessionCreateRequest{
		Title:    ui.Truncate(task, 60),
		ChatMode: "crew",
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	req := api.CrewRunRequest{
		SessionID:      remote.ID,
		Task:           task,
		CrewName:       def.Name,
		BudgetLimitUSD: budget,
	}
	var localKey string
	if cfg.Keys.Mode == api.KeyModeLocal {
		localKey = cfg.Keys.OpenRouter
	}

	body, err := client.StreamCrew(ctx, req, localKey)
	if err != nil {
		return err
	}
	defer body.Close()

	totals := &engine.Totals{}
	crewRun := engine.NewCrew(totals, budget)

	var streamErr error
	if crewText || !isTTY() {
		streamErr = streamCrewPlain(ctx, body, crewRun)
	} else {
		streamErr = streamCrewTea(ctx, cancel, body, crewRun)
	}

	snap := crewRun.Snapshot()
	recordCrewResult(ctx, store, remote.ID, task, def.Name, snap)
	logCrewUsage(remote.ID, snap)
	printStats(totals)

	if streamErr != nil {
		return fmt.Errorf("stream failed: %w", streamErr)
	}
	if snap.Status == engine.StatusFailed {
		return fmt.Errorf("crew failed: %s", snap.Err)
	}
	return nil
}

// resolveBudget picks the display budget for a run: the --budget flag wins,
// then the config-level override, then the crew definition's own limit.
func resolveBudget(def *crew.Config, cfg *config.Config, flag float64) float64 {
	budget := def.BudgetLimitUSD
	if cfg.Crew.BudgetLimitUSD > 0 {
		budget = cfg.Crew.BudgetLimitUSD
	}
	if flag > 0 {
		budget = flag
	}
	return budget
}

func recordCrewResult(ctx context.Context, store session.Store, remoteID, task, crewName string, snap engine.CrewSnapshot) {
	local := &session.Session{
		RemoteID: remoteID,
		Title:    ui.Truncate(task, 60),
		Mode:     session.ModeCrew,
		Model:    crewName,
	}
	if err := store.Create(ctx, local); err != nil {
		fmt.Fprintf(os.Stderr, "warning: transcript save failed: %v\n", err)
		return
	}
	warn := func(err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: transcript save failed: %v\n", err)
		}
	}
	warn(store.AddMessage(ctx, local.ID, &session.Message{Role: session.RoleUser, Content: task}))
	for _, name := range snap.Order {
		agent := snap.Agents[name]
		if agent.Text == "" {
			continue
		}
		warn(store.AddMessage(ctx, local.ID, &session.Message{
			Role:    session.RoleAssistant,
			Agent:   name,
			Content: agent.Text,
		}))
	}
	if snap.Synthesis != "" {
		warn(store.AddMessage(ctx, local.ID, &session.Message{Role: session.RoleSynthesis, Content: snap.Synthesis}))
	}
	if snap.TotalCost > 0 {
		warn(store.AddUsage(ctx, local.ID, 0, 0, snap.TotalCost))
	}
}

// logCrewUsage writes one usage record per agent plus the run total.
func logCrewUsage(sessionID string, snap engine.CrewSnapshot) {
	for _, name := range snap.Order {
		agent := snap.Agents[name]
		if agent.Cost == nil && agent.Tokens == nil {
			continue
		}
		entry := usage.LogEntry{
			SessionID: sessionID,
			Mode:      "crew",
			Model:     agent.Model,
		}
		if agent.Tokens != nil {
			entry.TokensOut = *agent.Tokens
		}
		if agent.Cost != nil {
			entry.CostUSD = *agent.Cost
		}
		if err := usage.DefaultLogger().Log(entry); err != nil {
			fmt.Fprintf(os.Stderr, "warning: usage log write failed: %v\n", err)
		}
	}
}

// streamCrewPlain prints agent transitions and the synthesis as plain text.
func streamCrewPlain(ctx context.Context, body io.Reader, crewRun *engine.Crew) error {
	var lastSynthesis int
	seen := map[string]engine.AgentStatus{}
	crewRun.SetNotify(func() {
		snap := crewRun.Snapshot()
		for _, name := range snap.Order {
			agent := snap.Agents[name]
			if seen[name] == agent.Status {
				continue
			}
			seen[name] = agent.Status
			switch agent.Status {
			case engine.AgentRunning:
				fmt.Printf("[%s] started (%s)\n", name, agent.Model)
			case engine.AgentDone:
				line := fmt.Sprintf("[%s] done", name)
				if agent.Cost != nil {
					line += " " + usage.FormatCost(*agent.Cost)
				}
				fmt.Println(line)
			case engine.AgentFailed:
				fmt.Printf("[%s] failed\n", name)
			}
		}
		if len(snap.Synthesis) > lastSynthesis {
			fmt.Print(snap.Synthesis[lastSynthesis:])
			lastSynthesis = len(snap.Synthesis)
		}
	})

	err := engine.RunCrew(ctx, body, crewRun)
	fmt.Println()
	snap := crewRun.Snapshot()
	line := "total cost: " + usage.FormatCost(snap.TotalCost)
	if snap.Budget > 0 {
		line += " / " + usage.FormatCost(snap.Budget) + " budget"
	}
	fmt.Println(line)
	return err
}

// streamCrewTea runs the stream behind the live dashboard.
func streamCrewTea(ctx context.Context, cancel context.CancelFunc, body io.Reader, crewRun *engine.Crew) error {
	updates := make(chan engine.CrewSnapshot, 64)
	crewRun.SetNotify(func() {
		select {
		case updates <- crewRun.Snapshot():
		default:
		}
	})

	runErr := make(chan error, 1)
	go func() {
		err := engine.RunCrew(ctx, body, crewRun)
		updates <- crewRun.Snapshot()
		close(updates)
		runErr <- err
	}()

	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		for range updates {
		}
		return <-runErr
	}
	defer tty.Close()

	model := crewview.New(updates, ui.DefaultStyles(), cancel)
	p := tea.NewProgram(model, tea.WithInput(tty), tea.WithOutput(os.Stdout))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(crewview.Model); ok && m.Cancelled() {
		fmt.Fprintln(os.Stderr, "cancelled")
	}
	return <-runErr
}
