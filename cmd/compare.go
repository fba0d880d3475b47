package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/codeswap/codeswap/internal/api"
	"github.com/codeswap/codeswap/internal/config"
	"github.com/codeswap/codeswap/internal/engine"
	"github.com/codeswap/codeswap/internal/session"
	"github.com/codeswap/codeswap/internal/ui"
	"github.com/codeswap/codeswap/internal/usage"
)

var (
	compareLeft  string
	compareRight string
	compareText  bool
)

var compareCmd = &cobra.Command{
	Use:   "compare <prompt>",
	Short: "Stream the same prompt to two models side by side",
	Long: `Send one prompt to two models at once and watch both responses
stream in side-by-side columns, with per-side token and cost accounting.

Models are given as provider/model. Defaults come from the compare
section of the config file.

Examples:
  codeswap compare "write a haiku about Go"
  codeswap compare "explain CAP theorem" --left anthropic/claude-sonnet-4.5 --right openai/gpt-5
  codeswap compare "optimize this query" --text`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareLeft, "left", "", "Left model as provider/model")
	compareCmd.Flags().StringVar(&compareRight, "right", "", "Right model as provider/model")
	compareCmd.Flags().BoolVarP(&compareText, "text", "t", false, "Plain sequential output instead of live columns")
	rootCmd.AddCommand(compareCmd)
}

// parseTarget splits a provider/model flag value.
func parseTarget(flag string, fallback config.TargetConfig) (config.TargetConfig, error) {
	if flag == "" {
		return fallback, nil
	}
	provider, model, ok := strings.Cut(flag, "/")
	if !ok || provider == "" || model == "" {
		return config.TargetConfig{}, fmt.Errorf("invalid model %q: expected provider/model", flag)
	}
	return config.TargetConfig{Provider: provider, Model: model}, nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	prompt := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	left, err := parseTarget(compareLeft, cfg.Compare.Left)
	if err != nil {
		return err
	}
	right, err := parseTarget(compareRight, cfg.Compare.Right)
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	store := openStore()
	defer store.Close()

	remote, err := client.CreateSession(ctx, api.SessionCreateRequest{
		Title:    ui.Truncate(prompt, 60),
		ChatMode: "compare",
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	req := api.CompareStreamRequest{
		SessionID: remote.ID,
		Left:      modelChoice(left, cfg),
		Right:     modelChoice(right, cfg),
		Parts:     []api.ContentPart{api.TextPart(prompt)},
	}

	body, err := client.StreamCompare(ctx, req)
	if err != nil {
		return err
	}
	defer body.Close()

	totals := &engine.Totals{}
	leftID := left.Provider + "/" + left.Model
	rightID := right.Provider + "/" + right.Model
	compare := engine.NewCompare(totals, leftID, rightID, prompt)

	var streamErr error
	if compareText || !isTTY() {
		streamErr = streamComparePlain(ctx, body, compare)
	} else {
		streamErr = streamCompareTea(ctx, cancel, body, compare)
	}

	snap := compare.Snapshot()
	recordCompareResult(ctx, store, remote.ID, prompt, left, right, snap)
	logUsage("compare", remote.ID, left.Provider, left.Model, snap.Left.Usage)
	logUsage("compare", remote.ID, right.Provider, right.Model, snap.Right.Usage)
	printStats(totals)

	if streamErr != nil {
		return fmt.Errorf("stream failed: %w", streamErr)
	}
	if snap.Left.Status == engine.StatusFailed && snap.Right.Status == engine.StatusFailed {
		return fmt.Errorf("both sides failed: left: %s; right: %s", snap.Left.Err, snap.Right.Err)
	}
	return nil
}

func modelChoice(t config.TargetConfig, cfg *config.Config) api.ModelChoice {
	mc := api.ModelChoice{
		Provider: t.Provider,
		ModelID:  t.Model,
		KeyMode:  cfg.Keys.Mode,
	}
	if cfg.Keys.Mode == api.KeyModeLocal {
		mc.LocalAPIKey = cfg.Keys.OpenRouter
	}
	return mc
}

func recordCompareResult(ctx context.Context, store session.Store, remoteID, prompt string, left, right config.TargetConfig, snap engine.CompareSnapshot) {
	local := &session.Session{
		RemoteID: remoteID,
		Title:    ui.Truncate(prompt, 60),
		Mode:     session.ModeCompare,
		Provider: left.Provider,
		Model:    left.Model + " vs " + right.Model,
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
	warn(store.AddMessage(ctx, local.ID, &session.Message{Role: session.RoleUser, Content: prompt}))
	for _, side := range []engine.UnitSnapshot{snap.Left, snap.Right} {
		if side.Text == "" {
			continue
		}
		warn(store.AddMessage(ctx, local.ID, &session.Message{
			Role:    session.RoleAssistant,
			Agent:   side.Model,
			Content: side.Text,
		}))
		if side.Usage != nil {
			warn(store.AddUsage(ctx, local.ID, int64(side.Usage.TokensIn), int64(side.Usage.TokensOut), side.Usage.Cost))
		}
	}
}

// streamComparePlain runs the stream and prints both sides sequentially
// once finished.
func streamComparePlain(ctx context.Context, body io.Reader, compare *engine.Compare) error {
	err := engine.RunChat(ctx, body, compare)
	snap := compare.Snapshot()
	for _, side := range []engine.UnitSnapshot{snap.Left, snap.Right} {
		fmt.Printf("=== %s ===\n", side.Model)
		if side.Status == engine.StatusFailed {
			fmt.Printf("failed: %s\n", side.Err)
		} else {
			fmt.Println(side.Text)
		}
		if side.Usage != nil {
			fmt.Println(ui.UsageLine(*side.Usage))
		}
		fmt.Println()
	}
	fmt.Printf("combined cost: %s\n", usage.FormatCost(compare.CombinedCost()))
	return err
}

// streamCompareTea renders the two columns live.
func streamCompareTea(ctx context.Context, cancel context.CancelFunc, body io.Reader, compare *engine.Compare) error {
	updates := make(chan engine.CompareSnapshot, 64)
	compare.SetNotify(func() {
		select {
		case updates <- compare.Snapshot():
		default:
		}
	})

	runErr := make(chan error, 1)
	go func() {
		err := engine.RunChat(ctx, body, compare)
		updates <- compare.Snapshot()
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

	model := newCompareModel(updates, cancel)
	p := tea.NewProgram(model, tea.WithInput(tty), tea.WithOutput(os.Stdout))
	if _, err := p.Run(); err != nil {
		return err
	}
	return <-runErr
}

// compareModel renders a live two-column comparison.
type compareModel struct {
	spinner spinner.Model
	styles  *ui.Styles
	updates <-chan engine.CompareSnapshot
	snap    engine.CompareSnapshot
	width   int
	done    bool
	cancel  context.CancelFunc
}

type compareSnapshotMsg engine.CompareSnapshot

type compareDoneMsg struct{}

func newCompareModel(updates <-chan engine.CompareSnapshot, cancel context.CancelFunc) compareModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return compareModel{
		spinner: s,
		styles:  ui.DefaultStyles(),
		updates: updates,
		width:   ui.TerminalWidth(os.Stdout),
		cancel:  cancel,
	}
}

func (m compareModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForCompare(m.updates))
}

func waitForCompare(updates <-chan engine.CompareSnapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return compareDoneMsg{}
		}
		return compareSnapshotMsg(snap)
	}
}

func (m compareModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case compareSnapshotMsg:
		m.snap = engine.CompareSnapshot(msg)
		return m, waitForCompare(m.updates)

	case compareDoneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m compareModel) View() string {
	started := m.snap.Left.Status.Settled() || m.snap.Left.Status == engine.StatusStreaming ||
		m.snap.Right.Status.Settled() || m.snap.Right.Status == engine.StatusStreaming
	if !started && !m.done {
		return m.spinner.View() + " Waiting for both models..."
	}
	return m.styles.RenderCompare(m.snap, m.width) + "\n"
}
