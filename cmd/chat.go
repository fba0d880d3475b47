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
)

var (
	chatProvider string
	chatModel    string
	chatContinue bool
	chatText     bool
)

var chatCmd = &cobra.Command{
	Use:   "chat <prompt>",
	Short: "Stream a single-model chat response",
	Long: `Send a prompt to the configured model and stream the response.

Examples:
  codeswap chat "What is the capital of France?"
  codeswap chat "How do I reverse a string in Go?" -p openai -m gpt-5
  codeswap chat "And in Python?" --continue
  codeswap chat "Summarize this" --stats`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatProvider, "provider", "p", "", "Provider to use (anthropic, openai, openrouter)")
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "Model to use")
	chatCmd.Flags().BoolVarP(&chatContinue, "continue", "c", false, "Continue the most recent chat session")
	chatCmd.Flags().BoolVarP(&chatText, "text", "t", false, "Plain text output (no spinner)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	prompt := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.ApplyChatOverrides(chatProvider, chatModel)

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	store := openStore()
	defer store.Close()

	local, remoteID, err := resolveChatSession(ctx, cfg, client, store, prompt)
	if err != nil {
		return err
	}

	req := api.ChatStreamRequest{
		SessionID: remoteID,
		Provider:  cfg.Chat.Provider,
		ModelID:   cfg.Chat.Model,
		KeyMode:   cfg.Keys.Mode,
		Parts:     []api.ContentPart{api.TextPart(prompt)},
	}
	if cfg.Keys.Mode == api.KeyModeLocal {
		req.LocalAPIKey = cfg.Keys.OpenRouter
	}

	body, err := client.StreamChat(ctx, req)
	if err != nil {
		return err
	}
	defer body.Close()

	totals := &engine.Totals{}
	modelID := cfg.Chat.Provider + "/" + cfg.Chat.Model
	single := engine.NewSingle(totals, modelID, prompt)

	var streamErr error
	if chatText || !isTTY() {
		streamErr = streamChatPlain(ctx, body, single)
	} else {
		streamErr = streamChatTea(ctx, cancel, body, single)
	}

	snap := single.Snapshot()
	recordChatResult(ctx, store, local, prompt, snap)
	logUsage("chat", local.ID, cfg.Chat.Provider, cfg.Chat.Model, snap.Usage)
	printStats(totals)

	if streamErr != nil {
		return fmt.Errorf("stream failed: %w", streamErr)
	}
	if snap.Status == engine.StatusFailed {
		return fmt.Errorf("chat failed: %s", snap.Err)
	}
	return nil
}

// resolveChatSession picks the local transcript session (new or continued)
// and ensures a matching server-side session exists.
func resolveChatSession(ctx context.Context, cfg *config.Config, client *api.Client, store session.Store, prompt string) (*session.Session, string, error) {
	if chatContinue {
		cur, err := store.GetCurrent(ctx)
		if err != nil {
			return nil, "", err
		}
		if cur != nil {
			return cur, cur.RemoteID, nil
		}
	}

	local := &session.Session{
		Title:    ui.Truncate(prompt, 60),
		Mode:     session.ModeChat,
		Provider: cfg.Chat.Provider,
		Model:    cfg.Chat.Model,
	}

	remote, err := client.CreateSession(ctx, api.SessionCreateRequest{
		Title:    local.Title,
		ChatMode: "single",
	})
	if err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}
	local.RemoteID = remote.ID

	if err := store.Create(ctx, local); err != nil {
		return nil, "", err
	}
	if err := store.SetCurrent(ctx, local.ID); err != nil {
		return nil, "", err
	}
	return local, remote.ID, nil
}

func recordChatResult(ctx context.Context, store session.Store, local *session.Session, prompt string, snap engine.UnitSnapshot) {
	warn := func(err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: transcript save failed: %v\n", err)
		}
	}
	warn(store.AddMessage(ctx, local.ID, &session.Message{Role: session.RoleUser, Content: prompt}))
	if snap.Text != "" {
		warn(store.AddMessage(ctx, local.ID, &session.Message{Role: session.RoleAssistant, Content: snap.Text}))
	}
	if snap.Usage != nil {
		warn(store.AddUsage(ctx, local.ID, int64(snap.Usage.TokensIn), int64(snap.Usage.TokensOut), snap.Usage.Cost))
	}
}

// streamChatPlain prints deltas as they decode, without a TUI.
func streamChatPlain(ctx context.Context, body io.Reader, single *engine.Single) error {
	var printed int
	single.SetNotify(func() {
		snap := single.Snapshot()
		if len(snap.Text) > printed {
			fmt.Print(snap.Text[printed:])
			printed = len(snap.Text)
		}
	})
	err := engine.RunChat(ctx, body, single)
	fmt.Println()
	return err
}

// streamChatTea runs the stream behind a spinner and live-updating view.
func streamChatTea(ctx context.Context, cancel context.CancelFunc, body io.Reader, single *engine.Single) error {
	updates := make(chan engine.UnitSnapshot, 64)
	single.SetNotify(func() {
		select {
		case updates <- single.Snapshot():
		default:
		}
	})

	runErr := make(chan error, 1)
	go func() {
		err := engine.RunChat(ctx, body, single)
		updates <- single.Snapshot()
		close(updates)
		runErr <- err
	}()

	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		// No TTY to read keys from, fall back to draining updates.
		for range updates {
		}
		snap := single.Snapshot()
		fmt.Println(snap.Text)
		return <-runErr
	}
	defer tty.Close()

	model := newChatStreamModel(updates, cancel)
	p := tea.NewProgram(model, tea.WithInput(tty), tea.WithOutput(os.Stdout))
	if _, err := p.Run(); err != nil {
		return err
	}
	return <-runErr
}

// chatStreamModel is the bubbletea model for a single streaming response.
type chatStreamModel struct {
	spinner spinner.Model
	styles  *ui.Styles
	updates <-chan engine.UnitSnapshot
	snap    engine.UnitSnapshot
	done    bool
	cancel  context.CancelFunc
}

type chatSnapshotMsg engine.UnitSnapshot

type chatDoneMsg struct{}

func newChatStreamModel(updates <-chan engine.UnitSnapshot, cancel context.CancelFunc) chatStreamModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return chatStreamModel{
		spinner: s,
		styles:  ui.DefaultStyles(),
		updates: updates,
		cancel:  cancel,
	}
}

func (m chatStreamModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForUnit(m.updates))
}

func waitForUnit(updates <-chan engine.UnitSnapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return chatDoneMsg{}
		}
		return chatSnapshotMsg(snap)
	}
}

func (m chatStreamModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			// Keep draining so the final snapshot lands before quit.
			return m, nil
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case chatSnapshotMsg:
		m.snap = engine.UnitSnapshot(msg)
		return m, waitForUnit(m.updates)

	case chatDoneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m chatStreamModel) View() string {
	if m.snap.Text == "" && !m.done {
		return m.spinner.View() + " Thinking..."
	}

	var b strings.Builder
	b.WriteString(m.snap.Text)
	if !strings.HasSuffix(m.snap.Text, "\n") {
		b.WriteString("\n")
	}

	switch {
	case m.snap.Status == engine.StatusFailed:
		msg := m.snap.Err
		if msg == "" {
			msg = "failed"
		}
		b.WriteString(m.styles.Error.Render(ui.FailIcon+" "+msg) + "\n")
	case m.done && m.snap.Usage != nil:
		b.WriteString(m.styles.Muted.Render(ui.UsageLine(*m.snap.Usage)) + "\n")
	}
	return b.String()
}
