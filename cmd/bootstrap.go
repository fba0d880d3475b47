package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/codeswap/codeswap/internal/api"
	"github.com/codeswap/codeswap/internal/config"
	"github.com/codeswap/codeswap/internal/engine"
	"github.com/codeswap/codeswap/internal/session"
	"github.com/codeswap/codeswap/internal/ui"
	"github.com/codeswap/codeswap/internal/usage"
	"golang.org/x/term"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if serverFlag != "" {
		cfg.Server.URL = serverFlag
	}
	if tokenFlag != "" {
		cfg.Server.Token = tokenFlag
	}
	return cfg, nil
}

func newClient(cfg *config.Config) (*api.Client, error) {
	return api.NewClient(cfg.Server.URL, cfg.Server.Token)
}

// openStore returns the transcript store, or a no-op store when saving is
// disabled with --no-save or the database cannot be opened.
func openStore() session.Store {
	if noSave {
		return &session.NoopStore{}
	}
	store, err := session.NewSQLiteStore(session.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: transcript store unavailable: %v\n", err)
		return &session.NoopStore{}
	}
	return store
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// printStats writes the session totals footer when --stats is set.
func printStats(totals *engine.Totals) {
	if !showStats {
		return
	}
	styles := ui.DefaultStyles()
	fmt.Fprintln(os.Stderr, styles.Muted.Render(ui.TotalsLine(totals)))
}

// logUsage appends one terminal accounting record to the local usage log.
func logUsage(mode, sessionID, provider, model string, info *usage.Info) {
	if info == nil {
		return
	}
	entry := usage.LogEntry{
		SessionID: sessionID,
		Mode:      mode,
		Provider:  provider,
		Model:     model,
		TokensIn:  info.TokensIn,
		TokensOut: info.TokensOut,
		CostUSD:   info.Cost,
		Estimated: info.Estimated,
	}
	if err := usage.DefaultLogger().Log(entry); err != nil {
		fmt.Fprintf(os.Stderr, "warning: usage log write failed: %v\n", err)
	}
}
