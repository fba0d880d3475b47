package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codeswap/codeswap/internal/session"
	"github.com/codeswap/codeswap/internal/usage"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved transcripts",
	Long: `List, search, show, delete, and export saved transcripts.

Examples:
  codeswap sessions                       # List recent transcripts
  codeswap sessions list --mode compare
  codeswap sessions list --remote         # Sessions known to the server
  codeswap sessions search "kubernetes"
  codeswap sessions show <id>
  codeswap sessions delete <id>
  codeswap sessions export <id> [path.md]`,
	RunE: runSessionsList, // Default to list
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List transcripts",
	RunE:  runSessionsList,
}

var sessionsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search transcripts",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSessionsSearch,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export <id> [path]",
	Short: "Export a transcript as markdown",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSessionsExport,
}

var sessionsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all transcripts (requires confirmation)",
	Long: `Delete the transcript database entirely. This cannot be undone.

You must type 'yes' to confirm.`,
	RunE: runSessionsReset,
}

// Flags
var (
	sessionsMode     string
	sessionsProvider string
	sessionsLimit    int
	sessionsJSON     bool
	sessionsRemote   bool
)

func init() {
	sessionsListCmd.Flags().StringVar(&sessionsMode, "mode", "", "Filter by mode (chat, compare, crew)")
	sessionsListCmd.Flags().StringVar(&sessionsProvider, "provider", "", "Filter by provider")
	sessionsListCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "Maximum number of transcripts to list")
	sessionsListCmd.Flags().BoolVar(&sessionsRemote, "remote", false, "List sessions from the server instead")

	sessionsShowCmd.Flags().BoolVar(&sessionsJSON, "json", false, "Output as JSON")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsSearchCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsExportCmd)
	sessionsCmd.AddCommand(sessionsResetCmd)

	rootCmd.AddCommand(sessionsCmd)
}

func getSessionStore() (session.Store, error) {
	return session.NewSQLiteStore(session.Config{})
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	if sessionsRemote {
		return runSessionsListRemote()
	}

	store, err := getSessionStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	summaries, err := store.List(ctx, session.ListOptions{
		Mode:     session.Mode(sessionsMode),
		Provider: sessionsProvider,
		Limit:    sessionsLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	fmt.Printf("%-24s %-8s %-14s %-8s %s\n", "ID", "Mode", "Updated", "Cost", "Title")
	fmt.Println(strings.Repeat("-", 80))

	for _, s := range summaries {
		title := s.Title
		if len(title) > 30 {
			title = title[:27] + "..."
		}
		updated := formatRelativeTime(s.UpdatedAt)
		fmt.Printf("%-24s %-8s %-14s %-8s %s\n",
			s.ID, s.Mode, updated, usage.FormatCost(s.CostUSD), title)
	}

	return nil
}

func runSessionsListRemote() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	sessions, err := client.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list server sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No server sessions found.")
		return nil
	}

	fmt.Printf("%-36s %-8s %s\n", "ID", "Mode", "Title")
	fmt.Println(strings.Repeat("-", 70))
	for _, s := range sessions {
		fmt.Printf("%-36s %-8s %s\n", s.ID, s.ChatMode, s.Title)
	}
	return nil
}

func runSessionsSearch(cmd *cobra.Command, args []string) error {
	store, err := getSessionStore()
	if err != nil {
		return err
	}
	defer store.Close()

	query := strings.Join(args, " ")
	ctx := context.Background()
	results, err := store.Search(ctx, query, 20)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Printf("No results found for '%s'\n", query)
		return nil
	}

	fmt.Printf("Found %d matches for '%s':\n\n", len(results), query)
	for _, r := range results {
		title := r.Title
		if title == "" {
			title = session.ShortID(r.SessionID)
		}
		fmt.Printf("**%s** (%s)\n", title, r.Mode)
		fmt.Printf("  %s\n\n", r.Snippet)
	}

	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	store, err := getSessionStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	sess, err := store.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if sess == nil {
		return fmt.Errorf("session '%s' not found", args[0])
	}

	messages, err := store.GetMessages(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("failed to get messages: %w", err)
	}

	if sessionsJSON {
		data := struct {
			Session  *session.Session  `json:"session"`
			Messages []session.Message `json:"messages"`
		}{
			Session:  sess,
			Messages: messages,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}

	fmt.Printf("Session: %s\n", sess.ID)
	if sess.Title != "" {
		fmt.Printf("Title: %s\n", sess.Title)
	}
	fmt.Printf("Mode: %s\n", sess.Mode)
	if sess.Provider != "" {
		fmt.Printf("Provider: %s\n", sess.Provider)
	}
	if sess.Model != "" {
		fmt.Printf("Model: %s\n", sess.Model)
	}
	fmt.Printf("Created: %s\n", sess.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Updated: %s\n", sess.UpdatedAt.Format(time.RFC3339))
	if sess.TokensIn > 0 || sess.TokensOut > 0 {
		fmt.Printf("Tokens: %s in / %s out\n",
			usage.FormatTokens(int(sess.TokensIn)), usage.FormatTokens(int(sess.TokensOut)))
	}
	if sess.CostUSD > 0 {
		fmt.Printf("Cost: %s\n", usage.FormatCost(sess.CostUSD))
	}
	fmt.Printf("Messages: %d\n", len(messages))
	fmt.Println()

	for _, msg := range messages {
		label := "❯"
		switch {
		case msg.Role == session.RoleSynthesis:
			label = "synthesis:"
		case msg.Agent != "":
			label = msg.Agent + ":"
		case msg.Role == session.RoleAssistant:
			label = "🤖"
		}
		content := msg.Content
		if len(content) > 200 {
			content = content[:197] + "..."
		}
		fmt.Printf("%s %s\n\n", label, content)
	}

	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	store, err := getSessionStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Delete(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	fmt.Printf("Deleted session: %s\n", args[0])
	return nil
}

func runSessionsExport(cmd *cobra.Command, args []string) error {
	store, err := getSessionStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	sess, err := store.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if sess == nil {
		return fmt.Errorf("session '%s' not found", args[0])
	}

	messages, err := store.GetMessages(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("failed to get messages: %w", err)
	}

	var outputPath string
	if len(args) > 1 {
		outputPath = args[1]
	} else {
		name := sess.Title
		if name == "" {
			name = session.ShortID(sess.ID)
		}
		outputPath = fmt.Sprintf("%s.md", name)
	}

	md := session.ExportToMarkdown(sess, messages)
	if err := os.WriteFile(outputPath, []byte(md), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	fmt.Printf("Exported %d messages to %s\n", len(messages), outputPath)
	return nil
}

// formatRelativeTime returns a human-readable relative time string
func formatRelativeTime(t time.Time) string {
	dur := time.Since(t)
	switch {
	case dur < time.Minute:
		return "just now"
	case dur < time.Hour:
		return fmt.Sprintf("%dm ago", int(dur.Minutes()))
	case dur < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(dur.Hours()))
	case dur < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(dur.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

func runSessionsReset(cmd *cobra.Command, args []string) error {
	dbPath, err := session.GetDBPath()
	if err != nil {
		return fmt.Errorf("failed to get database path: %w", err)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No sessions database found.")
		return nil
	}

	fmt.Printf("This will delete ALL transcripts at:\n  %s\n\n", dbPath)
	fmt.Print("Type 'yes' to confirm: ")

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if response != "yes" {
		fmt.Println("Aborted.")
		return nil
	}

	filesToDelete := []string{
		dbPath,
		dbPath + "-wal",
		dbPath + "-shm",
	}

	for _, f := range filesToDelete {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete %s: %w", f, err)
		}
	}

	fmt.Println("Transcript database deleted.")
	return nil
}
