package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/codeswap/codeswap/internal/usage"
)

var modelsProvider string
var modelsJSON bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the server",
	Long: `List the model catalog the server routes to, with per-model pricing
where known.

Examples:
  codeswap models                       # full catalog
  codeswap models --provider anthropic  # one provider
  codeswap models --json                # output as JSON`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().StringVarP(&modelsProvider, "provider", "p", "", "Provider to filter by (anthropic, openai, openrouter)")
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "Output as JSON")
}

func runModels(cmd *cobra.Command, args []string) error {
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

	resp, err := client.ListModels(ctx, modelsProvider)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	if len(resp.Items) == 0 {
		fmt.Println("No models found.")
		return nil
	}

	if modelsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp.Items)
	}

	if resp.Stale {
		reason := resp.StaleReason
		if reason == "" {
			reason = "catalog may be out of date"
		}
		fmt.Fprintf(os.Stderr, "warning: %s\n\n", reason)
	}

	fmt.Println("Available models:")
	fmt.Println()
	for _, m := range resp.Items {
		marker := " "
		if !m.IsActive {
			marker = "inactive"
		}
		rate := usage.Pricing(m.Provider + "/" + m.ModelID)
		fmt.Printf("  %-12s %-40s $%.2f in / $%.2f out per 1M %s\n",
			m.Provider, m.ModelID, rate.Input, rate.Output, marker)
		if !m.LastSyncedAt.IsZero() {
			fmt.Printf("    synced %s\n", m.LastSyncedAt.Format(time.RFC3339))
		}
	}

	fmt.Println()
	fmt.Println("Use a model with: codeswap chat -p <provider> -m <model>")
	return nil
}
