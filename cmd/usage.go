package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/codeswap/codeswap/internal/usage"
)

var usageDay string

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show token and cost usage",
	Long: `Show the server's account-level usage rollup plus today's local
usage log.

Examples:
  codeswap usage
  codeswap usage --day 2026-08-20`,
	RunE: runUsage,
}

func init() {
	usageCmd.Flags().StringVar(&usageDay, "day", "", "Local log day to show (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, args []string) error {
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

	summary, err := client.UsageSummary(ctx)
	if err != nil {
		fmt.Printf("server summary unavailable: %v\n\n", err)
	} else {
		fmt.Println("Account usage:")
		fmt.Printf("  requests: %d\n", summary.TotalRequests)
		fmt.Printf("  tokens:   %s in / %s out\n",
			usage.FormatTokens(summary.TotalTokensIn),
			usage.FormatTokens(summary.TotalTokensOut))
		fmt.Printf("  cost:     %s\n\n", usage.FormatCost(summary.TotalCostUSD))
	}

	day := time.Now()
	if usageDay != "" {
		day, err = time.Parse("2006-01-02", usageDay)
		if err != nil {
			return fmt.Errorf("invalid --day %q: expected YYYY-MM-DD", usageDay)
		}
	}

	entries, err := usage.DefaultLogger().ReadDay(day)
	if err != nil {
		return fmt.Errorf("read local usage log: %w", err)
	}
	if len(entries) == 0 {
		fmt.Printf("No local usage recorded on %s.\n", day.Format("2006-01-02"))
		return nil
	}

	fmt.Printf("Local usage on %s:\n", day.Format("2006-01-02"))
	var tokensIn, tokensOut int
	var cost float64
	for _, e := range entries {
		tokensIn += e.TokensIn
		tokensOut += e.TokensOut
		cost += e.CostUSD
		est := ""
		if e.Estimated {
			est = " (est)"
		}
		model := e.Model
		if e.Provider != "" {
			model = e.Provider + "/" + e.Model
		}
		fmt.Printf("  %-8s %-40s %s in / %s out  %s%s\n",
			e.Mode, model,
			usage.FormatTokens(e.TokensIn), usage.FormatTokens(e.TokensOut),
			usage.FormatCost(e.CostUSD), est)
	}
	fmt.Printf("  total: %s in / %s out  %s\n",
		usage.FormatTokens(tokensIn), usage.FormatTokens(tokensOut), usage.FormatCost(cost))
	return nil
}
