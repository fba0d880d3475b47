package cmd

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Backend server URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "Backend auth token (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&showStats, "stats", false, "Show session statistics (tokens, cost)")
	rootCmd.PersistentFlags().BoolVar(&noSave, "no-save", false, "Do not record the transcript locally")
	rootCmd.PersistentFlags().StringVar(&cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	rootCmd.PersistentFlags().StringVar(&memProfile, "memprofile", "", "Write memory profile to file")
}

var rootCmd = &cobra.Command{
	Use:   "codeswap",
	Short: "Stream chats, A/B comparisons and crew runs from a codeswap server",
	Long: `codeswap talks to a codeswap backend to stream LLM responses in your
terminal: single chats, side-by-side model comparisons, and multi-agent
crew runs with live cost tracking.

Examples:
  codeswap chat "explain this stack trace"
  codeswap compare "write a haiku about Go" --left anthropic/claude-sonnet-4.5 --right openai/gpt-5
  codeswap crew "research and summarize QUIC" --crew default
  codeswap usage                        # spend summary
  codeswap sessions list                # saved transcripts`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return startProfiling()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return stopProfiling()
	},
}

var serverFlag string
var tokenFlag string
var showStats bool
var noSave bool
var cpuProfile string
var memProfile string
var cpuProfileFile *os.File

func startProfiling() error {
	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			return err
		}
		cpuProfileFile = f
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return err
		}
	}
	return nil
}

func stopProfiling() error {
	if cpuProfileFile != nil {
		pprof.StopCPUProfile()
		cpuProfileFile.Close()
	}
	if memProfile != "" {
		f, err := os.Create(memProfile)
		if err != nil {
			return err
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return err
		}
	}
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
