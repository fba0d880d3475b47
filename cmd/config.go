package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeswap/codeswap/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the active configuration",
	Long: `Show the resolved configuration and where it came from.

Examples:
  codeswap config        # show current settings
  codeswap config init   # write a starter config file`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path, _ := config.GetConfigPath()

	if config.Exists() {
		fmt.Printf("Config file: %s\n\n", path)
	} else {
		fmt.Printf("Config file: %s (not written, using defaults)\n\n", path)
	}

	fmt.Printf("server.url:   %s\n", cfg.Server.URL)
	token := "(not set)"
	if cfg.Server.Token != "" {
		token = "(set)"
	}
	fmt.Printf("server.token: %s\n\n", token)

	fmt.Printf("chat:         %s/%s\n", cfg.Chat.Provider, cfg.Chat.Model)
	fmt.Printf("compare.left:  %s/%s\n", cfg.Compare.Left.Provider, cfg.Compare.Left.Model)
	fmt.Printf("compare.right: %s/%s\n", cfg.Compare.Right.Provider, cfg.Compare.Right.Model)
	fmt.Printf("crew:         %s (budget $%.2f)\n", cfg.Crew.Name, cfg.Crew.BudgetLimitUSD)

	key := "(not set)"
	if cfg.Keys.OpenRouter != "" {
		key = "(set)"
	}
	fmt.Printf("keys.mode:    %s, openrouter key %s\n", cfg.Keys.Mode, key)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if config.Exists() {
		path, _ := config.GetConfigPath()
		return fmt.Errorf("config already exists at %s", path)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	path, _ := config.GetConfigPath()
	fmt.Printf("Wrote %s\n", path)
	return nil
}
