package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeswap/codeswap/internal/crew"
)

var crewsCmd = &cobra.Command{
	Use:   "crews",
	Short: "Manage crew definitions",
	Long: `List and inspect crew definitions. Crews are YAML files describing an
orchestrator and its specialist agents.

Examples:
  codeswap crews                 # list crews
  codeswap crews show default    # print one definition
  codeswap crews init            # write the built-in default crew`,
	RunE: runCrewsList,
}

var crewsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a crew definition",
	Args:  cobra.ExactArgs(1),
	RunE:  runCrewsShow,
}

var crewsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the built-in default crew definition",
	RunE:  runCrewsInit,
}

func init() {
	crewsCmd.AddCommand(crewsShowCmd)
	crewsCmd.AddCommand(crewsInitCmd)
	rootCmd.AddCommand(crewsCmd)
}

func runCrewsList(cmd *cobra.Command, args []string) error {
	names, err := crew.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		dir, _ := crew.Dir()
		fmt.Printf("No crews found in %s.\nRun 'codeswap crews init' to create the default crew.\n", dir)
		return nil
	}
	for _, name := range names {
		cfg, err := crew.Load(name)
		if err != nil {
			fmt.Printf("  %-16s (invalid: %v)\n", name, err)
			continue
		}
		fmt.Printf("  %-16s %d agents, budget $%.2f", name, len(cfg.Agents), cfg.BudgetLimitUSD)
		if cfg.Description != "" {
			fmt.Printf("  %s", cfg.Description)
		}
		fmt.Println()
	}
	return nil
}

func runCrewsShow(cmd *cobra.Command, args []string) error {
	cfg, err := crew.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Crew: %s\n", cfg.Name)
	if cfg.Description != "" {
		fmt.Printf("Description: %s\n", cfg.Description)
	}
	fmt.Printf("Budget: $%.2f\n", cfg.BudgetLimitUSD)
	fmt.Printf("Orchestrator: %s\n\n", cfg.Orchestrator)

	fmt.Println("Agents:")
	names := append([]string{cfg.Orchestrator}, cfg.Specialists()...)
	for _, name := range names {
		agent := cfg.Agents[name]
		fmt.Printf("  %s (%s, %s, max %d tokens)\n", name, agent.Role, agent.Model, agent.MaxTokens)
		if agent.SystemPrompt != "" {
			fmt.Printf("    %s\n", agent.SystemPrompt)
		}
	}
	return nil
}

func runCrewsInit(cmd *cobra.Command, args []string) error {
	path, err := crew.Save(crew.DefaultCrew())
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
