package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/conductor/internal/config"
	"github.com/ShayCichocki/conductor/internal/orchestrator"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the agent catalog",
	Long:  `List every registered agent type with its preferred models and resolved provider.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		registry := orchestrator.NewAgentRegistry(orchestrator.RegistryConfig{
			DefaultModel:     cfg.Models.Default,
			DefaultProvider:  cfg.Models.DefaultProvider,
			PreferOpenSource: cfg.Models.PreferOpenSource,
		})

		bold := color.New(color.Bold)
		for _, agent := range registry.All() {
			model := registry.SelectModel(agent)
			bold.Printf("%-14s", agent.Type)
			fmt.Printf(" %s (%s)\n", model, registry.ResolveProvider(model))
			if len(agent.PreferredModels) > 1 {
				fmt.Printf("               preferred: %s\n", strings.Join(agent.PreferredModels, ", "))
			}
		}
		return nil
	},
}
