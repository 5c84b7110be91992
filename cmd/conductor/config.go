package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/conductor/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		fmt.Printf("config file:            %s\n", config.GetUserConfigPath())
		fmt.Printf("max_concurrent_tasks:   %d\n", cfg.Scheduler.MaxConcurrentTasks)
		fmt.Printf("tick_interval:          %s\n", cfg.Scheduler.TickInterval)
		fmt.Printf("default model:          %s\n", cfg.Models.Default)
		fmt.Printf("default provider:       %s\n", cfg.Models.DefaultProvider)
		fmt.Printf("prefer_open_source:     %v\n", cfg.Models.PreferOpenSource)
		fmt.Printf("use_bedrock:            %v\n", cfg.Anthropic.UseBedrock)
		fmt.Printf("retry.max_attempts:     %d (not applied by the core)\n", cfg.Retry.MaxAttempts)
		fmt.Printf("retry.delay:            %s (not applied by the core)\n", cfg.Retry.Delay)

		if _, err := config.GetAPIKey(cfg); err != nil {
			fmt.Println("api key:                not configured")
		} else {
			fmt.Println("api key:                configured")
		}
		return nil
	},
}
