package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "conductor",
	Short: "Agent task orchestrator",
	Long: `Conductor decomposes free-form requests into agent-typed subtasks,
schedules them under a bounded-concurrency executor, and drives a
workflow state machine to completion.

Core capabilities:
- Classifies requests and decomposes them into ordered subtasks
- Routes each subtask to a capability handler by agent type
- Admits tasks FIFO under a configurable concurrency bound
- Propagates step outcomes through the workflow state machine
- Publishes task and workflow lifecycle events`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
