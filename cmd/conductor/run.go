package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/conductor/internal/config"
	"github.com/ShayCichocki/conductor/internal/orchestrator"
	"github.com/ShayCichocki/conductor/internal/provider"
	"github.com/ShayCichocki/conductor/pkg/models"
)

var (
	runProjectID string
	runDebugLog  bool
)

var runCmd = &cobra.Command{
	Use:   "run <request>",
	Short: "Process a request with agent orchestration",
	Long: `Process a free-form request.

A question ("query" intent) is answered directly. Anything else is
decomposed into a workflow of agent-typed steps; each step spawns a
task once its dependencies complete, and tasks run under the configured
concurrency bound. Lifecycle events are printed as they happen.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRequest,
}

func init() {
	runCmd.Flags().StringVar(&runProjectID, "project", "", "Project ID attached to spawned tasks")
	runCmd.Flags().BoolVar(&runDebugLog, "debug-log", false, "Write a debug log to .conductor/logs")
}

func runRequest(cmd *cobra.Command, args []string) error {
	request := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	apiKey, err := config.GetAPIKey(cfg)
	if err != nil && !cfg.Anthropic.UseBedrock {
		return err
	}

	client, err := provider.NewAnthropicClient(provider.ClientConfig{
		APIKey:     apiKey,
		UseBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:  cfg.Anthropic.AWSRegion,
		AWSProfile: cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return fmt.Errorf("create anthropic client: %w", err)
	}

	var opts []orchestrator.Option
	if runDebugLog {
		logger, lerr := orchestrator.NewDebugLogger(filepath.Join(".conductor", "logs", "debug.log"))
		if lerr == nil {
			defer logger.Close()
			opts = append(opts, orchestrator.WithLogger(logger))
		}
	}

	orch := orchestrator.New(cfg, client, client, opts...)
	subscribeEventPrinters(orch)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch.Start(ctx)
	defer orch.Close()

	result, err := orch.ProcessMessage(ctx, request, runProjectID)
	if err != nil {
		return err
	}

	if result.Workflow == nil {
		fmt.Println(result.Response)
		return nil
	}

	color.New(color.FgCyan).Printf("%s\n", result.Response)

	final, err := orch.WaitForWorkflow(ctx, result.Workflow.ID)
	if err != nil {
		return err
	}

	fmt.Println()
	for _, step := range final.Steps {
		mark := color.New(color.FgGreen).Sprint("✓")
		if step.Error != "" {
			mark = color.New(color.FgRed).Sprint("✗")
		}
		fmt.Printf("%s %s\n", mark, step.Name)
		if step.Result != nil && step.Result.Content != "" {
			fmt.Println(indent(step.Result.Content, "  "))
		}
		if step.Error != "" {
			color.New(color.FgRed).Printf("  %s\n", step.Error)
		}
	}

	if final.Status != models.WorkflowStatusCompleted {
		return fmt.Errorf("workflow %s %s", final.ID, final.Status)
	}
	return nil
}

// subscribeEventPrinters prints lifecycle transitions as they happen.
func subscribeEventPrinters(orch *orchestrator.Orchestrator) {
	yellow := color.New(color.FgYellow)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	orch.Subscribe(orchestrator.EventTaskStarted, func(e orchestrator.Event) {
		yellow.Printf("→ task %s started\n", e.TaskID)
	})
	orch.Subscribe(orchestrator.EventTaskCompleted, func(e orchestrator.Event) {
		green.Printf("✓ task %s completed\n", e.TaskID)
	})
	orch.Subscribe(orchestrator.EventTaskFailed, func(e orchestrator.Event) {
		red.Printf("✗ task %s failed: %s\n", e.TaskID, e.Error)
	})
}

// indent prefixes every line of s.
func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
