package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/actions"
	"github.com/aretw0/arbor/pkg/registry"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <entry.tree>",
	Short: "Run a behavior tree to completion",
	Long:  `Loads the tree file, registers the builtin actions, and ticks the root until it settles on Success or Failure.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runTree(cmd, args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("params", "", "YAML file with initial blackboard values")
	runCmd.Flags().Bool("dry-run", false, "Stub unbound native actions with success")
	runCmd.Flags().Int("max-ticks", arbor.DefaultMaxTicks, "Abort after this many ticks")
}

func runTree(cmd *cobra.Command, entry string) error {
	logger := newLogger(cmd)

	reg := registry.New()
	actions.RegisterBuiltins(reg, logger)

	engine, err := loadEngine(entry, arbor.WithInvoker(reg), arbor.WithLogger(logger))
	if err != nil {
		return err
	}

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		reg.StubUnbound(engine.ImplNames())
	}

	params, err := loadParams(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	maxTicks, _ := cmd.Flags().GetInt("max-ticks")
	status, err := engine.Run(ctx, params, maxTicks)
	if err != nil {
		return err
	}
	fmt.Println(status)
	return nil
}

func loadParams(cmd *cobra.Command) (map[string]any, error) {
	path, _ := cmd.Flags().GetString("params")
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read params: %w", err)
	}
	params := make(map[string]any)
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("parse params: %w", err)
	}
	return params, nil
}
