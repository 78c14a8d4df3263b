package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	fsAdapter "github.com/aretw0/arbor/pkg/adapters/fs"
	"github.com/aretw0/arbor/pkg/ports"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor is a scriptable behavior tree engine",
	Long:  `Arbor loads behavior trees written in the .tree language, binds them to native actions, and ticks them to completion.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return logging.New(level)
}

// loadEngine opens the entry file with a filesystem loader rooted at
// its directory, so sibling imports resolve naturally.
func loadEngine(entry string, opts ...arbor.Option) (*arbor.Engine, error) {
	var loader ports.SourceLoader = fsAdapter.NewLoader(filepath.Dir(entry))
	return arbor.New(filepath.Base(entry), loader, opts...)
}
