package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <entry.tree>",
	Short: "Export the tree visualization",
	Long:  `Loads the tree and outputs a Mermaid diagram (graph TD) of its structure.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, err := loadEngine(args[0])
		if err != nil {
			fmt.Printf("Error loading tree: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(graph.GenerateMermaid(engine.Describe()))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
