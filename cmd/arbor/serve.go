package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/actions"
	httpAdapter "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/aretw0/arbor/pkg/registry"
)

var serveCmd = &cobra.Command{
	Use:   "serve <entry.tree>",
	Short: "Serve a tree over HTTP",
	Long:  `Loads the tree and exposes executions over a JSON API: create a run, tick it, and inspect its blackboard.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := serveTree(cmd, args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Bool("dry-run", false, "Stub unbound native actions with success")
}

func serveTree(cmd *cobra.Command, entry string) error {
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

	port, _ := cmd.Flags().GetString("port")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: httpAdapter.NewHandler(engine, logger),
	}

	serverErrors := make(chan error, 1)
	go func() {
		fmt.Printf("Starting Arbor server on %s\n", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err
	case sig := <-shutdown:
		fmt.Printf("\nStart shutdown... Signal: %v\n", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			if closeErr := srv.Close(); closeErr != nil {
				return fmt.Errorf("shutdown: %w (close: %v)", err, closeErr)
			}
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	fmt.Println("Arbor server stopped gracefully")
	return nil
}
