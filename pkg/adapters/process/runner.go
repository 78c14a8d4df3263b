package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
)

// Runner turns allow-listed commands into native actions. Call
// arguments are passed to the process as a JSON object on stdin; exit
// code zero reads as Success, anything else as Failure.
type Runner struct {
	actions map[string]Config
	baseDir string
	logger  *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithLogger sets the logger for process output.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a runner over the loaded allow-list.
func NewRunner(actions map[string]Config, opts ...RunnerOption) *Runner {
	r := &Runner{
		actions: actions,
		logger:  slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterAll binds every allow-listed command into reg under its
// declared name.
func (r *Runner) RegisterAll(reg *registry.Registry) {
	for name := range r.actions {
		cfg := r.actions[name]
		reg.Register(name, r.action(cfg))
	}
}

func (r *Runner) action(cfg Config) registry.ActionFunc {
	return func(ctx context.Context, args domain.Args, bb *domain.Blackboard) (domain.Status, error) {
		input, err := json.Marshal(args.Interfaces())
		if err != nil {
			return domain.StatusFailure, fmt.Errorf("encode args for %s: %w", cfg.Name, err)
		}

		cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
		cmd.Dir = r.baseDir
		cmd.Stdin = bytes.NewReader(input)
		cmd.Env = os.Environ()
		for k, v := range cfg.Environment {
			cmd.Env = append(cmd.Env, k+"="+v)
		}

		out, err := cmd.CombinedOutput()
		if len(out) > 0 {
			r.logger.Debug("process output", "action", cfg.Name, "output", string(out))
		}
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				r.logger.Info("process failed", "action", cfg.Name, "code", exitErr.ExitCode())
				return domain.StatusFailure, nil
			}
			return domain.StatusFailure, fmt.Errorf("run %s: %w", cfg.Name, err)
		}
		return domain.StatusSuccess, nil
	}
}
