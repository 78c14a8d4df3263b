package arbor

import (
	"log/slog"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
)

// Engine is the high-level entry point for the Arbor library. It holds
// a fully loaded and bound program; each run is started with
// NewExecution and owns its own blackboard.
type Engine struct {
	program *runtime.Program
	invoker ports.Invoker
	logger  *slog.Logger
	hooks   domain.Hooks
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithInvoker injects the native action dispatcher. Defaults to an
// empty registry, which fails any native call at run time.
func WithInvoker(inv ports.Invoker) Option {
	return func(e *Engine) {
		e.invoker = inv
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHooks registers observability callbacks fired during ticks.
func WithHooks(hooks domain.Hooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// New loads the module at entry through the loader, resolves its
// imports, binds and type-checks every call site reachable from the
// root tree, and returns an engine ready to start executions. All
// static errors surface here; a returned engine cannot fail to load.
func New(entry string, loader ports.SourceLoader, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.invoker == nil {
		eng.invoker = registry.New()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	table, err := compiler.Resolve(loader, entry)
	if err != nil {
		return nil, err
	}
	program, err := compiler.Bind(table)
	if err != nil {
		return nil, err
	}
	eng.program = program
	return eng, nil
}

// NewExecution starts a fresh run of the program with an empty
// blackboard, optionally seeded from params.
func (e *Engine) NewExecution(params map[string]any) (*Execution, error) {
	run, err := runtime.NewExecution(e.program, runtime.Config{
		Invoker: e.invoker,
		Logger:  e.logger,
		Hooks:   e.hooks,
	})
	if err != nil {
		return nil, err
	}
	if len(params) > 0 {
		if err := run.Blackboard().Seed(params); err != nil {
			return nil, err
		}
	}
	return &Execution{run: run}, nil
}

// ImplNames lists every native signature the program declares, bound
// or not. Dry runs stub these.
func (e *Engine) ImplNames() []string {
	return e.program.ImplNames()
}

// Describe flattens the bound program into a node list for export,
// e.g. as a Mermaid diagram.
func (e *Engine) Describe() []domain.GraphNode {
	return e.program.Describe()
}
