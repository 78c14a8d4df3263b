package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// maxExpansionDepth is a backstop against recursion the bind-time check
// could not see (e.g. through dynamically forwarded tree values).
const maxExpansionDepth = 1024

// Config carries the collaborators of one execution.
type Config struct {
	Invoker ports.Invoker
	Logger  *slog.Logger
	Hooks   domain.Hooks
}

// Execution runs one bound program against one blackboard. It is
// single-threaded and cooperative: Tick advances exactly one
// synchronous pass, and a Running result means the driver should tick
// again. Executions are not safe for concurrent use; run concurrent
// trees with separate executions.
type Execution struct {
	program *Program
	invoker ports.Invoker
	logger  *slog.Logger
	hooks   domain.Hooks

	bb     *domain.Blackboard
	sp     savepoints
	root   *instance
	nextID int
	ticks  int
}

// NewExecution prepares a fresh run of the program. The bound graph is
// shared; all per-run state lives here.
func NewExecution(p *Program, cfg Config) (*Execution, error) {
	if cfg.Invoker == nil {
		return nil, fmt.Errorf("an invoker is required to execute native leaves")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Execution{
		program: p,
		invoker: cfg.Invoker,
		logger:  logger,
		hooks:   cfg.Hooks,
		bb:      domain.NewBlackboard(),
	}, nil
}

// Blackboard exposes the execution's shared context. Hosts may seed it
// before the first tick and inspect it after a terminal status, but
// must not mutate it while a tick is in flight.
func (e *Execution) Blackboard() *domain.Blackboard { return e.bb }

// Ticks returns how many root ticks have run.
func (e *Execution) Ticks() int { return e.ticks }

// Tick advances the tree by one synchronous pass and returns the root
// status. After a terminal status the instance tree has been reset, so
// a further Tick starts a fresh run over the same blackboard.
// Errors are fatal to the execution (unbound natives, invariant
// violations); a plain task failure is StatusFailure, not an error.
func (e *Execution) Tick(ctx context.Context) (domain.Status, error) {
	if e.root == nil {
		e.root = e.newInstance(e.program.Root, &scope{})
	}
	status, err := e.tick(ctx, e.root, nil, 0)
	if err != nil {
		return domain.StatusFailure, err
	}
	e.ticks++
	if e.hooks.OnTick != nil {
		e.hooks.OnTick(e.ticks, status)
	}
	e.logger.Debug("tick completed", "tick", e.ticks, "status", status)
	return status, nil
}

// Cancel notifies natives on the currently running path that the
// driver stopped ticking. It is a no-op when nothing is running.
func (e *Execution) Cancel(ctx context.Context) error {
	var firstErr error
	var walk func(in *instance)
	walk = func(in *instance) {
		if in == nil || !in.running {
			return
		}
		if in.leaf != "" {
			if err := e.invoker.Cancel(ctx, in.leaf); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		for _, c := range in.children {
			walk(c)
		}
		walk(in.sub)
	}
	walk(e.root)
	return firstErr
}

// instance is the per-run state of one graph node: cursor, retry
// counter, lazily built children, and the argument scope it runs in.
type instance struct {
	node  *Node
	scope *scope
	id    int

	children []*instance
	sub      *instance // instantiated subtree for call nodes
	cursor   int
	attempts int
	entered  bool
	spMark   int
	running  bool
	leaf     string // native name last dispatched, for cancellation
}

func (in *instance) reset() {
	in.children = nil
	in.sub = nil
	in.cursor = 0
	in.attempts = 0
	in.entered = false
	in.running = false
	in.leaf = ""
}

// scope binds a definition's parameters to evaluated values.
type scope struct {
	def    *Definition
	values []domain.Value
}

// treeValue is the runtime half of a first-class tree value: the bound
// template plus the scope its partial arguments close over. Invocation
// re-evaluates nothing eagerly; the caller's live blackboard flows in
// at tick time.
type treeValue struct {
	template *TreeTemplate
	scope    *scope
}

func (t *treeValue) TreeName() string { return t.template.Name }

func (e *Execution) newInstance(node *Node, sc *scope) *instance {
	e.nextID++
	return &instance{node: node, scope: sc, id: e.nextID}
}

func (e *Execution) ensureChildren(in *instance) {
	if in.children != nil {
		return
	}
	in.children = make([]*instance, len(in.node.Children))
	for i, child := range in.node.Children {
		in.children[i] = e.newInstance(child, in.scope)
	}
}

// tick dispatches one node. seq is the innermost enclosing sequence
// instance on the current dynamic path; savepoints attach to it.
func (e *Execution) tick(ctx context.Context, in *instance, seq *instance, depth int) (domain.Status, error) {
	if err := ctx.Err(); err != nil {
		return domain.StatusFailure, err
	}
	if depth > maxExpansionDepth {
		return domain.StatusFailure, fmt.Errorf("%s: expansion depth exceeded (%d); runaway recursion?", in.node.Origin, maxExpansionDepth)
	}

	var status domain.Status
	var err error
	switch in.node.Kind {
	case KindRoot:
		e.ensureChildren(in)
		status, err = e.tick(ctx, in.children[0], nil, depth+1)
		if err == nil && status.Terminal() {
			in.reset()
		}
	case KindSequence:
		status, err = e.tickSequence(ctx, in, depth)
	case KindFallback:
		status, err = e.tickFallback(ctx, in, seq, depth)
	case KindRetry:
		status, err = e.tickRetry(ctx, in, seq, depth)
	case KindSavepoint:
		status, err = e.tickSavepoint(in, seq)
	case KindNativeCall:
		status, err = e.tickNative(ctx, in)
	case KindTreeCall:
		status, err = e.tickTreeCall(ctx, in, seq, depth)
	case KindParamCall:
		status, err = e.tickParamCall(ctx, in, seq, depth)
	default:
		return domain.StatusFailure, fmt.Errorf("%s: unknown node kind %v", in.node.Origin, in.node.Kind)
	}
	if err != nil {
		return domain.StatusFailure, err
	}
	in.running = status == domain.StatusRunning
	return status, nil
}

// tickSequence runs children in order. A child failure fails the whole
// sequence immediately and rolls back any checkpoint opened within its
// dynamic extent; a running child suspends the cursor for the next
// tick.
func (e *Execution) tickSequence(ctx context.Context, in *instance, depth int) (domain.Status, error) {
	if !in.entered {
		in.entered = true
		in.spMark = e.sp.size()
	}
	e.ensureChildren(in)
	for in.cursor < len(in.children) {
		status, err := e.tick(ctx, in.children[in.cursor], in, depth+1)
		if err != nil {
			return domain.StatusFailure, err
		}
		switch status {
		case domain.StatusRunning:
			return domain.StatusRunning, nil
		case domain.StatusFailure:
			restored, rerr := e.sp.rollback(in.spMark, in.id, e.bb)
			if rerr != nil {
				return domain.StatusFailure, fmt.Errorf("%s: %w", in.node.Origin, rerr)
			}
			if restored {
				e.logger.Debug("sequence failed, blackboard rolled back", "node", in.node.Name)
			}
			if e.hooks.OnRollback != nil {
				e.hooks.OnRollback(restored)
			}
			in.reset()
			return domain.StatusFailure, nil
		}
		in.cursor++
	}
	if err := e.sp.commit(in.spMark); err != nil {
		return domain.StatusFailure, fmt.Errorf("%s: %w", in.node.Origin, err)
	}
	in.reset()
	return domain.StatusSuccess, nil
}

// tickFallback tries children in order until one succeeds. Failure of
// a child is expected and triggers no rollback.
func (e *Execution) tickFallback(ctx context.Context, in *instance, seq *instance, depth int) (domain.Status, error) {
	e.ensureChildren(in)
	for in.cursor < len(in.children) {
		status, err := e.tick(ctx, in.children[in.cursor], seq, depth+1)
		if err != nil {
			return domain.StatusFailure, err
		}
		switch status {
		case domain.StatusRunning:
			return domain.StatusRunning, nil
		case domain.StatusSuccess:
			in.reset()
			return domain.StatusSuccess, nil
		}
		in.cursor++
	}
	in.reset()
	return domain.StatusFailure, nil
}

// tickRetry re-attempts its child up to Limit extra times. Retries are
// immediate and synchronous; a running child propagates without
// consuming an attempt.
func (e *Execution) tickRetry(ctx context.Context, in *instance, seq *instance, depth int) (domain.Status, error) {
	e.ensureChildren(in)
	for {
		status, err := e.tick(ctx, in.children[0], seq, depth+1)
		if err != nil {
			return domain.StatusFailure, err
		}
		switch status {
		case domain.StatusRunning:
			return domain.StatusRunning, nil
		case domain.StatusSuccess:
			in.reset()
			return domain.StatusSuccess, nil
		}
		if in.attempts >= in.node.Limit {
			in.reset()
			return domain.StatusFailure, nil
		}
		in.attempts++
		in.children[0].reset()
		e.logger.Debug("retrying child", "attempt", in.attempts, "limit", in.node.Limit)
	}
}

// tickSavepoint opens a checkpoint scoped to the innermost enclosing
// sequence. It always succeeds.
func (e *Execution) tickSavepoint(in *instance, seq *instance) (domain.Status, error) {
	if seq == nil {
		return domain.StatusFailure, fmt.Errorf("%s: savepoint() outside of any sequence", in.node.Origin)
	}
	e.sp.open(seq.id, e.bb)
	e.logger.Debug("checkpoint opened", "scope", seq.id, "keys", e.bb.Len())
	return domain.StatusSuccess, nil
}

func (e *Execution) tickNative(ctx context.Context, in *instance) (domain.Status, error) {
	args, err := e.evalArgs(in.scope, in.node.Args)
	if err != nil {
		return domain.StatusFailure, fmt.Errorf("%s: %w", in.node.Origin, err)
	}
	return e.invokeLeaf(ctx, in, in.node.Name, args)
}

func (e *Execution) invokeLeaf(ctx context.Context, in *instance, name string, args domain.Args) (domain.Status, error) {
	in.leaf = name
	status, err := e.invoker.Invoke(ctx, name, args, e.bb)
	if e.hooks.OnLeaf != nil {
		e.hooks.OnLeaf(name, status, err)
	}
	if err != nil {
		return domain.StatusFailure, fmt.Errorf("%s: native %q: %w", in.node.Origin, name, err)
	}
	e.logger.Debug("leaf ticked", "name", name, "status", status)
	return status, nil
}

func (e *Execution) tickTreeCall(ctx context.Context, in *instance, seq *instance, depth int) (domain.Status, error) {
	if in.sub == nil {
		values, err := e.evalValues(in.scope, in.node.Args)
		if err != nil {
			return domain.StatusFailure, fmt.Errorf("%s: %w", in.node.Origin, err)
		}
		in.sub = e.newInstance(in.node.Def.Body, &scope{def: in.node.Def, values: values})
	}
	status, err := e.tick(ctx, in.sub, seq, depth+1)
	if err != nil {
		return domain.StatusFailure, err
	}
	if status.Terminal() {
		in.sub = nil
	}
	return status, nil
}

// tickParamCall invokes the tree value held by a parameter slot: the
// template's partial arguments (closed over their defining scope) are
// combined with this call site's trailing arguments and the live
// blackboard.
func (e *Execution) tickParamCall(ctx context.Context, in *instance, seq *instance, depth int) (domain.Status, error) {
	held := in.scope.values[in.node.Param]
	ref, ok := held.AsTree()
	if !ok {
		return domain.StatusFailure, fmt.Errorf("%s: parameter %q does not hold a tree value", in.node.Origin, in.node.Name)
	}
	tv, ok := ref.(*treeValue)
	if !ok {
		return domain.StatusFailure, fmt.Errorf("%s: parameter %q holds a foreign tree reference", in.node.Origin, in.node.Name)
	}

	switch tv.template.Kind {
	case TemplateNative:
		partial, err := e.evalArgs(tv.scope, tv.template.Args)
		if err != nil {
			return domain.StatusFailure, fmt.Errorf("%s: %w", in.node.Origin, err)
		}
		extra, err := e.evalArgs(in.scope, in.node.Args)
		if err != nil {
			return domain.StatusFailure, fmt.Errorf("%s: %w", in.node.Origin, err)
		}
		return e.invokeLeaf(ctx, in, tv.template.Name, append(partial, extra...))
	case TemplateDef:
		if in.sub == nil {
			def := tv.template.Def
			partial, err := e.evalValues(tv.scope, tv.template.Args)
			if err != nil {
				return domain.StatusFailure, fmt.Errorf("%s: %w", in.node.Origin, err)
			}
			extra, err := e.evalValues(in.scope, in.node.Args)
			if err != nil {
				return domain.StatusFailure, fmt.Errorf("%s: %w", in.node.Origin, err)
			}
			values := append(partial, extra...)
			if len(values) != len(def.Params) {
				return domain.StatusFailure, fmt.Errorf("%s: tree value %q expects %d arguments, got %d",
					in.node.Origin, def.Name, len(def.Params), len(values))
			}
			for i, v := range values {
				if v.Kind() != def.Params[i].Kind {
					return domain.StatusFailure, fmt.Errorf("%s: tree value %q parameter %q expects %s, got %s",
						in.node.Origin, def.Name, def.Params[i].Name, def.Params[i].Kind, v.Kind())
				}
			}
			in.sub = e.newInstance(def.Body, &scope{def: def, values: values})
		}
		status, err := e.tick(ctx, in.sub, seq, depth+1)
		if err != nil {
			return domain.StatusFailure, err
		}
		if status.Terminal() {
			in.sub = nil
		}
		return status, nil
	}
	return domain.StatusFailure, fmt.Errorf("%s: unknown tree template kind", in.node.Origin)
}

func (e *Execution) evalArgs(sc *scope, args []Arg) (domain.Args, error) {
	out := make(domain.Args, len(args))
	for i, a := range args {
		v, err := e.evalArg(sc, a)
		if err != nil {
			return nil, err
		}
		out[i] = domain.Arg{Name: a.Name, Value: v}
	}
	return out, nil
}

func (e *Execution) evalValues(sc *scope, args []Arg) ([]domain.Value, error) {
	out := make([]domain.Value, len(args))
	for i, a := range args {
		v, err := e.evalArg(sc, a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *Execution) evalArg(sc *scope, a Arg) (domain.Value, error) {
	switch a.Kind {
	case ArgLiteral:
		// Literals live in the shared program; clone so natives cannot
		// mutate them across executions.
		return a.Lit.Clone(), nil
	case ArgParam:
		if sc == nil || a.Param >= len(sc.values) {
			return domain.Value{}, fmt.Errorf("argument %q references parameter slot %d outside its scope", a.Name, a.Param)
		}
		return sc.values[a.Param], nil
	case ArgTemplate:
		return domain.Tree(&treeValue{template: a.Template, scope: sc}), nil
	}
	return domain.Value{}, fmt.Errorf("unknown argument kind %d", a.Kind)
}
