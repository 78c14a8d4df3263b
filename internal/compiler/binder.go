package compiler

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
)

// Bind walks every call site reachable from the root definition,
// resolves each to a tree definition, an impl declaration, or a
// tree-valued parameter, validates arity and parameter kinds, and
// produces the immutable executable program. All errors here are fatal
// to loading; the engine never ticks a partially bound graph.
func Bind(table *SymbolTable) (*runtime.Program, error) {
	roots := table.Roots()
	switch {
	case len(roots) == 0:
		return nil, &BindingError{Msg: "no root tree defined"}
	case len(roots) > 1:
		names := make([]string, len(roots))
		for i, r := range roots {
			names[i] = fmt.Sprintf("%s (%s)", r.Tree.Name, r.Module)
		}
		return nil, &BindingError{Msg: "multiple root trees defined: " + strings.Join(names, ", ")}
	}
	rootDecl := roots[0].Tree
	if len(rootDecl.Params) > 0 {
		return nil, &BindingError{Msg: fmt.Sprintf("root tree %q cannot declare parameters", rootDecl.Name)}
	}

	b := &binder{
		table: table,
		defs:  make(map[*TreeDecl]*runtime.Definition),
		impls: make(map[*ImplDecl]*runtime.Impl),
	}
	rootDef, err := b.bindDecl(rootDecl)
	if err != nil {
		return nil, err
	}
	if err := b.checkRecursion(rootDef); err != nil {
		return nil, err
	}

	program := &runtime.Program{
		Root: &runtime.Node{
			Kind:     runtime.KindRoot,
			Name:     rootDecl.Name,
			Children: []*runtime.Node{rootDef.Body},
			Origin:   origin(rootDecl.Pos, roots[0].Module),
		},
		Defs:  make(map[string]*runtime.Definition),
		Impls: make(map[string]*runtime.Impl),
	}
	for decl, def := range b.defs {
		program.Defs[decl.Name] = def
	}
	for _, mod := range table.Modules() {
		for _, impl := range mod.Impls {
			program.Impls[impl.Name] = b.bindImpl(impl)
		}
	}
	return program, nil
}

type binder struct {
	table *SymbolTable
	defs  map[*TreeDecl]*runtime.Definition
	impls map[*ImplDecl]*runtime.Impl
	edges []defEdge
}

// defEdge is a definition-level call edge used for the unbounded
// recursion check. guarded marks call sites under a retry decorator.
type defEdge struct {
	from    *runtime.Definition
	to      *runtime.Definition
	guarded bool
}

// bindCtx carries the enclosing definition while binding a body.
type bindCtx struct {
	decl    *TreeDecl
	def     *runtime.Definition
	module  string
	guarded bool
}

func origin(pos Pos, file string) runtime.Origin {
	return runtime.Origin{File: file, Line: pos.Line, Col: pos.Col}
}

func (b *binder) bindDecl(decl *TreeDecl) (*runtime.Definition, error) {
	if def, ok := b.defs[decl]; ok {
		return def, nil
	}
	def := &runtime.Definition{Name: decl.Name}
	for _, p := range decl.Params {
		def.Params = append(def.Params, runtime.Param{Name: p.Name, Kind: p.Kind})
	}
	// Pre-register so recursive definitions resolve to themselves.
	b.defs[decl] = def

	module := ""
	if sym, ok := b.table.Lookup(decl.Name); ok {
		module = sym.Module
	}
	ctx := bindCtx{decl: decl, def: def, module: module}
	children, err := b.bindNodes(decl.Body, ctx)
	if err != nil {
		return nil, err
	}

	switch decl.Kind {
	case TreeRoot:
		if len(children) == 1 {
			def.Body = children[0]
		} else {
			// Multiple statements under root run as an implicit sequence.
			def.Body = &runtime.Node{Kind: runtime.KindSequence, Name: decl.Name, Children: children, Origin: origin(decl.Pos, module)}
		}
	case TreeFallback:
		def.Body = &runtime.Node{Kind: runtime.KindFallback, Name: decl.Name, Children: children, Origin: origin(decl.Pos, module)}
	default:
		def.Body = &runtime.Node{Kind: runtime.KindSequence, Name: decl.Name, Children: children, Origin: origin(decl.Pos, module)}
	}
	return def, nil
}

func (b *binder) bindImpl(decl *ImplDecl) *runtime.Impl {
	if impl, ok := b.impls[decl]; ok {
		return impl
	}
	impl := &runtime.Impl{Name: decl.Name}
	for _, p := range decl.Params {
		impl.Params = append(impl.Params, runtime.Param{Name: p.Name, Kind: p.Kind})
	}
	b.impls[decl] = impl
	return impl
}

func (b *binder) bindNodes(nodes []Node, ctx bindCtx) ([]*runtime.Node, error) {
	out := make([]*runtime.Node, 0, len(nodes))
	for _, n := range nodes {
		bound, err := b.bindNode(n, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, bound)
	}
	return out, nil
}

func (b *binder) bindNode(n Node, ctx bindCtx) (*runtime.Node, error) {
	switch t := n.(type) {
	case *Block:
		children, err := b.bindNodes(t.Body, ctx)
		if err != nil {
			return nil, err
		}
		kind := runtime.KindSequence
		if t.Kind == TreeFallback {
			kind = runtime.KindFallback
		}
		return &runtime.Node{Kind: kind, Children: children, Origin: origin(t.Pos, ctx.module)}, nil
	case *Retry:
		guarded := ctx
		guarded.guarded = true
		child, err := b.bindNode(t.Child, guarded)
		if err != nil {
			return nil, err
		}
		return &runtime.Node{Kind: runtime.KindRetry, Limit: t.Limit, Children: []*runtime.Node{child}, Origin: origin(t.Pos, ctx.module)}, nil
	case *Call:
		return b.bindCall(t, ctx)
	}
	return nil, fmt.Errorf("unhandled AST node %T", n)
}

func (b *binder) bindCall(c *Call, ctx bindCtx) (*runtime.Node, error) {
	// Parameters shadow global names.
	if idx, param := findParam(ctx.decl.Params, c.Name); idx >= 0 {
		if param.Kind != domain.KindTree {
			return nil, &TypeError{Def: ctx.decl.Name, Call: c.Name, Pos: c.Pos,
				Msg: fmt.Sprintf("cannot invoke parameter of kind %s as a tree", param.Kind)}
		}
		args, err := b.bindLooseArgs(c.Args, ctx)
		if err != nil {
			return nil, err
		}
		return &runtime.Node{Kind: runtime.KindParamCall, Name: c.Name, Param: idx, Args: args, Origin: origin(c.Pos, ctx.module)}, nil
	}

	if c.Name == "savepoint" {
		if len(c.Args) > 0 || c.Forwarded {
			return nil, &TypeError{Def: ctx.decl.Name, Call: c.Name, Pos: c.Pos, Msg: "savepoint takes no arguments"}
		}
		return &runtime.Node{Kind: runtime.KindSavepoint, Name: c.Name, Origin: origin(c.Pos, ctx.module)}, nil
	}

	sym, ok := b.table.Lookup(c.Name)
	if !ok {
		return nil, &BindingError{Name: c.Name, Def: ctx.decl.Name, Pos: c.Pos}
	}
	switch {
	case sym.Tree != nil:
		def, err := b.bindDecl(sym.Tree)
		if err != nil {
			return nil, err
		}
		args, err := b.alignArgs(c.Name, c.Pos, c.Args, def.Params, false, ctx)
		if err != nil {
			return nil, err
		}
		b.edges = append(b.edges, defEdge{from: ctx.def, to: def, guarded: ctx.guarded})
		return &runtime.Node{Kind: runtime.KindTreeCall, Name: c.Name, Def: def, Args: args, Origin: origin(c.Pos, ctx.module)}, nil
	case sym.Impl != nil:
		impl := b.bindImpl(sym.Impl)
		args, err := b.alignArgs(c.Name, c.Pos, c.Args, impl.Params, false, ctx)
		if err != nil {
			return nil, err
		}
		// Dispatch under the impl's declared name: registration is per
		// impl, aliases are a namespace concern.
		return &runtime.Node{Kind: runtime.KindNativeCall, Name: impl.Name, Args: args, Origin: origin(c.Pos, ctx.module)}, nil
	}
	return nil, &BindingError{Name: c.Name, Def: ctx.decl.Name, Pos: c.Pos}
}

// bindLooseArgs binds arguments whose target signature is only known at
// run time (tree-valued parameter invocations). Kinds are checked when
// the tree value is instantiated.
func (b *binder) bindLooseArgs(args []Arg, ctx bindCtx) ([]runtime.Arg, error) {
	out := make([]runtime.Arg, 0, len(args))
	for _, a := range args {
		bound, err := b.bindValue(a.Value, nil, a.Name, ctx)
		if err != nil {
			return nil, err
		}
		bound.Name = a.Name
		out = append(out, bound)
	}
	return out, nil
}

// alignArgs matches call arguments (positional and named) against a
// parameter list and returns them in declaration order. With partial
// set, a prefix of the parameters may be left for late binding; the
// call is then a tree-value template rather than a direct invocation.
func (b *binder) alignArgs(callee string, pos Pos, args []Arg, params []runtime.Param, partial bool, ctx bindCtx) ([]runtime.Arg, error) {
	slots := make([]*runtime.Arg, len(params))
	positional := 0
	for _, a := range args {
		idx := -1
		if a.Name == "" {
			if positional >= len(params) {
				return nil, &TypeError{Def: ctx.decl.Name, Call: callee, Pos: a.Pos,
					Msg: fmt.Sprintf("too many arguments: %s takes %d", callee, len(params))}
			}
			idx = positional
			positional++
		} else {
			for i, p := range params {
				if p.Name == a.Name {
					idx = i
					break
				}
			}
			if idx < 0 {
				return nil, &TypeError{Def: ctx.decl.Name, Call: callee, Pos: a.Pos,
					Msg: fmt.Sprintf("unknown argument %q", a.Name)}
			}
		}
		if slots[idx] != nil {
			return nil, &TypeError{Def: ctx.decl.Name, Call: callee, Pos: a.Pos,
				Msg: fmt.Sprintf("argument %q assigned twice", params[idx].Name)}
		}
		expected := params[idx].Kind
		bound, err := b.bindValue(a.Value, &expected, params[idx].Name, ctx)
		if err != nil {
			return nil, err
		}
		bound.Name = params[idx].Name
		slots[idx] = &bound
	}

	out := make([]runtime.Arg, 0, len(slots))
	for i, slot := range slots {
		if slot == nil {
			if partial {
				// A gap is only legal as a trailing suffix.
				for _, later := range slots[i:] {
					if later != nil {
						return nil, &TypeError{Def: ctx.decl.Name, Call: callee, Pos: pos,
							Msg: fmt.Sprintf("partial arguments must fill a prefix; %q is missing", params[i].Name)}
					}
				}
				return out, nil
			}
			return nil, &TypeError{Def: ctx.decl.Name, Call: callee, Pos: pos,
				Msg: fmt.Sprintf("missing argument %q", params[i].Name)}
		}
		out = append(out, *slot)
	}
	return out, nil
}

// bindValue binds one argument expression. expected is nil when the
// target signature is unknown (loose binding).
func (b *binder) bindValue(expr Expr, expected *domain.Kind, paramName string, ctx bindCtx) (runtime.Arg, error) {
	switch t := expr.(type) {
	case *Lit:
		if expected != nil && t.Value.Kind() != *expected {
			return runtime.Arg{}, &TypeError{Def: ctx.decl.Name, Call: paramName, Pos: t.Pos,
				Msg: fmt.Sprintf("parameter %q expects %s, got %s", paramName, *expected, t.Value.Kind())}
		}
		return runtime.Arg{Kind: runtime.ArgLiteral, Lit: t.Value}, nil

	case *Ref:
		idx, param := findParam(ctx.decl.Params, t.Name)
		if idx < 0 {
			return runtime.Arg{}, &BindingError{Name: t.Name, Def: ctx.decl.Name, Pos: t.Pos}
		}
		if expected != nil && param.Kind != *expected {
			return runtime.Arg{}, &TypeError{Def: ctx.decl.Name, Call: paramName, Pos: t.Pos,
				Msg: fmt.Sprintf("parameter %q expects %s, but %q is %s", paramName, *expected, t.Name, param.Kind)}
		}
		return runtime.Arg{Kind: runtime.ArgParam, Param: idx}, nil

	case *SubCall:
		if expected != nil && *expected != domain.KindTree {
			return runtime.Arg{}, &TypeError{Def: ctx.decl.Name, Call: paramName, Pos: t.Pos,
				Msg: fmt.Sprintf("parameter %q expects %s, got a tree value", paramName, *expected)}
		}
		if idx, _ := findParam(ctx.decl.Params, t.Name); idx >= 0 {
			return runtime.Arg{}, &TypeError{Def: ctx.decl.Name, Call: t.Name, Pos: t.Pos,
				Msg: fmt.Sprintf("cannot apply arguments to tree parameter %q; pass it bare", t.Name)}
		}
		sym, ok := b.table.Lookup(t.Name)
		if !ok {
			return runtime.Arg{}, &BindingError{Name: t.Name, Def: ctx.decl.Name, Pos: t.Pos}
		}
		switch {
		case sym.Tree != nil:
			def, err := b.bindDecl(sym.Tree)
			if err != nil {
				return runtime.Arg{}, err
			}
			args, err := b.alignArgs(t.Name, t.Pos, t.Args, def.Params, true, ctx)
			if err != nil {
				return runtime.Arg{}, err
			}
			b.edges = append(b.edges, defEdge{from: ctx.def, to: def, guarded: ctx.guarded})
			return runtime.Arg{Kind: runtime.ArgTemplate, Template: &runtime.TreeTemplate{
				Kind: runtime.TemplateDef, Name: t.Name, Def: def, Args: args,
			}}, nil
		case sym.Impl != nil:
			impl := b.bindImpl(sym.Impl)
			args, err := b.alignArgs(t.Name, t.Pos, t.Args, impl.Params, true, ctx)
			if err != nil {
				return runtime.Arg{}, err
			}
			return runtime.Arg{Kind: runtime.ArgTemplate, Template: &runtime.TreeTemplate{
				Kind: runtime.TemplateNative, Name: impl.Name, Native: impl, Args: args,
			}}, nil
		}
		return runtime.Arg{}, &BindingError{Name: t.Name, Def: ctx.decl.Name, Pos: t.Pos}
	}
	return runtime.Arg{}, fmt.Errorf("unhandled argument expression %T", expr)
}

func findParam(params []Param, name string) (int, Param) {
	for i, p := range params {
		if p.Name == name {
			return i, p
		}
	}
	return -1, Param{}
}

// checkRecursion rejects definition cycles with no retry-guarded edge:
// those would expand forever. A cycle that passes through a retry
// decorator is bounded by the retry budget and is permitted.
func (b *binder) checkRecursion(root *runtime.Definition) error {
	adj := make(map[*runtime.Definition][]defEdge)
	for _, e := range b.edges {
		adj[e.from] = append(adj[e.from], e)
	}

	const (
		unvisited = 0
		onStack   = 1
		done      = 2
	)
	state := make(map[*runtime.Definition]int)
	var path []defEdge

	var visit func(def *runtime.Definition) error
	visit = func(def *runtime.Definition) error {
		state[def] = onStack
		for _, e := range adj[def] {
			switch state[e.to] {
			case onStack:
				cycle := []defEdge{e}
				if e.from != e.to {
					for i := len(path) - 1; i >= 0; i-- {
						cycle = append(cycle, path[i])
						if path[i].from == e.to {
							break
						}
					}
				}
				guarded := false
				for _, ce := range cycle {
					if ce.guarded {
						guarded = true
						break
					}
				}
				if !guarded {
					chain := []string{e.to.Name}
					for i := len(cycle) - 1; i >= 0; i-- {
						chain = append(chain, cycle[i].to.Name)
					}
					return &RecursionError{Chain: chain}
				}
			case unvisited:
				path = append(path, e)
				if err := visit(e.to); err != nil {
					return err
				}
				path = path[:len(path)-1]
			}
		}
		state[def] = done
		return nil
	}
	return visit(root)
}
