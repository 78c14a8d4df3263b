package runtime

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

// NodeKind tags the variants of the bound, executable graph. Call
// targets are resolved once at bind time; the tick loop never looks a
// name up.
type NodeKind uint8

const (
	KindRoot NodeKind = iota
	KindSequence
	KindFallback
	KindRetry
	KindSavepoint
	KindTreeCall
	KindNativeCall
	KindParamCall
)

func (k NodeKind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindSequence:
		return "sequence"
	case KindFallback:
		return "fallback"
	case KindRetry:
		return "retry"
	case KindSavepoint:
		return "savepoint"
	case KindTreeCall:
		return "call"
	case KindNativeCall:
		return "native"
	case KindParamCall:
		return "param"
	}
	return fmt.Sprintf("node(%d)", uint8(k))
}

// Origin records where a node came from, for runtime error messages.
type Origin struct {
	File string
	Line int
	Col  int
}

func (o Origin) String() string {
	if o.File == "" {
		return fmt.Sprintf("%d:%d", o.Line, o.Col)
	}
	return fmt.Sprintf("%s:%d:%d", o.File, o.Line, o.Col)
}

// Node is one element of the immutable bound graph. The graph carries
// no per-run state and may be shared across executions; cursors, retry
// counters and argument scopes live in per-execution instances.
type Node struct {
	Kind     NodeKind
	Name     string // call target, definition name, or empty
	Children []*Node
	Limit    int   // retry attempt limit
	Args     []Arg // call arguments, aligned to the target's parameters
	Def      *Definition
	Param    int // parameter slot for KindParamCall
	Origin   Origin
}

// Definition is a bound tree template: its parameter signature and its
// composite body.
type Definition struct {
	Name   string
	Params []Param
	Body   *Node
}

// Param is a bound parameter.
type Param struct {
	Name string
	Kind domain.Kind
}

// ArgKind tags the variants of a bound argument value.
type ArgKind uint8

const (
	// ArgLiteral is a constant folded at bind time.
	ArgLiteral ArgKind = iota
	// ArgParam forwards a slot of the enclosing definition's scope.
	ArgParam
	// ArgTemplate builds a first-class tree value at evaluation time.
	ArgTemplate
)

// Arg is one bound call argument. Name carries the target parameter
// name so natives can look arguments up by name.
type Arg struct {
	Name     string
	Kind     ArgKind
	Lit      domain.Value
	Param    int
	Template *TreeTemplate
}

// TemplateKind tags what a tree template dispatches to when invoked.
type TemplateKind uint8

const (
	TemplateDef TemplateKind = iota
	TemplateNative
)

// TreeTemplate is the bind-time half of a first-class tree value: a
// callable target plus a partial argument list. Invocation late-binds
// the caller's live blackboard and any trailing contextual arguments.
type TreeTemplate struct {
	Kind   TemplateKind
	Name   string
	Def    *Definition
	Native *Impl
	Args   []Arg
}

// Impl is a bound native leaf signature.
type Impl struct {
	Name   string
	Params []Param
}

// Program is a fully bound, immutable module graph ready to execute.
type Program struct {
	Root  *Node
	Defs  map[string]*Definition
	Impls map[string]*Impl
}

// ImplNames returns the declared native names in no particular order.
// The registry uses this to stub unbound impls for dry runs.
func (p *Program) ImplNames() []string {
	names := make([]string, 0, len(p.Impls))
	for name := range p.Impls {
		names = append(names, name)
	}
	return names
}
