package compiler

import "github.com/aretw0/arbor/pkg/domain"

// Module is one parsed source unit. It only lives until binding; the
// resolver owns modules while the import graph is loaded.
type Module struct {
	// Path is the normalized identity the module was loaded under.
	Path    string
	Imports []*Import
	Impls   []*ImplDecl
	Trees   []*TreeDecl
}

// Import is one import statement, optionally with a rename map.
type Import struct {
	Path    string
	Renames []Rename
	Pos     Pos
}

// Rename aliases an exported name into the importing namespace.
type Rename struct {
	From string
	To   string
}

// ImplDecl declares a native leaf signature. Impls have no body; their
// implementation is registered with the invoker at run time.
type ImplDecl struct {
	Name   string
	Params []Param
	Pos    Pos
}

// TreeKind is the composite flavor of a tree definition or block.
type TreeKind uint8

const (
	TreeSequence TreeKind = iota
	TreeFallback
	TreeRoot
)

func (k TreeKind) String() string {
	switch k {
	case TreeSequence:
		return "sequence"
	case TreeFallback:
		return "fallback"
	case TreeRoot:
		return "root"
	}
	return "tree"
}

// TreeDecl is a named, parameterized tree template.
type TreeDecl struct {
	Kind   TreeKind
	Name   string
	Params []Param
	Body   []Node
	Pos    Pos
}

// Param is a declared parameter with its DSL kind.
type Param struct {
	Name string
	Kind domain.Kind
	Pos  Pos
}

// Node is a statement inside a tree body.
type Node interface {
	Position() Pos
}

// Call invokes a tree definition, an impl, a tree-valued parameter, or
// the savepoint builtin.
type Call struct {
	Name string
	Args []Arg
	// Forwarded is set when the argument list ends with the `..`
	// context-forward marker.
	Forwarded bool
	Pos       Pos
}

func (c *Call) Position() Pos { return c.Pos }

// Block is an anonymous nested sequence or fallback.
type Block struct {
	Kind TreeKind
	Body []Node
	Pos  Pos
}

func (b *Block) Position() Pos { return b.Pos }

// Retry decorates a child node with a bounded re-attempt count.
type Retry struct {
	Limit int
	Child Node
	Pos   Pos
}

func (r *Retry) Position() Pos { return r.Pos }

// Arg is one call argument, positional or named.
type Arg struct {
	Name  string // empty for positional arguments
	Value Expr
	Pos   Pos
}

// Expr is an argument value.
type Expr interface {
	Position() Pos
}

// Lit is a literal value: string, number, bool, object, or array.
// Object and array literals are folded into a domain.Value during
// parsing; they may only contain literals.
type Lit struct {
	Value domain.Value
	Pos   Pos
}

func (l *Lit) Position() Pos { return l.Pos }

// Ref is a bare identifier referencing an enclosing parameter.
type Ref struct {
	Name string
	Pos  Pos
}

func (r *Ref) Position() Pos { return r.Pos }

// SubCall is a nested call used as an argument; it produces a
// first-class tree value bound with a partial argument list.
type SubCall struct {
	Name string
	Args []Arg
	Pos  Pos
}

func (s *SubCall) Position() Pos { return s.Pos }
