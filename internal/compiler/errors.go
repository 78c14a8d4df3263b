package compiler

import (
	"fmt"
	"strings"
)

// SyntaxError reports malformed source with its location. The parser
// never panics; every malformed input ends in one of these.
type SyntaxError struct {
	File string
	Pos  Pos
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: syntax error: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s:%s: syntax error: %s", e.File, e.Pos, e.Msg)
}

// CyclicImportError reports a loop in the import graph. Chain lists the
// normalized paths from the first re-entered module back to itself.
type CyclicImportError struct {
	Chain []string
}

func (e *CyclicImportError) Error() string {
	return fmt.Sprintf("cyclic import: %s", strings.Join(e.Chain, " -> "))
}

// DuplicateSymbolError reports two distinct definitions bound to the
// same local name.
type DuplicateSymbolError struct {
	Name     string
	Existing string // module that first provided the name
	Incoming string // module that collided
}

func (e *DuplicateSymbolError) Error() string {
	return fmt.Sprintf("duplicate symbol %q: already provided by %s, redefined by %s", e.Name, e.Existing, e.Incoming)
}

// BindingError reports a call site whose target cannot be resolved to a
// tree definition, an impl declaration, or a tree-valued parameter.
type BindingError struct {
	Name string // unresolved call target
	Def  string // enclosing tree definition, empty at top level
	Pos  Pos
	Msg  string // non-lookup binding problems (missing root, ...)
}

func (e *BindingError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("binding error: %s", e.Msg)
	}
	where := ""
	if e.Def != "" {
		where = fmt.Sprintf(" in %s", e.Def)
	}
	return fmt.Sprintf("%s: unresolved call target %q%s", e.Pos, e.Name, where)
}

// TypeError reports a parameter-kind or arity mismatch at a call site,
// including invoking a non-tree parameter as a call.
type TypeError struct {
	Def  string // enclosing tree definition
	Call string // call target
	Pos  Pos
	Msg  string
}

func (e *TypeError) Error() string {
	where := e.Call
	if e.Def != "" {
		where = e.Def + ": " + e.Call
	}
	return fmt.Sprintf("%s: type error at %s: %s", e.Pos, where, e.Msg)
}

// RecursionError reports a cycle of tree definitions with no
// retry-guarded edge, which would expand forever.
type RecursionError struct {
	Chain []string
}

func (e *RecursionError) Error() string {
	return fmt.Sprintf("unbounded recursion: %s", strings.Join(e.Chain, " -> "))
}
