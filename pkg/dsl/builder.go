package dsl

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
)

// Module builds one .tree source unit.
type Module struct {
	path    string
	imports []importDecl
	impls   []implDecl
	trees   []*TreeBuilder
}

type importDecl struct {
	path    string
	renames [][2]string
}

type implDecl struct {
	name   string
	params []Param
}

// Param declares a tree or impl parameter.
type Param struct {
	Name string
	Kind string // string, num, bool, object, array, tree
}

// P is shorthand for a parameter declaration.
func P(name, kind string) Param {
	return Param{Name: name, Kind: kind}
}

// NewModule creates a builder for a source unit registered under path.
func NewModule(path string) *Module {
	return &Module{path: path}
}

// Import adds an import statement. Renames are from/to pairs.
func (m *Module) Import(path string, renames ...[2]string) *Module {
	m.imports = append(m.imports, importDecl{path: path, renames: renames})
	return m
}

// Impl declares a native action signature.
func (m *Module) Impl(name string, params ...Param) *Module {
	m.impls = append(m.impls, implDecl{name: name, params: params})
	return m
}

// Root starts the root tree definition.
func (m *Module) Root(name string) *TreeBuilder {
	return m.tree("root", name)
}

// Sequence starts a sequence tree definition.
func (m *Module) Sequence(name string, params ...Param) *TreeBuilder {
	return m.tree("sequence", name, params...)
}

// Fallback starts a fallback tree definition.
func (m *Module) Fallback(name string, params ...Param) *TreeBuilder {
	return m.tree("fallback", name, params...)
}

func (m *Module) tree(kind, name string, params ...Param) *TreeBuilder {
	tb := &TreeBuilder{kind: kind, name: name, params: params}
	m.trees = append(m.trees, tb)
	return tb
}

// Source renders the module as .tree text.
func (m *Module) Source() string {
	var sb strings.Builder
	for _, imp := range m.imports {
		if len(imp.renames) == 0 {
			fmt.Fprintf(&sb, "import %q\n", imp.path)
			continue
		}
		fmt.Fprintf(&sb, "import %q {\n", imp.path)
		for _, r := range imp.renames {
			fmt.Fprintf(&sb, "    %s => %s,\n", r[0], r[1])
		}
		sb.WriteString("}\n")
	}
	if len(m.imports) > 0 {
		sb.WriteString("\n")
	}
	for _, impl := range m.impls {
		fmt.Fprintf(&sb, "impl %s(%s);\n", impl.name, renderParams(impl.params))
	}
	if len(m.impls) > 0 {
		sb.WriteString("\n")
	}
	for _, tb := range m.trees {
		tb.render(&sb)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Build compiles the module into a memory loader, ready for arbor.New.
func (m *Module) Build() (*memory.Loader, string) {
	return memory.NewLoader(map[string]string{m.path: m.Source()}), m.path
}

func renderParams(params []Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%s: %s", p.Name, p.Kind)
	}
	return strings.Join(parts, ", ")
}

// Arg is a rendered call argument.
type Arg struct {
	name string
	expr string
}

// Named wraps an argument with its parameter name.
func Named(name string, value Arg) Arg {
	return Arg{name: name, expr: value.expr}
}

// Lit builds a literal argument from plain Go data.
func Lit(raw any) Arg {
	v, err := domain.FromInterface(raw)
	if err != nil {
		// Builder misuse, surfaces immediately in tests.
		panic(fmt.Sprintf("dsl: invalid literal: %v", err))
	}
	return Arg{expr: v.String()}
}

// Ref builds an argument referencing an enclosing parameter.
func Ref(name string) Arg {
	return Arg{expr: name}
}

// Call builds a tree-valued argument: a definition or impl name with a
// partial argument list.
func Call(name string, args ...Arg) Arg {
	return Arg{expr: fmt.Sprintf("%s(%s)", name, renderArgs(args, false))}
}

func renderArgs(args []Arg, forwarded bool) string {
	parts := make([]string, 0, len(args)+1)
	for _, a := range args {
		if a.name != "" {
			parts = append(parts, fmt.Sprintf("%s=%s", a.name, a.expr))
		} else {
			parts = append(parts, a.expr)
		}
	}
	if forwarded {
		parts = append(parts, "..")
	}
	return strings.Join(parts, ", ")
}
