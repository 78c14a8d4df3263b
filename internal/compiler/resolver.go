package compiler

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/ports"
)

// Symbol is one entry of the merged global symbol table: a local name
// bound to either a tree definition or an impl declaration.
type Symbol struct {
	Name   string
	Module string // normalized path of the defining module
	Tree   *TreeDecl
	Impl   *ImplDecl
}

// sameDef reports whether two symbols point at the same definition.
// Re-importing a definition under the same name is idempotent.
func (s *Symbol) sameDef(o *Symbol) bool {
	return s.Tree == o.Tree && s.Impl == o.Impl
}

// SymbolTable is the merged namespace of a loaded module graph.
type SymbolTable struct {
	symbols map[string]*Symbol
	modules []*Module
	roots   []*Symbol
}

// Lookup finds a symbol by local name.
func (t *SymbolTable) Lookup(name string) (*Symbol, bool) {
	s, ok := t.symbols[name]
	return s, ok
}

// Roots returns the root tree definitions found while loading.
func (t *SymbolTable) Roots() []*Symbol { return t.roots }

// Modules returns the loaded modules in load completion order.
func (t *SymbolTable) Modules() []*Module { return t.modules }

// Resolve loads the module graph starting at entry: every distinct
// imported path is loaded exactly once (memoized by the loader's
// normalized identity), import cycles are rejected, and all definitions
// plus import aliases are merged into one symbol table.
func Resolve(loader ports.SourceLoader, entry string) (*SymbolTable, error) {
	r := &resolver{
		loader: loader,
		table:  &SymbolTable{symbols: make(map[string]*Symbol)},
		loaded: make(map[string]*Module),
	}
	if _, err := r.load(entry); err != nil {
		return nil, err
	}
	return r.table, nil
}

type resolver struct {
	loader ports.SourceLoader
	table  *SymbolTable
	loaded map[string]*Module
	stack  []string // normalized paths currently being loaded
}

func (r *resolver) load(path string) (*Module, error) {
	norm := r.loader.Normalize(path)

	for i, p := range r.stack {
		if p == norm {
			chain := append(append([]string{}, r.stack[i:]...), norm)
			return nil, &CyclicImportError{Chain: chain}
		}
	}
	if mod, ok := r.loaded[norm]; ok {
		return mod, nil
	}

	src, err := r.loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", path, err)
	}
	mod, err := Parse(norm, src)
	if err != nil {
		return nil, err
	}

	r.stack = append(r.stack, norm)
	for _, imp := range mod.Imports {
		if _, err := r.load(imp.Path); err != nil {
			return nil, err
		}
	}
	r.stack = r.stack[:len(r.stack)-1]

	if err := r.merge(mod, norm); err != nil {
		return nil, err
	}
	r.loaded[norm] = mod
	r.table.modules = append(r.table.modules, mod)
	return mod, nil
}

// merge inserts the module's own definitions and its import aliases
// into the global table. Renames alias the exported name into the
// importing namespace only; the source module keeps its originals.
func (r *resolver) merge(mod *Module, norm string) error {
	for _, tree := range mod.Trees {
		sym := &Symbol{Name: tree.Name, Module: norm, Tree: tree}
		if err := r.insert(tree.Name, sym); err != nil {
			return err
		}
		if tree.Kind == TreeRoot {
			r.table.roots = append(r.table.roots, sym)
		}
	}
	for _, impl := range mod.Impls {
		if err := r.insert(impl.Name, &Symbol{Name: impl.Name, Module: norm, Impl: impl}); err != nil {
			return err
		}
	}

	for _, imp := range mod.Imports {
		source := r.loaded[r.loader.Normalize(imp.Path)]
		renamed := make(map[string]string, len(imp.Renames))
		for _, ren := range imp.Renames {
			if !exports(source, ren.From) {
				return &BindingError{Msg: fmt.Sprintf("%s: import rename: %q is not exported by %q", imp.Pos, ren.From, imp.Path)}
			}
			renamed[ren.From] = ren.To
		}
		for _, tree := range source.Trees {
			local := tree.Name
			if alias, ok := renamed[tree.Name]; ok {
				local = alias
			}
			if err := r.insert(local, &Symbol{Name: local, Module: source.Path, Tree: tree}); err != nil {
				return err
			}
		}
		for _, impl := range source.Impls {
			local := impl.Name
			if alias, ok := renamed[impl.Name]; ok {
				local = alias
			}
			if err := r.insert(local, &Symbol{Name: local, Module: source.Path, Impl: impl}); err != nil {
				return err
			}
		}
	}
	return nil
}

func exports(mod *Module, name string) bool {
	for _, tree := range mod.Trees {
		if tree.Name == name {
			return true
		}
	}
	for _, impl := range mod.Impls {
		if impl.Name == name {
			return true
		}
	}
	return false
}

func (r *resolver) insert(name string, sym *Symbol) error {
	if existing, ok := r.table.symbols[name]; ok {
		if existing.sameDef(sym) {
			return nil
		}
		return &DuplicateSymbolError{Name: name, Existing: existing.Module, Incoming: sym.Module}
	}
	r.table.symbols[name] = sym
	return nil
}
