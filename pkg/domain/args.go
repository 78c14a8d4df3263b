package domain

// Arg is a single resolved call argument. Name is the declared
// parameter name when the target has a signature, or the name used at
// the call site for named arguments.
type Arg struct {
	Name  string
	Value Value
}

// Args is the resolved, ordered argument list handed to native actions.
type Args []Arg

// FindOrIndex looks an argument up by name first, then by position.
// It mirrors how scripts may pass arguments either named or positional.
func (a Args) FindOrIndex(name string, i int) (Value, bool) {
	for _, arg := range a {
		if arg.Name != "" && arg.Name == name {
			return arg.Value, true
		}
	}
	if i >= 0 && i < len(a) {
		return a[i].Value, true
	}
	return Value{}, false
}

// First returns the first argument value, if any.
func (a Args) First() (Value, bool) {
	if len(a) == 0 {
		return Value{}, false
	}
	return a[0].Value, true
}

// Interfaces converts the arguments into a name-keyed map of plain Go
// values. Unnamed arguments are skipped; use FindOrIndex for those.
func (a Args) Interfaces() map[string]any {
	m := make(map[string]any, len(a))
	for _, arg := range a {
		if arg.Name != "" {
			m[arg.Name] = arg.Value.Interface()
		}
	}
	return m
}
