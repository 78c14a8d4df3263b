package domain

// GraphNode is a presentation-friendly view of one bound tree node,
// used by introspection and visualization tools. IDs are stable within
// one description pass.
type GraphNode struct {
	ID       string
	Kind     string // root, sequence, fallback, retry, savepoint, call, native, param
	Label    string
	Children []string
}
