// Package memory provides an in-memory source loader, primarily for
// tests and embedded trees.
package memory

import "fmt"

// Loader serves DSL sources from a path-keyed map.
type Loader struct {
	sources map[string]string
}

// NewLoader creates a loader over the provided sources. Keys are used
// verbatim as import paths.
func NewLoader(sources map[string]string) *Loader {
	copied := make(map[string]string, len(sources))
	for k, v := range sources {
		copied[k] = v
	}
	return &Loader{sources: copied}
}

// Add registers a source under path, replacing any previous one.
func (l *Loader) Add(path, src string) {
	l.sources[path] = src
}

// Load returns the source registered under path.
func (l *Loader) Load(path string) (string, error) {
	src, ok := l.sources[path]
	if !ok {
		return "", fmt.Errorf("source not found: %s", path)
	}
	return src, nil
}

// Normalize is the identity: map keys are already canonical.
func (l *Loader) Normalize(path string) string { return path }
