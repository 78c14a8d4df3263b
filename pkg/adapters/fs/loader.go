// Package fs provides source loaders backed by the operating system
// filesystem or any fs.FS, e.g. an embed.FS with trees compiled into
// the binary.
package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Loader reads DSL sources from disk. Relative import paths resolve
// against the loader's root directory.
type Loader struct {
	root string
}

// NewLoader creates a loader rooted at dir. An empty dir means the
// current working directory.
func NewLoader(dir string) *Loader {
	if dir == "" {
		dir = "."
	}
	return &Loader{root: dir}
}

// Load reads the file at path, resolved against the root.
func (l *Loader) Load(path string) (string, error) {
	data, err := os.ReadFile(l.resolve(path))
	if err != nil {
		return "", fmt.Errorf("load %s: %w", path, err)
	}
	return string(data), nil
}

// Normalize collapses the path so that "./a.tree" and "a.tree" identify
// the same module.
func (l *Loader) Normalize(path string) string {
	return filepath.ToSlash(filepath.Clean(l.resolve(path)))
}

func (l *Loader) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.root, path)
}

// FSLoader reads DSL sources from an fs.FS.
type FSLoader struct {
	fsys fs.FS
}

// NewFSLoader creates a loader over fsys.
func NewFSLoader(fsys fs.FS) *FSLoader {
	return &FSLoader{fsys: fsys}
}

// Load reads the file at path from the wrapped filesystem.
func (l *FSLoader) Load(path string) (string, error) {
	data, err := fs.ReadFile(l.fsys, l.Normalize(path))
	if err != nil {
		return "", fmt.Errorf("load %s: %w", path, err)
	}
	return string(data), nil
}

// Normalize cleans the path per fs.FS conventions (no leading "./").
func (l *FSLoader) Normalize(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}
