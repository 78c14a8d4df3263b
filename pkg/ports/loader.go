package ports

// SourceLoader resolves quoted import paths to DSL source text.
// The core only requires a stable identity per path to deduplicate
// loads; what a path means (file, embedded asset, map key) is the
// adapter's business.
type SourceLoader interface {
	// Load returns the source text for a path, exactly as written in an
	// import statement or handed to the engine as the entry path.
	Load(path string) (string, error)

	// Normalize returns the stable identity used to memoize loads and
	// detect import cycles. Two paths naming the same source must
	// normalize to the same string.
	Normalize(path string) string
}
