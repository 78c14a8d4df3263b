package domain

// Status is the result of ticking a node.
type Status string

const (
	// StatusSuccess means the node completed its work.
	StatusSuccess Status = "success"
	// StatusFailure means the node could not complete. Failure is an
	// expected outcome, not an error: fallbacks and retries absorb it.
	StatusFailure Status = "failure"
	// StatusRunning means the node needs more ticks. The driver is
	// expected to tick the root again until a terminal status appears.
	StatusRunning Status = "running"
)

// Terminal reports whether the status ends an execution pass for a node.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailure
}
