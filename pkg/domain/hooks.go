package domain

// Hooks carries optional observability callbacks. All fields may be
// nil; the engine checks before calling. Hooks run synchronously inside
// the tick, so they should be fast and must not touch the blackboard.
type Hooks struct {
	// OnTick fires after every root tick with its sequence number and
	// resulting status.
	OnTick func(tick int, status Status)

	// OnLeaf fires after every native invocation.
	OnLeaf func(name string, status Status, err error)

	// OnRollback fires when a sequence failure rolls the blackboard
	// back. restored is false when the failing sequence held no
	// checkpoint to restore.
	OnRollback func(restored bool)
}
