package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// Invoker dispatches native leaf calls. The engine resolves and
// type-checks the arguments; the invoker owns the mapping from names to
// externally supplied implementations.
type Invoker interface {
	// Invoke runs the native registered under name. A missing
	// registration must surface domain.ErrUnboundNative (wrapped is
	// fine); that is a fatal runtime error, unlike an action returning
	// StatusFailure.
	Invoke(ctx context.Context, name string, args domain.Args, bb *domain.Blackboard) (domain.Status, error)

	// Cancel notifies the native registered under name that the driver
	// stopped ticking while it was running. Invokers without a cancel
	// hook for the name should treat this as a no-op.
	Cancel(ctx context.Context, name string) error
}
