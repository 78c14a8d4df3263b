package arbor

import (
	"context"
	"fmt"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
)

// Execution is one independent run of a loaded program. It is not safe
// for concurrent use; drive it from a single goroutine.
type Execution struct {
	run *runtime.Execution
}

// Tick advances the run by one step. While the result is
// StatusRunning, call Tick again; Success and Failure are final for
// the traversal that produced them.
func (x *Execution) Tick(ctx context.Context) (domain.Status, error) {
	return x.run.Tick(ctx)
}

// Cancel tears down any native actions left in the Running state.
func (x *Execution) Cancel(ctx context.Context) error {
	return x.run.Cancel(ctx)
}

// Blackboard exposes the run's shared context. Read it between ticks;
// never mutate it while a tick is in flight.
func (x *Execution) Blackboard() *domain.Blackboard {
	return x.run.Blackboard()
}

// Ticks returns how many times the run has been ticked.
func (x *Execution) Ticks() int {
	return x.run.Ticks()
}

// DefaultMaxTicks bounds Run when no explicit budget is given.
const DefaultMaxTicks = 1000

// Run drives a fresh execution until the root settles on Success or
// Failure, ticking through Running results. maxTicks <= 0 applies
// DefaultMaxTicks; exhausting the budget cancels the run and returns
// domain.ErrTickBudget.
func (e *Engine) Run(ctx context.Context, params map[string]any, maxTicks int) (domain.Status, error) {
	if maxTicks <= 0 {
		maxTicks = DefaultMaxTicks
	}
	exec, err := e.NewExecution(params)
	if err != nil {
		return domain.StatusFailure, err
	}
	for i := 0; i < maxTicks; i++ {
		status, err := exec.Tick(ctx)
		if err != nil {
			return status, err
		}
		if status.Terminal() {
			return status, nil
		}
	}
	if cancelErr := exec.Cancel(ctx); cancelErr != nil {
		return domain.StatusFailure, fmt.Errorf("%w after %d ticks (cancel failed: %v)", domain.ErrTickBudget, maxTicks, cancelErr)
	}
	return domain.StatusFailure, fmt.Errorf("%w after %d ticks", domain.ErrTickBudget, maxTicks)
}
