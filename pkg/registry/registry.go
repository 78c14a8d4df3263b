package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/arbor/pkg/domain"
)

// ActionFunc is the signature for a native action implementation. It
// receives the resolved call arguments and the live blackboard, and
// reports one tick outcome. Returning StatusRunning suspends the
// enclosing flow until the next tick.
type ActionFunc func(ctx context.Context, args domain.Args, bb *domain.Blackboard) (domain.Status, error)

// CancelFunc is invoked when a run is halted while the action is in
// the Running state, so long-lived work can be torn down.
type CancelFunc func(ctx context.Context) error

// Registry maps impl names to native actions. It satisfies
// ports.Invoker and is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]ActionFunc
	cancels map[string]CancelFunc
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		actions: make(map[string]ActionFunc),
		cancels: make(map[string]CancelFunc),
	}
}

// Register binds an action to an impl name. A previous binding for the
// same name is overwritten.
func (r *Registry) Register(name string, fn ActionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = fn
}

// RegisterCancel binds a teardown hook for a name that may report
// StatusRunning.
func (r *Registry) RegisterCancel(name string, fn CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels[name] = fn
}

// Names returns the registered action names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	return names
}

// Invoke looks up an action by name and ticks it. A name with no
// registered action is a runtime error, not a load error: trees may be
// validated and visualized without their natives.
func (r *Registry) Invoke(ctx context.Context, name string, args domain.Args, bb *domain.Blackboard) (domain.Status, error) {
	r.mu.RLock()
	fn, ok := r.actions[name]
	r.mu.RUnlock()

	if !ok {
		return domain.StatusFailure, fmt.Errorf("%w: %s", domain.ErrUnboundNative, name)
	}
	return fn(ctx, args, bb)
}

// Cancel tears down a running action. Names without a cancel hook are
// ignored.
func (r *Registry) Cancel(ctx context.Context, name string) error {
	r.mu.RLock()
	fn, ok := r.cancels[name]
	r.mu.RUnlock()

	if !ok {
		return nil
	}
	return fn(ctx)
}

// StubUnbound registers a success stub for every listed name that has
// no action yet. Dry runs use it to walk a tree end to end without the
// real natives.
func (r *Registry) StubUnbound(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if _, ok := r.actions[name]; ok {
			continue
		}
		r.actions[name] = func(ctx context.Context, args domain.Args, bb *domain.Blackboard) (domain.Status, error) {
			return domain.StatusSuccess, nil
		}
	}
}

// DecodeArgs maps named call arguments onto a tagged struct, so actions
// can unpack their inputs declaratively instead of probing the slice.
func DecodeArgs(args domain.Args, out any) error {
	raw := make(map[string]any, len(args))
	for _, a := range args {
		raw[a.Name] = a.Value.Interface()
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "arg",
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
