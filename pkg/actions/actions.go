// Package actions provides stock native actions for common blackboard
// plumbing, so simple trees run without any custom Go code.
package actions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
)

// RegisterBuiltins binds the stock actions under their canonical names.
// Trees that want them still declare matching impls; registration alone
// does not put a name in scope.
func RegisterBuiltins(reg *registry.Registry, logger *slog.Logger) {
	reg.Register("log", Log(logger))
	reg.Register("store", Store())
	reg.Register("check_eq", CheckEq())
	reg.Register("always_success", Const(domain.StatusSuccess))
	reg.Register("always_failure", Const(domain.StatusFailure))
}

// Log emits the first argument at info level and succeeds.
func Log(logger *slog.Logger) registry.ActionFunc {
	return func(ctx context.Context, args domain.Args, bb *domain.Blackboard) (domain.Status, error) {
		msg, ok := args.FindOrIndex("message", 0)
		if !ok {
			return domain.StatusFailure, fmt.Errorf("log: the message argument is missing")
		}
		if s, isStr := msg.AsString(); isStr {
			logger.InfoContext(ctx, s)
		} else {
			logger.InfoContext(ctx, msg.String())
		}
		return domain.StatusSuccess, nil
	}
}

// Store writes value into the blackboard cell named by key.
func Store() registry.ActionFunc {
	return func(ctx context.Context, args domain.Args, bb *domain.Blackboard) (domain.Status, error) {
		key, ok := args.FindOrIndex("key", 0)
		if !ok {
			return domain.StatusFailure, fmt.Errorf("store: the key argument is missing")
		}
		k, ok := key.AsString()
		if !ok {
			return domain.StatusFailure, fmt.Errorf("store: the key must be a string, got %s", key.Kind())
		}
		value, ok := args.FindOrIndex("value", 1)
		if !ok {
			return domain.StatusFailure, fmt.Errorf("store: the value argument is missing")
		}
		bb.Put(k, value)
		return domain.StatusSuccess, nil
	}
}

// CheckEq compares the blackboard cell named by key against expected.
// A mismatch or a missing cell fails the tick without error.
func CheckEq() registry.ActionFunc {
	return func(ctx context.Context, args domain.Args, bb *domain.Blackboard) (domain.Status, error) {
		key, ok := args.FindOrIndex("key", 0)
		if !ok {
			return domain.StatusFailure, fmt.Errorf("check_eq: the key argument is missing")
		}
		k, ok := key.AsString()
		if !ok {
			return domain.StatusFailure, fmt.Errorf("check_eq: the key must be a string, got %s", key.Kind())
		}
		expected, ok := args.FindOrIndex("expected", 1)
		if !ok {
			return domain.StatusFailure, fmt.Errorf("check_eq: the expected argument is missing")
		}
		actual, ok := bb.Get(k)
		if !ok {
			return domain.StatusFailure, nil
		}
		if !expected.Equal(actual) {
			return domain.StatusFailure, nil
		}
		return domain.StatusSuccess, nil
	}
}

// Generate reads the cell named by key (falling back to the default
// argument), applies fn, and writes the result back. It backs
// counter-style cells that advance on every tick.
func Generate(fn func(domain.Value) domain.Value) registry.ActionFunc {
	return func(ctx context.Context, args domain.Args, bb *domain.Blackboard) (domain.Status, error) {
		key, ok := args.FindOrIndex("key", 0)
		if !ok {
			return domain.StatusFailure, fmt.Errorf("generate: the key argument is missing")
		}
		k, ok := key.AsString()
		if !ok {
			return domain.StatusFailure, fmt.Errorf("generate: the key must be a string, got %s", key.Kind())
		}
		curr, ok := args.FindOrIndex("default", 1)
		if !ok {
			return domain.StatusFailure, fmt.Errorf("generate: the default argument is missing")
		}
		if stored, found := bb.Get(k); found {
			curr = stored
		}
		bb.Put(k, fn(curr))
		return domain.StatusSuccess, nil
	}
}

// Const ignores its arguments and always reports status.
func Const(status domain.Status) registry.ActionFunc {
	return func(ctx context.Context, args domain.Args, bb *domain.Blackboard) (domain.Status, error) {
		return status, nil
	}
}
