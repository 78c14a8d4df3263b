package domain

import "errors"

// ErrUnboundNative is returned when a tick reaches a native leaf that
// has no registered implementation. Bind-time checking only covers
// declared impls; registration completeness is a run-time concern.
var ErrUnboundNative = errors.New("native action not registered")

// ErrTickBudget is returned by the driver loop when an execution is
// still running after the configured maximum number of ticks.
var ErrTickBudget = errors.New("tick budget exhausted")
