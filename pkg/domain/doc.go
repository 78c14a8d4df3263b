// Package domain holds the core value types of the arbor engine: tick
// statuses, DSL values, the blackboard, and the contracts between the
// interpreter and native actions.
//
// The package has no dependencies on the compiler or the runtime; every
// other layer (ports, adapters, registry, internal engine) speaks in
// these types.
package domain
