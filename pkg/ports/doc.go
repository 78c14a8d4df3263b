// Package ports defines the boundary interfaces of the arbor core.
//
// The engine never reads files and never implements robot primitives
// itself: scripts arrive through a SourceLoader and native leaves are
// dispatched through an Invoker. Adapters (filesystem, in-memory, the
// action registry) live under pkg/adapters and pkg/registry.
package ports
