/*
Package observability provides tools for monitoring a running engine.

It adapts the engine's lifecycle hooks to Prometheus collectors and
offers a combinator for fanning one hook set out to several consumers.
*/
package observability
