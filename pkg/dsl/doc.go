/*
Package dsl provides a fluent Go builder for constructing .tree sources
programmatically. It is useful for dynamic tree generation and for unit
tests that want trees without fixture files.

Example usage:

	m := dsl.NewModule("main.tree")
	m.Impl("greet", dsl.P("message", "string"))
	m.Root("hello").
		Call("greet", dsl.Named("message", dsl.Lit("hi")))

	loader, entry := m.Build()
	engine, err := arbor.New(entry, loader, arbor.WithInvoker(reg))
*/
package dsl
