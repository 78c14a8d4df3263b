package dsl

import (
	"fmt"
	"strings"
)

// TreeBuilder provides a fluent API for one tree definition body.
type TreeBuilder struct {
	kind   string
	name   string
	params []Param
	body   []node
}

type node interface {
	render(sb *strings.Builder, indent int)
}

// Call appends an invocation of a definition, impl, or tree parameter.
func (t *TreeBuilder) Call(name string, args ...Arg) *TreeBuilder {
	t.body = append(t.body, &callNode{name: name, args: args})
	return t
}

// Forward appends an invocation whose argument list ends with the `..`
// context-forward marker.
func (t *TreeBuilder) Forward(name string, args ...Arg) *TreeBuilder {
	t.body = append(t.body, &callNode{name: name, args: args, forwarded: true})
	return t
}

// Savepoint appends a savepoint() marker.
func (t *TreeBuilder) Savepoint() *TreeBuilder {
	t.body = append(t.body, &callNode{name: "savepoint"})
	return t
}

// Sequence appends an anonymous sequence block built by fn.
func (t *TreeBuilder) Sequence(fn func(b *BlockBuilder)) *TreeBuilder {
	t.body = append(t.body, buildBlock("sequence", fn))
	return t
}

// Fallback appends an anonymous fallback block built by fn.
func (t *TreeBuilder) Fallback(fn func(b *BlockBuilder)) *TreeBuilder {
	t.body = append(t.body, buildBlock("fallback", fn))
	return t
}

// Retry wraps the next node built by fn in a retry decorator.
func (t *TreeBuilder) Retry(limit int, fn func(b *BlockBuilder)) *TreeBuilder {
	block := buildBlock("", fn)
	t.body = append(t.body, &retryNode{limit: limit, child: block.single()})
	return t
}

// BlockBuilder builds the body of an anonymous block.
type BlockBuilder struct {
	body []node
}

// Call appends an invocation to the block.
func (b *BlockBuilder) Call(name string, args ...Arg) *BlockBuilder {
	b.body = append(b.body, &callNode{name: name, args: args})
	return b
}

// Forward appends an invocation ending with the `..` marker.
func (b *BlockBuilder) Forward(name string, args ...Arg) *BlockBuilder {
	b.body = append(b.body, &callNode{name: name, args: args, forwarded: true})
	return b
}

// Savepoint appends a savepoint() marker to the block.
func (b *BlockBuilder) Savepoint() *BlockBuilder {
	b.body = append(b.body, &callNode{name: "savepoint"})
	return b
}

// Sequence appends a nested anonymous sequence.
func (b *BlockBuilder) Sequence(fn func(b *BlockBuilder)) *BlockBuilder {
	b.body = append(b.body, buildBlock("sequence", fn))
	return b
}

// Fallback appends a nested anonymous fallback.
func (b *BlockBuilder) Fallback(fn func(b *BlockBuilder)) *BlockBuilder {
	b.body = append(b.body, buildBlock("fallback", fn))
	return b
}

// Retry wraps the next node built by fn in a retry decorator.
func (b *BlockBuilder) Retry(limit int, fn func(b *BlockBuilder)) *BlockBuilder {
	block := buildBlock("", fn)
	b.body = append(b.body, &retryNode{limit: limit, child: block.single()})
	return b
}

func buildBlock(kind string, fn func(b *BlockBuilder)) *blockNode {
	bb := &BlockBuilder{}
	fn(bb)
	return &blockNode{kind: kind, body: bb.body}
}

type callNode struct {
	name      string
	args      []Arg
	forwarded bool
}

func (c *callNode) render(sb *strings.Builder, indent int) {
	pad(sb, indent)
	fmt.Fprintf(sb, "%s(%s)\n", c.name, renderArgs(c.args, c.forwarded))
}

type blockNode struct {
	kind string
	body []node
}

func (b *blockNode) render(sb *strings.Builder, indent int) {
	pad(sb, indent)
	if b.kind != "" {
		sb.WriteString(b.kind + " ")
	}
	sb.WriteString("{\n")
	for _, n := range b.body {
		n.render(sb, indent+1)
	}
	pad(sb, indent)
	sb.WriteString("}\n")
}

// single unwraps a one-node block, as built for retry decorators.
func (b *blockNode) single() node {
	if len(b.body) == 1 {
		return b.body[0]
	}
	b.kind = "sequence"
	return b
}

type retryNode struct {
	limit int
	child node
}

func (r *retryNode) render(sb *strings.Builder, indent int) {
	pad(sb, indent)
	fmt.Fprintf(sb, "retry(%d) ", r.limit)
	var inner strings.Builder
	r.child.render(&inner, indent)
	sb.WriteString(strings.TrimLeft(inner.String(), " "))
}

func (t *TreeBuilder) render(sb *strings.Builder) {
	sb.WriteString(t.kind + " " + t.name)
	if len(t.params) > 0 {
		fmt.Fprintf(sb, "(%s)", renderParams(t.params))
	}
	sb.WriteString(" {\n")
	for _, n := range t.body {
		n.render(sb, 1)
	}
	sb.WriteString("}\n")
}

func pad(sb *strings.Builder, indent int) {
	sb.WriteString(strings.Repeat("    ", indent))
}
