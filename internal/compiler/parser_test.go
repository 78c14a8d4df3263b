package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/pkg/domain"
)

const sampleModule = `
import "impls.tree" {
    grasp => grasp_ball,
}

impl log(message: string);

root place_ball {
    fallback {
        place_to(what={"x": 1, "y": 2}, operation=place([10]))
        retry(5) ask_for_help()
    }
}

sequence place_to(what: object, operation: tree) {
    sequence {
        savepoint()
        operation(..)
    }
}
`

func TestParse_Module(t *testing.T) {
	mod, err := Parse("main.tree", sampleModule)
	require.NoError(t, err)

	require.Len(t, mod.Imports, 1)
	assert.Equal(t, "impls.tree", mod.Imports[0].Path)
	assert.Equal(t, []Rename{{From: "grasp", To: "grasp_ball"}}, mod.Imports[0].Renames)

	require.Len(t, mod.Impls, 1)
	assert.Equal(t, "log", mod.Impls[0].Name)
	require.Len(t, mod.Impls[0].Params, 1)
	assert.Equal(t, domain.KindString, mod.Impls[0].Params[0].Kind)

	require.Len(t, mod.Trees, 2)
	root := mod.Trees[0]
	assert.Equal(t, TreeRoot, root.Kind)
	assert.Equal(t, "place_ball", root.Name)

	// root body: one anonymous fallback with two children
	require.Len(t, root.Body, 1)
	fb, ok := root.Body[0].(*Block)
	require.True(t, ok)
	assert.Equal(t, TreeFallback, fb.Kind)
	require.Len(t, fb.Body, 2)

	call, ok := fb.Body[0].(*Call)
	require.True(t, ok)
	assert.Equal(t, "place_to", call.Name)
	require.Len(t, call.Args, 2)
	assert.Equal(t, "what", call.Args[0].Name)
	_, isLit := call.Args[0].Value.(*Lit)
	assert.True(t, isLit)
	sub, isSub := call.Args[1].Value.(*SubCall)
	require.True(t, isSub)
	assert.Equal(t, "place", sub.Name)

	retry, ok := fb.Body[1].(*Retry)
	require.True(t, ok)
	assert.Equal(t, 5, retry.Limit)
}

func TestParse_ForwardedCall(t *testing.T) {
	mod, err := Parse("t.tree", "sequence s(operation: tree) { operation(..) }")
	require.NoError(t, err)

	call := mod.Trees[0].Body[0].(*Call)
	assert.True(t, call.Forwarded)
	assert.Empty(t, call.Args)
}

func TestParse_TrailingCommaInArgs(t *testing.T) {
	_, err := Parse("t.tree", `sequence s() { f(1, 2,) }`)
	require.NoError(t, err)
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"unterminated block":     "sequence s() { f()",
		"nested root":            "sequence s() { root r { } }",
		"duplicate parameter":    "sequence s(a: num, a: num) { f() }",
		"unknown parameter kind": "sequence s(a: widget) { f() }",
		"forward not last":       "sequence s(j: tree) { j(.., 1) }",
		"forward in subcall":     "sequence s() { f(g(..)) }",
		"duplicate object key":   `sequence s() { f({"a": 1, "a": 2}) }`,
		"negative retry":         "sequence s() { retry(-1) f() }",
		"fractional retry":       "sequence s() { retry(1.5) f() }",
		"bare statement":         "f()",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse("t.tree", src)
			var syn *SyntaxError
			require.True(t, errors.As(err, &syn), "want SyntaxError, got %v", err)
		})
	}
}

func TestParse_LiteralFolding(t *testing.T) {
	mod, err := Parse("t.tree", `sequence s() { f({"pos": [1, 2], "ok": true, "label": "x"}) }`)
	require.NoError(t, err)

	lit := mod.Trees[0].Body[0].(*Call).Args[0].Value.(*Lit)
	want := domain.Object(map[string]domain.Value{
		"pos":   domain.Array(domain.Num(1), domain.Num(2)),
		"ok":    domain.Bool(true),
		"label": domain.Str("x"),
	})
	assert.True(t, lit.Value.Equal(want), "got %s", lit.Value)
}
