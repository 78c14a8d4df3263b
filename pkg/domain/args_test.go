package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgs_FindOrIndex(t *testing.T) {
	args := Args{
		{Name: "what", Value: Str("ball")},
		{Value: Num(5)},
	}

	v, ok := args.FindOrIndex("what", 1)
	assert.True(t, ok)
	assert.True(t, v.Equal(Str("ball")))

	// Unknown name falls back to the position.
	v, ok = args.FindOrIndex("speed", 1)
	assert.True(t, ok)
	assert.True(t, v.Equal(Num(5)))

	_, ok = args.FindOrIndex("speed", 2)
	assert.False(t, ok)
}

func TestArgs_First(t *testing.T) {
	_, ok := Args{}.First()
	assert.False(t, ok)

	v, ok := Args{{Value: Bool(true)}}.First()
	assert.True(t, ok)
	assert.True(t, v.Equal(Bool(true)))
}

func TestArgs_Interfaces(t *testing.T) {
	args := Args{
		{Name: "what", Value: Str("ball")},
		{Value: Num(5)}, // positional, skipped
	}
	assert.Equal(t, map[string]any{"what": "ball"}, args.Interfaces())
}
