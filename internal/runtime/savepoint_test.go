package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/pkg/domain"
)

func TestSavepoints_RollbackRestoresLatest(t *testing.T) {
	bb := domain.NewBlackboard()
	sp := &savepoints{}

	bb.Put("k", domain.Num(1))
	sp.open(1, bb)
	bb.Put("k", domain.Num(2))
	sp.open(1, bb)
	bb.Put("k", domain.Num(3))

	restored, err := sp.rollback(0, 1, bb)
	require.NoError(t, err)
	assert.True(t, restored)
	assert.Equal(t, 0, sp.size())

	// The latest checkpoint wins; everything above the mark is gone.
	v, _ := bb.Get("k")
	assert.True(t, v.Equal(domain.Num(2)))
}

func TestSavepoints_RollbackWithoutCheckpoints(t *testing.T) {
	bb := domain.NewBlackboard()
	sp := &savepoints{}
	bb.Put("k", domain.Str("untouched"))

	restored, err := sp.rollback(0, 1, bb)
	require.NoError(t, err)
	assert.False(t, restored)

	v, _ := bb.Get("k")
	assert.True(t, v.Equal(domain.Str("untouched")))
}

func TestSavepoints_RollbackOnlyAboveMark(t *testing.T) {
	bb := domain.NewBlackboard()
	sp := &savepoints{}

	sp.open(1, bb) // outer scope
	mark := sp.size()
	bb.Put("k", domain.Bool(true))
	sp.open(2, bb)

	restored, err := sp.rollback(mark, 2, bb)
	require.NoError(t, err)
	assert.True(t, restored)
	// The outer checkpoint survives for its own scope to resolve.
	assert.Equal(t, 1, sp.size())
}

func TestSavepoints_RollbackScopeMismatch(t *testing.T) {
	bb := domain.NewBlackboard()
	sp := &savepoints{}

	bb.Put("k", domain.Num(1))
	sp.open(1, bb)
	bb.Put("k", domain.Num(2))

	// A checkpoint left behind by another scope is a bookkeeping bug,
	// not something to restore from.
	restored, err := sp.rollback(0, 2, bb)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scope mismatch")
	assert.False(t, restored)

	// Neither the blackboard nor the stack was touched.
	v, _ := bb.Get("k")
	assert.True(t, v.Equal(domain.Num(2)))
	assert.Equal(t, 1, sp.size())
}

func TestSavepoints_CommitDiscardsWithoutRestore(t *testing.T) {
	bb := domain.NewBlackboard()
	sp := &savepoints{}

	sp.open(1, bb)
	bb.Put("k", domain.Num(42))

	require.NoError(t, sp.commit(0))
	assert.Equal(t, 0, sp.size())

	v, ok := bb.Get("k")
	require.True(t, ok)
	assert.True(t, v.Equal(domain.Num(42)))
}

func TestSavepoints_Underflow(t *testing.T) {
	bb := domain.NewBlackboard()
	sp := &savepoints{}

	_, err := sp.rollback(1, 1, bb)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "underflow")

	err = sp.commit(3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "underflow")
}

func TestSavepoints_SnapshotIsolatedFromLaterWrites(t *testing.T) {
	bb := domain.NewBlackboard()
	sp := &savepoints{}

	bb.Put("obj", mustValue(t, map[string]any{"x": 1.0}))
	sp.open(1, bb)

	// Mutate through a fresh value; the checkpoint must not see it.
	bb.Put("obj", mustValue(t, map[string]any{"x": 99.0}))

	restored, err := sp.rollback(0, 1, bb)
	require.NoError(t, err)
	require.True(t, restored)

	v, _ := bb.Get("obj")
	want := mustValue(t, map[string]any{"x": 1.0})
	assert.True(t, v.Equal(want), "got %s", v)
}

func mustValue(t *testing.T, raw any) domain.Value {
	t.Helper()
	v, err := domain.FromInterface(raw)
	require.NoError(t, err)
	return v
}
