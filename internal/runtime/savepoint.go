package runtime

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

// checkpoint is one blackboard snapshot, keyed to the sequence instance
// whose dynamic extent it was opened in.
type checkpoint struct {
	scope    int
	snapshot map[string]domain.Value
}

// savepoints is the transaction manager: a stack of checkpoints with
// mark-based scoping. A sequence records the stack size when it starts;
// every exit path either commits or rolls back to that mark, so
// checkpoints never leak across sibling branches.
type savepoints struct {
	stack []checkpoint
}

func (s *savepoints) size() int { return len(s.stack) }

// open records the current blackboard state under the given sequence
// scope.
func (s *savepoints) open(scope int, bb *domain.Blackboard) {
	s.stack = append(s.stack, checkpoint{scope: scope, snapshot: bb.Snapshot()})
}

// rollback restores the most recent checkpoint opened in scope and
// discards everything above the mark. It reports whether a restore
// happened; a sequence without checkpoints fails without touching the
// blackboard. Every checkpoint above the mark must belong to the
// rolling-back scope: nested sequences resolve their own range on
// every exit path, so a foreign checkpoint here is a fatal
// bookkeeping error, not something to restore.
func (s *savepoints) rollback(mark, scope int, bb *domain.Blackboard) (bool, error) {
	if mark > len(s.stack) {
		return false, fmt.Errorf("savepoint scope underflow: mark %d beyond stack size %d", mark, len(s.stack))
	}
	for _, cp := range s.stack[mark:] {
		if cp.scope != scope {
			return false, fmt.Errorf("savepoint scope mismatch: checkpoint belongs to scope %d, rolling back scope %d", cp.scope, scope)
		}
	}
	restored := false
	if len(s.stack) > mark {
		bb.Restore(s.stack[len(s.stack)-1].snapshot)
		restored = true
	}
	s.stack = s.stack[:mark]
	return restored, nil
}

// commit discards the scope's checkpoints without restoring.
func (s *savepoints) commit(mark int) error {
	if mark > len(s.stack) {
		return fmt.Errorf("savepoint scope underflow: mark %d beyond stack size %d", mark, len(s.stack))
	}
	s.stack = s.stack[:mark]
	return nil
}
