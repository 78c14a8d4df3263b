package runtime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
)

// spyInvoker counts invocations and delegates to per-name behaviors;
// unknown names succeed.
type spyInvoker struct {
	calls     []string
	cancelled []string
	behaviors map[string]func(args domain.Args, bb *domain.Blackboard) (domain.Status, error)
}

func newSpy() *spyInvoker {
	return &spyInvoker{behaviors: make(map[string]func(args domain.Args, bb *domain.Blackboard) (domain.Status, error))}
}

func (s *spyInvoker) on(name string, fn func(args domain.Args, bb *domain.Blackboard) (domain.Status, error)) {
	s.behaviors[name] = fn
}

func (s *spyInvoker) failAlways(name string) { s.on(name, constStatus(domain.StatusFailure)) }

func constStatus(st domain.Status) func(domain.Args, *domain.Blackboard) (domain.Status, error) {
	return func(domain.Args, *domain.Blackboard) (domain.Status, error) { return st, nil }
}

func (s *spyInvoker) count(name string) int {
	n := 0
	for _, c := range s.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (s *spyInvoker) Invoke(ctx context.Context, name string, args domain.Args, bb *domain.Blackboard) (domain.Status, error) {
	s.calls = append(s.calls, name)
	if fn, ok := s.behaviors[name]; ok {
		return fn(args, bb)
	}
	return domain.StatusSuccess, nil
}

func (s *spyInvoker) Cancel(ctx context.Context, name string) error {
	s.cancelled = append(s.cancelled, name)
	return nil
}

func program(t *testing.T, src string) *runtime.Program {
	t.Helper()
	table, err := compiler.Resolve(memory.NewLoader(map[string]string{"main.tree": src}), "main.tree")
	require.NoError(t, err)
	p, err := compiler.Bind(table)
	require.NoError(t, err)
	return p
}

func execution(t *testing.T, src string, inv *spyInvoker) *runtime.Execution {
	t.Helper()
	exec, err := runtime.NewExecution(program(t, src), runtime.Config{Invoker: inv})
	require.NoError(t, err)
	return exec
}

func TestSequence_ShortCircuitsOnFailure(t *testing.T) {
	inv := newSpy()
	inv.failAlways("second")
	exec := execution(t, `
impl first();
impl second();
impl third();
root r {
    first()
    second()
    third()
}
`, inv)

	status, err := exec.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailure, status)
	assert.Equal(t, []string{"first", "second"}, inv.calls)
}

func TestFallback_StopsAtFirstSuccess(t *testing.T) {
	inv := newSpy()
	inv.failAlways("a")
	exec := execution(t, `
impl a();
impl b();
impl c();
root r {
    fallback {
        a()
        b()
        c()
    }
}
`, inv)

	status, err := exec.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, status)
	assert.Equal(t, []string{"a", "b"}, inv.calls)
}

func TestFallback_FailsWhenExhausted(t *testing.T) {
	inv := newSpy()
	inv.failAlways("a")
	inv.failAlways("b")
	exec := execution(t, `
impl a();
impl b();
root r {
    fallback {
        a()
        b()
    }
}
`, inv)

	status, err := exec.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailure, status)
}

func TestRetry_ExhaustsAttemptsWithinOneTick(t *testing.T) {
	inv := newSpy()
	inv.failAlways("flaky")
	exec := execution(t, `
impl flaky();
root r { retry(5) flaky() }
`, inv)

	status, err := exec.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailure, status)
	// Initial attempt plus five retries.
	assert.Equal(t, 6, inv.count("flaky"))
}

func TestRetry_StopsOnSuccess(t *testing.T) {
	inv := newSpy()
	attempts := 0
	inv.on("flaky", func(domain.Args, *domain.Blackboard) (domain.Status, error) {
		attempts++
		if attempts < 3 {
			return domain.StatusFailure, nil
		}
		return domain.StatusSuccess, nil
	})
	exec := execution(t, `
impl flaky();
root r { retry(5) flaky() }
`, inv)

	status, err := exec.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, status)
	assert.Equal(t, 3, inv.count("flaky"))
}

func TestRunning_SuspendsAndResumes(t *testing.T) {
	inv := newSpy()
	ticks := 0
	inv.on("slow", func(domain.Args, *domain.Blackboard) (domain.Status, error) {
		ticks++
		if ticks < 2 {
			return domain.StatusRunning, nil
		}
		return domain.StatusSuccess, nil
	})
	exec := execution(t, `
impl first();
impl slow();
root r {
    first()
    slow()
}
`, inv)

	status, err := exec.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, status)

	status, err = exec.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, status)

	// The sequence resumed at its cursor: first ran once, slow twice.
	assert.Equal(t, 1, inv.count("first"))
	assert.Equal(t, 2, inv.count("slow"))
	assert.Equal(t, 2, exec.Ticks())
}

func TestRunning_DoesNotConsumeRetryAttempt(t *testing.T) {
	inv := newSpy()
	seen := 0
	inv.on("slow", func(domain.Args, *domain.Blackboard) (domain.Status, error) {
		seen++
		if seen == 1 {
			return domain.StatusRunning, nil
		}
		return domain.StatusFailure, nil
	})
	exec := execution(t, `
impl slow();
root r { retry(1) slow() }
`, inv)

	status, err := exec.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, status)

	status, err = exec.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailure, status)
	// Running tick, then the initial failure and one retry.
	assert.Equal(t, 3, inv.count("slow"))
}

func TestExecution_FreshRunAfterTerminal(t *testing.T) {
	inv := newSpy()
	exec := execution(t, `
impl task();
root r { task() }
`, inv)

	for i := 0; i < 2; i++ {
		status, err := exec.Tick(context.Background())
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSuccess, status)
	}
	assert.Equal(t, 2, inv.count("task"))
}

func TestSavepoint_RollsBackToCheckpoint(t *testing.T) {
	inv := newSpy()
	inv.on("mutate", func(_ domain.Args, bb *domain.Blackboard) (domain.Status, error) {
		bb.Put("k", domain.Str("dirty"))
		return domain.StatusSuccess, nil
	})
	inv.failAlways("boom")
	exec := execution(t, `
impl mutate();
impl boom();
root r {
    sequence {
        savepoint()
        mutate()
        boom()
    }
}
`, inv)

	bb := exec.Blackboard()
	bb.Put("k", domain.Str("clean"))

	status, err := exec.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailure, status)

	v, ok := bb.Get("k")
	require.True(t, ok)
	assert.True(t, v.Equal(domain.Str("clean")), "got %s", v)
}

func TestSavepoint_NestedScopesRestoreInnermostFirst(t *testing.T) {
	inv := newSpy()
	inv.on("set", func(args domain.Args, bb *domain.Blackboard) (domain.Status, error) {
		v, _ := args.First()
		bb.Put("a", v)
		return domain.StatusSuccess, nil
	})
	inv.failAlways("boom")
	exec := execution(t, `
impl set(v: num);
impl boom();
root r {
    sequence {
        savepoint()
        set(1)
        sequence {
            savepoint()
            set(2)
            boom()
        }
    }
}
`, inv)

	status, err := exec.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailure, status)

	// Inner rollback restored a=1; the outer one restored the opening
	// snapshot, where "a" did not exist yet.
	_, ok := exec.Blackboard().Get("a")
	assert.False(t, ok)
}

func TestSavepoint_CommittedScopeKeepsWrites(t *testing.T) {
	inv := newSpy()
	inv.on("set", func(_ domain.Args, bb *domain.Blackboard) (domain.Status, error) {
		bb.Put("a", domain.Num(1))
		return domain.StatusSuccess, nil
	})
	inv.failAlways("boom")
	exec := execution(t, `
impl set();
impl boom();
root r {
    fallback {
        sequence {
            sequence {
                savepoint()
                set()
            }
            boom()
        }
        set()
    }
}
`, inv)

	status, err := exec.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, status)

	// The inner sequence committed before boom failed the outer one, so
	// the outer rollback had no checkpoint left to restore.
	v, ok := exec.Blackboard().Get("a")
	require.True(t, ok)
	assert.True(t, v.Equal(domain.Num(1)))
}

func TestSavepoint_OutsideSequenceIsFatal(t *testing.T) {
	inv := newSpy()
	exec := execution(t, `
root r { savepoint() }
`, inv)

	_, err := exec.Tick(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "savepoint")
}

func TestTreeValue_SeesLiveBlackboard(t *testing.T) {
	inv := newSpy()
	inv.on("seed", func(_ domain.Args, bb *domain.Blackboard) (domain.Status, error) {
		bb.Put("k", domain.Str("late"))
		return domain.StatusSuccess, nil
	})
	inv.on("reader", func(_ domain.Args, bb *domain.Blackboard) (domain.Status, error) {
		v, ok := bb.Get("k")
		if !ok || !v.Equal(domain.Str("late")) {
			return domain.StatusFailure, nil
		}
		return domain.StatusSuccess, nil
	})
	exec := execution(t, `
impl seed();
impl reader();
root r { run(op=reader()) }
sequence run(op: tree) {
    seed()
    op(..)
}
`, inv)

	status, err := exec.Tick(context.Background())
	require.NoError(t, err)
	// The tree value was created before seed wrote the key, yet the
	// invocation reads the caller's live context.
	assert.Equal(t, domain.StatusSuccess, status)
}

func TestTreeValue_PartialArgsCombineWithCallSite(t *testing.T) {
	inv := newSpy()
	var got []any
	inv.on("move", func(args domain.Args, bb *domain.Blackboard) (domain.Status, error) {
		x, _ := args.FindOrIndex("x", 0)
		y, _ := args.FindOrIndex("y", 1)
		got = []any{x.Interface(), y.Interface()}
		return domain.StatusSuccess, nil
	})
	exec := execution(t, `
impl move(x: num, y: num);
root r { s(j=move(1)) }
sequence s(j: tree) {
    j(2)
}
`, inv)

	status, err := exec.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, status)
	assert.Equal(t, []any{float64(1), float64(2)}, got)
}

func TestTreeValue_DefArityCheckedAtInvocation(t *testing.T) {
	inv := newSpy()
	exec := execution(t, `
impl g(v: num);
root r { s(j=target(1)) }
sequence s(j: tree) { j() }
sequence target(a: num, b: num) { g(a) }
`, inv)

	_, err := exec.Tick(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects 2 arguments")
}

func TestTreeValue_DefKindCheckedAtInvocation(t *testing.T) {
	inv := newSpy()
	exec := execution(t, `
impl g(v: num);
root r { s(j=target(1)) }
sequence s(j: tree) { j("x") }
sequence target(a: num, b: num) { g(a) }
`, inv)

	_, err := exec.Tick(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects num")
}

func TestCancel_NotifiesRunningLeaves(t *testing.T) {
	inv := newSpy()
	inv.on("slow", constStatus(domain.StatusRunning))
	exec := execution(t, `
impl slow();
root r { slow() }
`, inv)

	status, err := exec.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.StatusRunning, status)

	require.NoError(t, exec.Cancel(context.Background()))
	assert.Equal(t, []string{"slow"}, inv.cancelled)
}

func TestTick_ContextCancellation(t *testing.T) {
	inv := newSpy()
	exec := execution(t, `
impl task();
root r { task() }
`, inv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := exec.Tick(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHooks_FireDuringTick(t *testing.T) {
	inv := newSpy()
	inv.failAlways("boom")
	var tickStatuses []domain.Status
	var leaves []string
	rollbacks := 0

	p := program(t, `
impl ok();
impl boom();
root r {
    ok()
    boom()
}
`)
	exec, err := runtime.NewExecution(p, runtime.Config{
		Invoker: inv,
		Hooks: domain.Hooks{
			OnTick: func(tick int, status domain.Status) { tickStatuses = append(tickStatuses, status) },
			OnLeaf: func(name string, status domain.Status, err error) { leaves = append(leaves, name) },
			OnRollback: func(restored bool) {
				rollbacks++
				assert.False(t, restored)
			},
		},
	})
	require.NoError(t, err)

	status, err := exec.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailure, status)
	assert.Equal(t, []domain.Status{domain.StatusFailure}, tickStatuses)
	assert.Equal(t, []string{"ok", "boom"}, leaves)
	assert.Equal(t, 1, rollbacks)
}

func TestDescribe_EmitsDefinitionsOnce(t *testing.T) {
	p := program(t, `
impl ping();
root r {
    helper()
    helper()
}
sequence helper() { ping() }
`)
	nodes := p.Describe()

	defs := 0
	for _, n := range nodes {
		if n.Kind == "definition" {
			defs++
			assert.Equal(t, "helper", n.Label)
		}
	}
	assert.Equal(t, 1, defs)
}
