package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
actions:
  - name: beep
    command: beep-tool
    args: ["-n", "1"]
    env:
      VOLUME: low
    description: audible signal
  - command: ignored-without-name
`), 0o644))

	actions, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, actions, 1)

	beep := actions["beep"]
	assert.Equal(t, "beep-tool", beep.Command)
	assert.Equal(t, []string{"-n", "1"}, beep.Args)
	assert.Equal(t, map[string]string{"VOLUME": "low"}, beep.Environment)
}

func TestLoadConfig_MissingFileIsEmpty(t *testing.T) {
	actions, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("actions: {not a list"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestRunner_ExitCodeBecomesStatus(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on POSIX true/false")
	}
	r := NewRunner(map[string]Config{
		"ok":   {Name: "ok", Command: "true"},
		"boom": {Name: "boom", Command: "false"},
	}, WithLogger(logging.NewNop()))

	reg := registry.New()
	r.RegisterAll(reg)
	assert.ElementsMatch(t, []string{"ok", "boom"}, reg.Names())

	bb := domain.NewBlackboard()
	status, err := reg.Invoke(context.Background(), "ok", nil, bb)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, status)

	// A non-zero exit is a plain failure, not an error.
	status, err = reg.Invoke(context.Background(), "boom", nil, bb)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailure, status)
}

func TestRunner_MissingCommandIsError(t *testing.T) {
	r := NewRunner(map[string]Config{
		"ghost": {Name: "ghost", Command: "arbor-definitely-not-installed"},
	}, WithLogger(logging.NewNop()))

	reg := registry.New()
	r.RegisterAll(reg)

	status, err := reg.Invoke(context.Background(), "ghost", nil, domain.NewBlackboard())
	require.Error(t, err)
	assert.Equal(t, domain.StatusFailure, status)
}

func TestRunner_ArgsArriveAsJSONOnStdin(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on the shell")
	}
	dir := t.TempDir()
	out := filepath.Join(dir, "stdin.json")
	r := NewRunner(map[string]Config{
		"capture": {Name: "capture", Command: "sh", Args: []string{"-c", "cat > " + out}},
	}, WithLogger(logging.NewNop()))

	reg := registry.New()
	r.RegisterAll(reg)

	args := domain.Args{{Name: "what", Value: domain.Str("ball")}}
	status, err := reg.Invoke(context.Background(), "capture", args, domain.NewBlackboard())
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuccess, status)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"what": "ball"}`, string(data))
}
