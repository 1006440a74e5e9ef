package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/courselab/langs/internal/model"
)

func TestLocalCommandRunner_CapturesOutput(t *testing.T) {
	runner := NewLocalCommandRunner()

	output, err := runner.Run(context.Background(), CommandSpec{
		Program: "sh",
		Args:    []string{"-c", "echo out; echo err >&2"},
		Dir:     m.Path(t.TempDir()),
	})
	require.NoError(t, err)

	assert.Equal(t, "out\n", string(output.Stdout))
	assert.Equal(t, "err\n", string(output.Stderr))
	assert.Equal(t, 0, output.ExitCode)
}

func TestLocalCommandRunner_NonZeroExitIsData(t *testing.T) {
	runner := NewLocalCommandRunner()

	output, err := runner.Run(context.Background(), CommandSpec{
		Program: "sh",
		Args:    []string{"-c", "exit 3"},
		Dir:     m.Path(t.TempDir()),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, output.ExitCode)
}

func TestLocalCommandRunner_StartError(t *testing.T) {
	runner := NewLocalCommandRunner()

	_, err := runner.Run(context.Background(), CommandSpec{
		Program: "definitely-not-a-real-binary",
		Dir:     m.Path(t.TempDir()),
	})

	var startErr *StartError
	require.ErrorAs(t, err, &startErr)
}

func TestLocalCommandRunner_Timeout(t *testing.T) {
	runner := NewLocalCommandRunner()

	started := time.Now()
	_, err := runner.Run(context.Background(), CommandSpec{
		Program: "sh",
		Args:    []string{"-c", "echo partial; sleep 10"},
		Dir:     m.Path(t.TempDir()),
		Timeout: 500 * time.Millisecond,
	})

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)

	// Partial output flushed before the timeout is preserved.
	assert.Equal(t, "partial\n", string(timeoutErr.Stdout))

	// The child process group was killed, not waited out.
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestLocalCommandRunner_KillsProcessTree(t *testing.T) {
	runner := NewLocalCommandRunner()

	// The inner sleep is a grandchild; timing out must take it down with
	// the shell, otherwise Run blocks on the shared output pipe.
	started := time.Now()
	_, err := runner.Run(context.Background(), CommandSpec{
		Program: "sh",
		Args:    []string{"-c", "sleep 30 & wait"},
		Dir:     m.Path(t.TempDir()),
		Timeout: 500 * time.Millisecond,
	})

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestLocalCommandRunner_ContextCancel(t *testing.T) {
	runner := NewLocalCommandRunner()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := runner.Run(ctx, CommandSpec{
		Program: "sh",
		Args:    []string{"-c", "sleep 30"},
		Dir:     m.Path(t.TempDir()),
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestLocalCommandRunner_EnvOverrides(t *testing.T) {
	runner := NewLocalCommandRunner()

	output, err := runner.Run(context.Background(), CommandSpec{
		Program: "sh",
		Args:    []string{"-c", "printf '%s' \"$EXERCISE_MODE\""},
		Dir:     m.Path(t.TempDir()),
		Env:     map[string]string{"EXERCISE_MODE": "strict"},
	})
	require.NoError(t, err)
	assert.Equal(t, "strict", string(output.Stdout))
}
