//go:build !windows

package shell

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPosix(t *testing.T) *Local {
	t.Helper()
	x, err := NewLocal(Config{Dialect: Posix{}, Shell: "/bin/sh -c", TempDir: t.TempDir()})
	require.NoError(t, err)
	return x
}

func wait(t *testing.T, res *Result) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, res.Wait(ctx))
}

func TestLocal_OutputAndCapture(t *testing.T) {
	x := newPosix(t)
	dir := t.TempDir()
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	res, err := x.Start(context.Background(), Request{
		Command:     "echo hello; echo world; export ECMD_TEST_VAR=yes",
		Dir:         dir,
		SilentDir:   true,
		SilentEnv:   true,
		SelfClosing: true,
	})
	require.NoError(t, err)
	wait(t, res)

	assert.True(t, res.Success())
	assert.Equal(t, 0, res.ExitCode())
	assert.Equal(t, []string{"hello", "world"}, res.Drain())

	dirLines, ok := ReadCapture(context.Background(), res.DirFile, nil)
	require.True(t, ok)
	assert.Equal(t, []string{want}, dirLines)

	envLines, ok := ReadCapture(context.Background(), res.EnvFile, nil)
	require.True(t, ok)
	assert.Contains(t, envLines, "ECMD_TEST_VAR=yes")
	assert.Contains(t, envLines, "TERM=dumb")
}

func TestLocal_ExitCode(t *testing.T) {
	x := newPosix(t)
	res, err := x.Start(context.Background(), Request{Command: "exit 3", SelfClosing: true})
	require.NoError(t, err)
	wait(t, res)
	assert.False(t, res.Success())
	assert.Equal(t, 3, res.ExitCode())

	res, err = x.Start(context.Background(), Request{Command: "false", SilentDir: true, SelfClosing: true})
	require.NoError(t, err)
	wait(t, res)
	assert.Equal(t, 1, res.ExitCode())
}

func TestLocal_SpawnFailure(t *testing.T) {
	x, err := NewLocal(Config{Dialect: Posix{}, Shell: "/nonexistent/shell -c", TempDir: t.TempDir()})
	require.NoError(t, err)

	res, err := x.Start(context.Background(), Request{Command: "echo hi", SilentDir: true})
	require.NoError(t, err)
	wait(t, res)
	assert.False(t, res.Success())
	assert.Equal(t, -1, res.ExitCode())
	assert.Equal(t, 0, res.Len())
	assert.Empty(t, res.DirFile)
}

func TestLocal_Interrupt(t *testing.T) {
	x := newPosix(t)
	res, err := x.Start(context.Background(), Request{Command: "sleep 30", SelfClosing: true})
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	x.Interrupt()
	wait(t, res)
	assert.False(t, res.Success())
}
