package shell

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_Queue(t *testing.T) {
	r := NewResult()
	r.Push("one")
	r.Push("two")

	select {
	case <-r.NewOutput():
	default:
		t.Fatal("expected an output notification")
	}
	assert.Equal(t, 2, r.Len())
	line, ok := r.Dequeue()
	assert.True(t, ok)
	assert.Equal(t, "one", line)
	assert.Equal(t, []string{"two"}, r.Drain())
	_, ok = r.Dequeue()
	assert.False(t, ok)
}

func TestResult_PushNeverBlocks(t *testing.T) {
	r := NewResult()
	for i := 0; i < 1000; i++ {
		r.Push("x")
	}
	assert.Equal(t, 1000, r.Len())
}

func TestResult_FinishOnce(t *testing.T) {
	r := NewResult()
	r.Finish(false, 2)
	r.Finish(true, 0)

	require.NoError(t, r.Wait(context.Background()))
	assert.False(t, r.Success())
	assert.Equal(t, 2, r.ExitCode())
}

func TestResult_WaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewResult().Wait(ctx), context.Canceled)
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor("CMD")
	require.NoError(t, err)
	assert.Equal(t, "cmd", d.Name())

	d, err = DialectFor("sh")
	require.NoError(t, err)
	assert.Equal(t, "posix", d.Name())

	_, err = DialectFor("fish")
	assert.Error(t, err)
}

func TestPosixTranslate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`CD /D D:\Data`, `cd -- 'D:\Data'`},
		{`cd /d "/tmp/it's"`, `cd -- '/tmp/it'\''s'`},
		{"SET /A 1+2", "echo $((1+2))"},
		{`set /a "x=4*5"`, "echo $((x=4*5))"},
		{"COLOR 07", ""},
		{"color", ""},
		{"colorize x", "colorize x"},
		{"ls -l", "ls -l"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Posix{}.Translate(tt.in))
		})
	}
}

func TestScripts(t *testing.T) {
	req := Request{SilentDir: true, SilentEnv: true, SelfClosing: true, EchoOff: true}

	assert.Equal(t, `@dir & CD > "d.txt" & SET > "e.txt" & exit`,
		Cmd{}.Script("dir", req, "d.txt", "e.txt"))
	assert.Equal(t, "ls\n__ecmd_rc=$?\npwd > 'd'\nenv > 'e'\nexit $__ecmd_rc",
		Posix{}.Script("ls", req, "d", "e"))
	assert.Equal(t, "ls\n__ecmd_rc=$?", Posix{}.Script("ls", Request{}, "", ""))
}

func TestReadLines(t *testing.T) {
	r := NewResult()
	readLines(strings.NewReader("a\r\nb\n\nlast"), r)
	assert.Equal(t, []string{"a", "b", "", "last"}, r.Drain())
}

func TestReadCapture(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cap")
	require.NoError(t, os.WriteFile(p, []byte("A=1\r\n\nB=2\n"), 0o644))

	lines, ok := ReadCapture(context.Background(), p, nil)
	assert.True(t, ok)
	assert.Equal(t, []string{"A=1", "B=2"}, lines)
	assert.NoFileExists(t, p)
}

func TestReadCapture_Missing(t *testing.T) {
	_, ok := ReadCapture(context.Background(), filepath.Join(t.TempDir(), "nope"), nil)
	assert.False(t, ok)

	_, ok = ReadCapture(context.Background(), "", nil)
	assert.False(t, ok)
}

func TestReadCapture_WaitsForWrite(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cap")
	require.NoError(t, os.WriteFile(p, nil, 0o644))
	go func() {
		time.Sleep(50 * time.Millisecond)
		os.WriteFile(p, []byte("/work\n"), 0o644)
	}()

	lines, ok := ReadCapture(context.Background(), p, nil)
	assert.True(t, ok)
	assert.Equal(t, []string{"/work"}, lines)
}

func TestReadCapture_GivesUp(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cap")
	require.NoError(t, os.WriteFile(p, nil, 0o644))

	start := time.Now()
	_, ok := ReadCapture(context.Background(), p, nil)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestReadCapture_HeldLock(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cap")
	require.NoError(t, os.WriteFile(p, []byte("x\n"), 0o644))
	fl := flock.New(lockPath(p))
	require.NoError(t, fl.Lock())
	defer fl.Unlock()

	_, ok := ReadCapture(context.Background(), p, nil)
	assert.False(t, ok)
}

func TestLocal_Closed(t *testing.T) {
	x, err := NewLocal(Config{Dialect: Posix{}, Shell: "/bin/sh -c", TempDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, x.Close())

	_, err = x.Start(context.Background(), Request{Command: "true"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestLocal_BadShell(t *testing.T) {
	_, err := NewLocal(Config{Shell: `"unterminated`})
	assert.Error(t, err)
}

func TestLocal_NothingToRun(t *testing.T) {
	x, err := NewLocal(Config{Dialect: Posix{}, TempDir: t.TempDir()})
	require.NoError(t, err)

	res, err := x.Start(context.Background(), Request{Command: "COLOR 07"})
	require.NoError(t, err)
	require.NoError(t, res.Wait(context.Background()))
	assert.True(t, res.Success())
	assert.Equal(t, 0, res.Len())
}
