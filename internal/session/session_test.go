package session

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecmd/internal/console"
	"ecmd/internal/tmpl"
)

func newTestSession(t *testing.T, cols, rows int) (*Session, *console.Headless) {
	t.Helper()
	con := console.NewHeadless(cols, rows)
	s := New(con, Config{ID: "test", Echo: true, WorkingDirectory: `C:\work`})
	s.WritePrompt(false)
	return s, con
}

func TestWritePrompt(t *testing.T) {
	s, con := newTestSession(t, 40, 5)

	assert.Equal(t, `C:\work>`, con.Row(0))
	assert.Equal(t, console.Point{X: 8, Y: 0}, s.Input.Start)
	assert.Equal(t, s.Input.Start, con.Cursor())
}

func TestWritePrompt_EchoOff(t *testing.T) {
	s, con := newTestSession(t, 40, 5)
	s.EchoEnabled = false
	s.Console.Write("done")

	s.WritePrompt(true)

	assert.Equal(t, `C:\work>done`, con.Row(0))
	assert.Equal(t, "", con.Row(1))
	assert.Equal(t, console.Point{X: 0, Y: 1}, s.Input.Start)
}

func TestRedraw_ExpandsTabs(t *testing.T) {
	s, con := newTestSession(t, 40, 5)
	s.InputAppend("ab\tc")

	// Prompt ends at 8; 'a' 8, 'b' 9, tab 10..15, 'c' 16.
	assert.Equal(t, `C:\work>ab      c`, con.Row(0))
	assert.Equal(t, console.Point{X: 17, Y: 0}, con.Cursor())
}

func TestRedraw_BlanksRemovedText(t *testing.T) {
	s, con := newTestSession(t, 40, 5)
	s.InputAppend("hello")
	s.InputRemove(4)
	s.InputRemove(0)

	assert.Equal(t, `C:\work>ell`, con.Row(0))
	assert.Equal(t, 0, s.CursorIndex())
}

func TestRedraw_WrapsAcrossRows(t *testing.T) {
	s, con := newTestSession(t, 12, 5)
	s.InputAppend("abcdefg")

	assert.Equal(t, `C:\work>abcd`, con.Row(0))
	assert.Equal(t, "efg", con.Row(1))
	assert.Equal(t, console.Point{X: 3, Y: 1}, con.Cursor())
	assert.Equal(t, 7, s.CursorIndex())
}

func TestRedraw_ScrollsAtBottom(t *testing.T) {
	con := console.NewHeadless(12, 3)
	s := New(con, Config{Echo: true, WorkingDirectory: `C:\work`})
	con.Write("x\ny\n")
	s.WritePrompt(false)
	require.Equal(t, 2, s.Input.Start.Y)

	s.InputAppend("abcdefg")

	assert.Equal(t, 1, s.Input.Start.Y)
	assert.Equal(t, `C:\work>abcd`, con.Row(1))
	assert.Equal(t, "efg", con.Row(2))
	assert.Equal(t, "y", con.Row(0))
}

func TestInputClear(t *testing.T) {
	s, con := newTestSession(t, 40, 5)
	s.InputAppend("dir /s")

	s.InputClear(true, 1)

	assert.Equal(t, `C:\work>`, con.Row(0))
	assert.Equal(t, 0, s.Input.Len())
	assert.Equal(t, s.Input.Start, con.Cursor())
}

func TestFinishInput(t *testing.T) {
	s, con := newTestSession(t, 40, 5)
	s.InputAppend("ver")
	s.MoveCursorToStartOfInput()

	s.FinishInput()

	assert.Equal(t, console.Point{X: 0, Y: 1}, con.Cursor())
	assert.Equal(t, `C:\work>ver`, con.Row(0))
}

func TestEditModeTransitions(t *testing.T) {
	s, con := newTestSession(t, 40, 5)
	s.InputAppend("edit")

	var seen []bool
	unsubscribe := s.OnModeChanged(func(edit bool) { seen = append(seen, edit) })

	s.EnterEditMode()
	assert.Equal(t, ModeEdit, s.Mode())
	assert.Equal(t, 0, s.Input.Len())
	assert.Equal(t, `C:\work>`, con.Row(0))

	s.EnterEditMode()
	s.ExitEditMode()
	assert.Equal(t, ModeNormal, s.Mode())
	assert.Equal(t, []bool{true, false}, seen)
	assert.Equal(t, `C:\work>`, con.Row(1))

	unsubscribe()
	s.EnterEditMode()
	assert.Len(t, seen, 2)
}

func TestEndSession(t *testing.T) {
	s, _ := newTestSession(t, 40, 5)
	var closed bool
	s.OnSessionClosing(func(c bool) { closed = c })
	s.OnModeChanged(func(bool) {})

	code := 5
	s.EndSession(&code)

	assert.True(t, s.Closing())
	assert.True(t, closed)
	require.NotNil(t, s.ExitCode)
	assert.Equal(t, 5, *s.ExitCode)
	assert.Equal(t, 0, s.modeChanged.len())
	assert.Equal(t, 0, s.closingSubs.len())
}

func TestEndSession_NoCode(t *testing.T) {
	s, _ := newTestSession(t, 40, 5)
	s.EndSession(nil)
	assert.True(t, s.Closing())
	assert.Nil(t, s.ExitCode)
}

func TestApplyEnvironment(t *testing.T) {
	s, _ := newTestSession(t, 40, 5)
	t.Setenv("ECMD_TEST_OWNED", "keep")
	t.Setenv("ECMD_SYNC_VALUE", "")

	n := s.ApplyEnvironment([]string{
		"ECMD_SYNC_VALUE=changed",
		"ECMD_TEST_OWNED=clobbered",
		"not a variable",
		"=C:=C:\\",
	})

	assert.Equal(t, 0, n)
	assert.Equal(t, "keep", os.Getenv("ECMD_TEST_OWNED"))

	t.Setenv("EDITOR_SYNC_CHECK", "old")
	n = s.ApplyEnvironment([]string{"EDITOR_SYNC_CHECK=new"})
	assert.Equal(t, 1, n)
	assert.Equal(t, "new", os.Getenv("EDITOR_SYNC_CHECK"))
}

func TestDriveOf(t *testing.T) {
	assert.Equal(t, 'c', DriveOf(`C:\Windows`))
	assert.Equal(t, 'd', DriveOf("d:"))
	assert.Equal(t, rune(0), DriveOf("/home/user"))
	assert.Equal(t, rune(0), DriveOf("1:"))
}

func TestNew_RemembersDrivePaths(t *testing.T) {
	con := console.NewHeadless(40, 5)
	s := New(con, Config{WorkingDirectory: `C:\work`, DrivePaths: map[string]string{"D": `D:\Data`}})

	assert.Equal(t, `D:\Data`, s.DrivePaths['d'])
	assert.Equal(t, `C:\work`, s.DrivePaths['c'])
}

func TestPrompt_Format(t *testing.T) {
	format, err := tmpl.Parse(`[{{.Status}}] {{base .Dir}}$ `)
	require.NoError(t, err)
	con := console.NewHeadless(40, 5)
	s := New(con, Config{Echo: true, WorkingDirectory: `C:\work\src`, PromptFormat: format})
	s.LastExitCode = 2

	s.WritePrompt(false)

	assert.Equal(t, `[2] src$`, con.Row(0))
	assert.Equal(t, console.Point{X: 9, Y: 0}, s.Input.Start)
}

func TestPrompt_FormatErrorFallsBack(t *testing.T) {
	format, err := tmpl.Parse(`{{.Missing}}`)
	require.NoError(t, err)
	s := New(console.NewHeadless(40, 5), Config{WorkingDirectory: `C:\work`, PromptFormat: format})

	assert.Equal(t, `C:\work>`, s.Prompt())
}
