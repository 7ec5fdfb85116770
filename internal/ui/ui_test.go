package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errb bytes.Buffer
	prevOut, prevErr := Out, Err
	Out, Err = &out, &errb
	t.Cleanup(func() { Out, Err = prevOut, prevErr })
	return &out, &errb
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "█████░░░░░  50%", ProgressBar(1, 2, 10))
	assert.Equal(t, "░░░░░   0%", ProgressBar(0, 0, 1))
	assert.Equal(t, "█████ 100%", ProgressBar(9, 9, 5))
}

func TestPanelFramesLines(t *testing.T) {
	out, _ := capture(t)
	SetTheme("classic")

	Panel([]string{"Todos", C(fgGreen, "☑") + " done item"})

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "┌"))
	assert.True(t, strings.HasPrefix(lines[3], "└"))
	assert.Equal(t, visibleWidth(lines[0]), visibleWidth(lines[1]))
	assert.Equal(t, visibleWidth(lines[1]), visibleWidth(lines[2]))
}

func TestOKFailTargets(t *testing.T) {
	out, errb := capture(t)
	OK("added")
	Fail("boom")
	// Buffers are not terminals, so no escape codes.
	assert.Equal(t, "✔ added\n", out.String())
	assert.Equal(t, "✖ boom\n", errb.String())
}

func TestSetTheme(t *testing.T) {
	t.Cleanup(func() { _ = SetTheme("classic") })

	assert.Equal(t, []string{"classic", "mono", "neon"}, Themes())

	assert.NoError(t, SetTheme("NEON"))
	assert.Equal(t, "◼", Current().BoxChecked)
	assert.Equal(t, "completed", Current().Completed)

	err := SetTheme("sepia")
	assert.ErrorContains(t, err, `unknown theme "sepia"`)
	assert.Equal(t, "◼", Current().BoxChecked, "failed switch keeps the theme")

	assert.NoError(t, SetTheme(""))
	assert.Equal(t, "☐", Current().BoxUnchecked)
}
