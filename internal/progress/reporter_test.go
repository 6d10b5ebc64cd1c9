package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCIReporter(t *testing.T) {
	var out bytes.Buffer
	r := &CIReporter{Description: "Exporting menus", Out: &out}

	r.Start(2)
	r.Update(1, "2024-01-03")
	r.Update(2, "2024-01-02")
	r.Finish()

	assert.Equal(t, "Exporting menus: 2 steps\n[1/2] 2024-01-03\n[2/2] 2024-01-02\nExporting menus: done\n", out.String())
}

func TestNewReporter(t *testing.T) {
	t.Setenv("CI", "true")
	r, ok := NewReporter("x").(*CIReporter)
	assert.True(t, ok)
	assert.Equal(t, "x", r.Description)

	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	_, ok = NewReporter("x").(*TerminalReporter)
	assert.True(t, ok)
}

func TestTerminalReporter_WithoutStart(t *testing.T) {
	r := &TerminalReporter{}
	assert.NotPanics(t, func() {
		r.Update(1, "x")
		r.Finish()
	})
}
