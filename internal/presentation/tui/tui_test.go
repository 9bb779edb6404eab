package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/prism/internal/presentation/tui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer_PlainWhenPiped(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, tui.IsTerminal(&buf))

	out, err := tui.NewRenderer(&buf)("| a |\n|---|\n")
	require.NoError(t, err)
	assert.Equal(t, "| a |\n|---|\n", out)
}

func TestPrintBanner_NoEscapesWhenPiped(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_|")
	assert.NotContains(t, buf.String(), "\x1b[")
	assert.Equal(t, "title", tui.Heading(&buf, "title"))
}
