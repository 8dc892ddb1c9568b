package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-raga/composer"
	"go-raga/raga"
	"go-raga/theme"
)

func testTheme(t *testing.T) *theme.Theme {
	th, err := theme.FromScheme(raga.DefaultColors)
	require.NoError(t, err)
	return th
}

func TestDrumGrid(t *testing.T) {
	var p composer.Pattern
	p[composer.Kick][0] = composer.Primary
	p[composer.Hats][2] = composer.Secondary

	out := ansi.Strip(RenderDrumGrid(testTheme(t), p, 1))
	lines := strings.Split(out, "\n")
	require.Len(t, lines, int(composer.NumTracks))
	assert.Equal(t, "kick  ●··· ···· ···· ···· ", lines[0])
	assert.Equal(t, "snare ·▶·· ···· ···· ···· ", lines[1])
	assert.Equal(t, "hats  ·▶○· ···· ···· ···· ", lines[2])
}

func TestMelodyStrip(t *testing.T) {
	seq := composer.Sequence{60, composer.Rest, 67, 72}
	out := ansi.Strip(RenderMelody(testTheme(t), seq, 6))
	assert.Equal(t, "S  -  P  S' ", out)
}

func TestLitNotes(t *testing.T) {
	out := ansi.Strip(RenderLit(testTheme(t), []int{60, 66}))
	assert.Equal(t, "◆S ◆M'", out)
}
