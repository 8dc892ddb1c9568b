package theme

import (
	"github.com/charmbracelet/lipgloss"

	"go-raga/raga"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Drum grid
	StepEmpty     rune // · no hit
	StepActive    rune // ● primary hit
	StepSecondary rune // ○ open hat
	StepPlayhead  rune // ▶ current step

	// Melody strip
	Note rune // ◆ sounding note
	Rest rune // - silent slot
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			StepEmpty:     '·',
			StepActive:    '●',
			StepSecondary: '○',
			StepPlayhead:  '▶',

			Note: '◆',
			Rest: '-',
		},
	}
}

// FromScheme builds a theme from a raga's colors. The palette runs from
// background through primary, accent and secondary to text.
func FromScheme(cs raga.ColorScheme) (*Theme, error) {
	p, err := FromHex("raga", cs.Background, cs.Primary, cs.Accent, cs.Secondary, cs.Text)
	if err != nil {
		return nil, err
	}
	return New(p), nil
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG     = 0.0  // background
	RoleMuted  = 0.25 // primary
	RoleAccent = 0.5  // accent
	RoleActive = 0.75 // secondary
	RoleFG     = 1.0  // text
)

func (t *Theme) BG() lipgloss.Color     { return t.Color(RoleBG) }
func (t *Theme) FG() lipgloss.Color     { return t.Color(RoleFG) }
func (t *Theme) Accent() lipgloss.Color { return t.Color(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color  { return t.Color(RoleMuted) }
func (t *Theme) Active() lipgloss.Color { return t.Color(RoleActive) }

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return lipgloss.Color(t.Palette.Lookup(norm).Hex())
}

// NoteColor shades a lit note by pitch class, from accent to text.
func (t *Theme) NoteColor(pitch int) lipgloss.Color {
	pc := ((pitch % 12) + 12) % 12
	return t.Color(RoleAccent + (RoleFG-RoleAccent)*float64(pc)/11)
}
