package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-raga/composer"
	"go-raga/raga"
	"go-raga/theme"
)

// RenderDrumGrid draws one line per track with the playhead on step.
// A step outside 0-15 draws no playhead.
func RenderDrumGrid(th *theme.Theme, p composer.Pattern, step int) string {
	dim := lipgloss.NewStyle().Foreground(th.Muted())
	hit := lipgloss.NewStyle().Foreground(th.Active())
	head := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)

	var lines []string
	for t := composer.Track(0); t < composer.NumTracks; t++ {
		var line strings.Builder
		line.WriteString(dim.Render(fmt.Sprintf("%-6s", t)))
		for i, v := range p[t] {
			r, style := th.Symbols.StepEmpty, dim
			switch v {
			case composer.Primary:
				r, style = th.Symbols.StepActive, hit
			case composer.Secondary:
				r, style = th.Symbols.StepSecondary, hit
			}
			if i == step {
				style = head
				if v == composer.Off {
					r = th.Symbols.StepPlayhead
				}
			}
			line.WriteString(style.Render(string(r)))
			if i%4 == 3 {
				line.WriteString(" ")
			}
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// RenderMelody draws the bar in sargam, highlighting the current slot.
func RenderMelody(th *theme.Theme, seq composer.Sequence, beat int) string {
	dim := lipgloss.NewStyle().Foreground(th.Muted())
	cur := 0
	if len(seq) > 0 {
		cur = beat % len(seq)
	}

	var parts []string
	for i, p := range seq {
		style := lipgloss.NewStyle().Foreground(th.NoteColor(p))
		text := raga.SwaraName(p)
		if p == composer.Rest {
			style, text = dim, string(th.Symbols.Rest)
		}
		if i == cur {
			style = style.Reverse(true)
		}
		parts = append(parts, style.Render(fmt.Sprintf("%-3s", text)))
	}
	return strings.Join(parts, "")
}

// RenderLit draws the notes currently lit, brightest last.
func RenderLit(th *theme.Theme, pitches []int) string {
	var out strings.Builder
	for i, p := range pitches {
		if i > 0 {
			out.WriteString(" ")
		}
		style := lipgloss.NewStyle().Foreground(th.NoteColor(p))
		out.WriteString(style.Render(string(th.Symbols.Note) + raga.SwaraName(p)))
	}
	return out.String()
}

// RenderSwatch shows the palette as a row of blocks.
func RenderSwatch(th *theme.Theme) string {
	var out strings.Builder
	for _, c := range th.Palette.Colors {
		out.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render("■"))
		out.WriteString(" ")
	}
	return strings.TrimRight(out.String(), " ")
}
