package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-raga/composer"
	"go-raga/debug"
	"go-raga/errs"
	"go-raga/raga"
	"go-raga/sequencer"
	"go-raga/theme"
	"go-raga/widgets"
)

// Output is the part of the MIDI output the header reports on.
type Output interface {
	PortName() string
	Ready() bool
}

type Model struct {
	Engine  *sequencer.Engine
	Library *raga.Library
	Lights  *Lights
	Output  Output // may be nil
	Theme   *theme.Theme
	// Palette, if set, replaces the raga colour schemes.
	Palette *theme.Palette
	// Errors, if set, feeds engine errors to the status line.
	Errors <-chan error

	help     help.Model
	names    []string
	ragaIdx  int
	status   string
	err      error
	quitting bool
	now      func() time.Time
}

type UpdateMsg struct{}

// ErrorMsg carries an error from the engine's error handler.
type ErrorMsg struct{ Err error }

func NewModel(engine *sequencer.Engine, lib *raga.Library, lights *Lights, out Output) Model {
	m := Model{
		Engine:  engine,
		Library: lib,
		Lights:  lights,
		Output:  out,
		help:    help.New(),
		names:   lib.Names(),
		now:     time.Now,
	}
	snap := engine.Snapshot()
	if snap.Raga != nil {
		m.ragaIdx = max(0, slices.Index(m.names, snap.Raga.Name))
	}
	m.Theme = m.themeFor(snap.Raga)
	return m
}

// WithPalette fixes the colours to p regardless of raga.
func (m Model) WithPalette(p *theme.Palette) Model {
	m.Palette = p
	m.Theme = m.themeFor(nil)
	return m
}

func ListenForUpdates(engine *sequencer.Engine) tea.Cmd {
	return func() tea.Msg {
		<-engine.Updates()
		return UpdateMsg{}
	}
}

func ListenForErrors(errors <-chan error) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Err: <-errors}
	}
}

func (m Model) Init() tea.Cmd {
	if m.Errors == nil {
		return ListenForUpdates(m.Engine)
	}
	return tea.Batch(ListenForUpdates(m.Engine), ListenForErrors(m.Errors))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.err = nil
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			m.Engine.Stop()
			return m, tea.Quit

		case key.Matches(msg, keys.Play):
			if m.Engine.Playing() {
				m.Engine.Stop()
				m.Lights.Clear()
			} else {
				m.err = m.Engine.Start()
			}

		case key.Matches(msg, keys.Mode):
			next := (m.Engine.Snapshot().Mode + 1) % 3
			m.err = m.Engine.SetMode(next)
			m.status = "mode " + next.String()

		case key.Matches(msg, keys.Signature):
			sig := nextSignature(m.Engine.Snapshot().Signature)
			m.err = m.Engine.SetTimeSignature(sig)
			m.status = "time " + sig.String()

		case key.Matches(msg, keys.NextRaga):
			m.selectRaga(m.ragaIdx + 1)

		case key.Matches(msg, keys.PrevRaga):
			m.selectRaga(m.ragaIdx - 1)

		case key.Matches(msg, keys.Suggest):
			m.suggest()

		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case ErrorMsg:
		m.err = msg.Err
		if m.Errors != nil {
			return m, ListenForErrors(m.Errors)
		}

	case UpdateMsg:
		return m, ListenForUpdates(m.Engine)
	}

	return m, nil
}

func (m *Model) selectRaga(i int) {
	if len(m.names) == 0 {
		return
	}
	i = (i%len(m.names) + len(m.names)) % len(m.names)
	r, err := m.Library.Find(m.names[i])
	if err == nil {
		err = m.Engine.LoadRaga(r)
	}
	if err != nil {
		m.err = err
		return
	}
	m.ragaIdx = i
	m.Theme = m.themeFor(r)
	m.status = r.Name
}

func (m *Model) suggest() {
	ragas := m.Library.SuggestRagas(m.now().Hour())
	if len(ragas) == 0 {
		m.status = "no raga for this hour"
		return
	}
	// step through the hour's ragas on repeated presses
	cur := m.names[m.ragaIdx]
	pick := ragas[0]
	for i, r := range ragas {
		if r.Name == cur {
			pick = ragas[(i+1)%len(ragas)]
		}
	}
	m.selectRaga(slices.Index(m.names, pick.Name))
}

func nextSignature(cur composer.TimeSignature) composer.TimeSignature {
	sigs := composer.TimeSignatures
	i := slices.Index(sigs, cur)
	return sigs[(i+1)%len(sigs)]
}

func (m Model) themeFor(r *raga.Raga) *theme.Theme {
	if m.Palette != nil {
		return theme.New(m.Palette)
	}
	cs := raga.DefaultColors
	if r != nil {
		cs = r.Scheme()
	}
	th, err := theme.FromScheme(cs)
	if err != nil {
		debug.Log("tui", "bad colors for raga: %v", err)
		th, _ = theme.FromScheme(raga.DefaultColors)
	}
	return th
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.Engine.Snapshot()
	th := m.Theme

	headerStyle := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	textStyle := lipgloss.NewStyle().Foreground(th.FG())
	errStyle := lipgloss.NewStyle().Foreground(th.Active()).Bold(true)

	playState := "STOP"
	if snap.Playing {
		playState = "PLAY"
	}

	name := "no raga"
	detail := ""
	if snap.Raga != nil {
		name = snap.Raga.Name
		detail = fmt.Sprintf("%s · %s · vadi %s samvadi %s", snap.Raga.Mood, snap.Raga.TimeSlot,
			raga.SwaraName(snap.Raga.Emphasis()), raga.SwaraName(snap.Raga.SecondaryEmphasis()))
	}

	header := headerStyle.Render(fmt.Sprintf("go-raga  %s  %s  %s  %s  %3.0fbpm",
		name, playState, snap.Mode, snap.Signature, snap.Tempo))

	special := snap.Special.String()
	if snap.Progress != "" {
		special += " " + snap.Progress
	}
	state := dimStyle.Render(fmt.Sprintf("bar %d  beat %d  focus %s  %s  intensity %.2f",
		snap.Bar, snap.CurrentBeat, snap.Focus, special, snap.Intensity))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n")
	if detail != "" {
		out.WriteString(textStyle.Render(detail))
		out.WriteString("  ")
		out.WriteString(widgets.RenderSwatch(th))
		out.WriteString("\n")
	}
	out.WriteString(state)
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderMelody(th, snap.Sequence, snap.CurrentBeat))
	out.WriteString("\n\n")

	if snap.Mode == sequencer.Rhythm {
		grid := widgets.RenderDrumGrid(th, snap.Pattern, snap.CurrentBeat%composer.Steps)
		if snap.Filling {
			grid += "\n" + dimStyle.Render("fill")
		}
		out.WriteString(grid)
		out.WriteString("\n\n")
	}

	out.WriteString(widgets.RenderLit(th, m.Lights.Lit()))
	out.WriteString("\n\n")

	if m.Output != nil {
		port := "waiting"
		if m.Output.Ready() {
			port = "connected"
		}
		out.WriteString(dimStyle.Render(fmt.Sprintf("midi: %s (%s)", m.Output.PortName(), port)))
		out.WriteString("\n")
	}
	if m.err != nil {
		out.WriteString(errStyle.Render(errs.Describe(m.err)))
		out.WriteString("\n")
	} else if m.status != "" {
		out.WriteString(dimStyle.Render(m.status))
		out.WriteString("\n")
	}
	out.WriteString(m.help.View(keys))

	return out.String()
}
