package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"go-raga/config"
	"go-raga/debug"
	"go-raga/midi"
	"go-raga/sequencer"
	"go-raga/theme"
	"go-raga/tui"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Open the player and perform",
	RunE:  runPlay,
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Run the engine without a clock and print every event",
	RunE:  runDump,
}

var (
	autostart bool
	dumpTicks int
)

func init() {
	playCmd.Flags().BoolVar(&autostart, "start", false, "start playing immediately")
	dumpCmd.Flags().IntVarP(&dumpTicks, "ticks", "n", 64, "number of ticks to run")
}

func engineOptions(cfg *config.Config) ([]sequencer.Option, error) {
	mode, ok := sequencer.ParseMode(cfg.Performance.Mode)
	if !ok {
		return nil, fmt.Errorf("unknown mode %q", cfg.Performance.Mode)
	}
	opts := []sequencer.Option{
		sequencer.WithMode(mode),
		sequencer.WithTimeSignature(cfg.TimeSignature()),
	}
	if cfg.Performance.Seed != 0 {
		opts = append(opts, sequencer.WithSeed(cfg.Performance.Seed))
	}
	return opts, nil
}

// choosePort returns the configured port, or the first one found.
func choosePort(cfg *config.Config) string {
	if cfg.Output.PortName != "" {
		return cfg.Output.PortName
	}
	ports, err := midi.ListOutPorts()
	if err != nil || len(ports) == 0 {
		return ""
	}
	return ports[0]
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	lib, err := loadLibrary(cfg)
	if err != nil {
		return err
	}
	r, err := pickRaga(cfg, lib, time.Now())
	if err != nil {
		return err
	}
	channels, err := cfg.MIDIChannels()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	out := midi.NewOutput(choosePort(cfg), channels, cfg.Kit())
	if out.PortName() != "" {
		if err := out.Connect(); err != nil {
			debug.Log("midi", "%v", err)
		}
		// reconnect when the port comes back
		watcher := midi.NewPortWatcher()
		go watcher.Run(ctx)
		go out.Follow(ctx, watcher.Events())
	}

	// The handler runs inside a tick, so it must never block.
	errCh := make(chan error, 8)
	onError := func(err error) {
		select {
		case errCh <- err:
		default:
		}
	}

	lights := tui.NewLights()
	opts, err := engineOptions(cfg)
	if err != nil {
		return err
	}
	var sound sequencer.SoundSink = out
	if cfg.Debug {
		tap := &midi.Recorder{Discard: true, OnEvent: func(ev midi.Event) {
			if ev.Kind != midi.KindEffects {
				debug.Log("event", "%s", ev)
			}
		}}
		sound = sequencer.SoundFanout{out, tap}
	}
	opts = append(opts,
		sequencer.WithSound(sound),
		sequencer.WithVisual(lights),
		sequencer.WithErrorHandler(onError),
	)
	engine := sequencer.New(opts...)
	if err := engine.LoadRaga(r); err != nil {
		return err
	}
	if autostart {
		if err := engine.Start(); err != nil {
			return err
		}
	}

	m := tui.NewModel(engine, lib, lights, out)
	m.Errors = errCh
	if cfg.Palette != "" {
		palette, err := theme.LoadGPL(cfg.Palette)
		if err != nil {
			return err
		}
		m = m.WithPalette(palette)
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()

	engine.Stop()
	_ = out.AllNotesOff()
	return err
}

func runDump(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	lib, err := loadLibrary(cfg)
	if err != nil {
		return err
	}
	r, err := pickRaga(cfg, lib, time.Now())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	sched := sequencer.NewManualScheduler()
	rec := &midi.Recorder{}
	rec.OnEvent = func(ev midi.Event) {
		if ev.Kind == midi.KindEffects {
			return
		}
		fmt.Fprintf(w, "%9.3fs  %s\n", sched.Elapsed().Seconds(), ev)
	}

	opts, err := engineOptions(cfg)
	if err != nil {
		return err
	}
	opts = append(opts,
		sequencer.WithScheduler(sched),
		sequencer.WithSound(rec),
		sequencer.WithVisual(sequencer.NopVisual{}),
		sequencer.WithErrorHandler(func(err error) { fmt.Fprintf(w, "error: %v\n", err) }),
	)
	engine := sequencer.New(opts...)
	if err := engine.LoadRaga(r); err != nil {
		return err
	}
	if err := engine.Start(); err != nil {
		return err
	}

	snap := engine.Snapshot()
	fmt.Fprintf(w, "# %s, %s, %s, session %s\n", r.Name, snap.Mode, snap.Signature, snap.SessionID)
	ran := sched.Run(dumpTicks)
	engine.Stop()
	fmt.Fprintf(w, "# %d ticks, %d events, %d errors\n", ran, len(rec.Events()), engine.Errors())
	return nil
}

func runPorts(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	watch, _ := cmd.Flags().GetBool("watch")
	if !watch {
		ports, err := midi.ListOutPorts()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Fprintln(w, "no MIDI output ports")
		}
		for i, p := range ports {
			fmt.Fprintf(w, "  %d: %s\n", i, p)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	watcher := midi.NewPortWatcher()
	go watcher.Run(ctx)

	fmt.Fprintln(w, "watching for MIDI ports, ctrl-c to stop")
	for ev := range watcher.Events() {
		state := "+"
		if ev.Type == midi.PortDisconnected {
			state = "-"
		}
		fmt.Fprintf(w, "%s %s\n", state, ev.Name)
	}
	return nil
}
