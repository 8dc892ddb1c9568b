package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go-raga/midi"
	"go-raga/raga"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "poll":
		pollPorts()
	case "scale":
		err = playScale(os.Args[2:])
	case "kit":
		err = playKit(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                 - List all MIDI output ports")
	fmt.Println("  poll                 - Poll for port changes")
	fmt.Println("  scale <port> [raga]  - Play a raga's aroha and avroha on every channel")
	fmt.Println("  kit <port> [kit]     - Hit every drum voice once")
}

func listPorts() error {
	fmt.Println("=== MIDI Output Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ports, err := midi.ListOutPorts()
	if err == midi.ErrPortScanTimeout {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return nil
	}
	if err != nil {
		return err
	}
	for i, p := range ports {
		fmt.Printf("  %d: %s\n", i, p)
	}
	return nil
}

func pollPorts() {
	fmt.Println("Polling for port changes (Ctrl+C to stop)...")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w := midi.NewPortWatcher()
	go w.Run(ctx)
	for ev := range w.Events() {
		switch ev.Type {
		case midi.PortConnected:
			fmt.Printf("[%s] connected:    %s\n", time.Now().Format("15:04:05"), ev.Name)
		case midi.PortDisconnected:
			fmt.Printf("[%s] disconnected: %s\n", time.Now().Format("15:04:05"), ev.Name)
		}
	}
}

func connect(port string, kit string) (*midi.Output, error) {
	out := midi.NewOutput(port, midi.DefaultChannels, midi.GetKit(kit))
	if err := out.Connect(); err != nil {
		return nil, err
	}
	fmt.Printf("Connected to %s\n", port)
	return out, nil
}

func playScale(args []string) error {
	if len(args) < 1 {
		usage()
		return nil
	}
	name := "Yaman"
	if len(args) > 1 {
		name = args[1]
	}
	r, err := raga.Builtin().Find(name)
	if err != nil {
		return err
	}
	out, err := connect(args[0], midi.DefaultKit)
	if err != nil {
		return err
	}
	defer out.AllNotesOff()

	for _, ch := range []midi.Channel{midi.Melody, midi.Pad, midi.Bass} {
		shift := 0
		if ch == midi.Bass {
			shift = -24
		}
		fmt.Printf("%s on %s\n", r.Name, ch)
		for _, p := range append(append([]int(nil), r.Ascending...), r.Descending...) {
			fmt.Printf("  %-4s %d\n", raga.SwaraName(p), p+shift)
			if err := out.NoteOn(p+shift, 200*time.Millisecond, 0.8, ch); err != nil {
				return err
			}
			time.Sleep(250 * time.Millisecond)
		}
	}
	return nil
}

func playKit(args []string) error {
	if len(args) < 1 {
		usage()
		return nil
	}
	kitName := midi.DefaultKit
	if len(args) > 1 {
		kitName = args[1]
	}
	out, err := connect(args[0], kitName)
	if err != nil {
		return err
	}
	defer out.AllNotesOff()

	for v := midi.Voice(0); v < midi.NumVoices; v++ {
		fmt.Printf("  %s\n", v)
		if err := out.Hit(v, 1); err != nil {
			return err
		}
		time.Sleep(400 * time.Millisecond)
	}
	return nil
}
