package midi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// ErrPortScanTimeout is returned when the driver does not answer in time.
// CoreMIDI in particular can hang; `sudo killall coreaudiod midiserver`
// usually clears it.
var ErrPortScanTimeout = errors.New("midi port scan timed out")

const scanTimeout = 3 * time.Second

// ListOutPorts returns the names of all output ports.
func ListOutPorts() ([]string, error) {
	ch := make(chan []string, 1)
	go func() {
		var names []string
		for _, p := range gomidi.GetOutPorts() {
			names = append(names, p.String())
		}
		ch <- names
	}()

	select {
	case names := <-ch:
		return names, nil
	case <-time.After(scanTimeout):
		return nil, ErrPortScanTimeout
	}
}

func openPort(name string) (func(gomidi.Message) error, error) {
	names, err := ListOutPorts()
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		if n != name {
			continue
		}
		port, err := gomidi.FindOutPort(name)
		if err != nil {
			return nil, err
		}
		return gomidi.SendTo(port)
	}
	return nil, fmt.Errorf("midi output port %q not found", name)
}

// PortEvent is emitted when an output port appears or disappears.
type PortEvent struct {
	Type PortEventType
	Name string
}

type PortEventType int

const (
	PortConnected PortEventType = iota
	PortDisconnected
)

// PortWatcher polls for output ports coming and going.
type PortWatcher struct {
	mu       sync.RWMutex
	present  map[string]bool
	events   chan PortEvent
	pollRate time.Duration
	list     func() ([]string, error)
}

// NewPortWatcher creates a watcher polling once per second.
func NewPortWatcher() *PortWatcher {
	return &PortWatcher{
		present:  make(map[string]bool),
		events:   make(chan PortEvent, 16),
		pollRate: time.Second,
		list:     ListOutPorts,
	}
}

// Events returns a channel of port connect/disconnect events
func (w *PortWatcher) Events() <-chan PortEvent {
	return w.events
}

// Ports returns the ports seen on the last scan, sorted.
func (w *PortWatcher) Ports() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.present))
	for name := range w.present {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Run starts the polling loop (blocking - run in goroutine)
func (w *PortWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollRate)
	defer ticker.Stop()

	w.scan()
	for {
		select {
		case <-ctx.Done():
			close(w.events)
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *PortWatcher) scan() {
	names, err := w.list()
	if err != nil {
		// hung driver, try again next tick
		return
	}

	seen := make(map[string]bool, len(names))
	var evs []PortEvent

	w.mu.Lock()
	for _, n := range names {
		seen[n] = true
		if !w.present[n] {
			evs = append(evs, PortEvent{Type: PortConnected, Name: n})
		}
	}
	for n := range w.present {
		if !seen[n] {
			evs = append(evs, PortEvent{Type: PortDisconnected, Name: n})
		}
	}
	w.present = seen
	w.mu.Unlock()

	for _, ev := range evs {
		select {
		case w.events <- ev:
		default:
		}
	}
}
