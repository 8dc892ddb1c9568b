package tui

import (
	"sort"
	"sync"
	"time"
)

// minGlow keeps very short notes visible for at least a frame or two.
const minGlow = 150 * time.Millisecond

// Lights is the terminal's VisualSink: it remembers which notes are lit
// and until when.
type Lights struct {
	mu  sync.Mutex
	lit map[int]time.Time
	now func() time.Time
}

func NewLights() *Lights {
	return &Lights{lit: make(map[int]time.Time), now: time.Now}
}

func (l *Lights) NoteLit(pitch int, dur time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	until := l.now().Add(max(dur, minGlow))
	if until.After(l.lit[pitch]) {
		l.lit[pitch] = until
	}
	return nil
}

// Lit returns the pitches still lit, lowest first, and forgets the rest.
func (l *Lights) Lit() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	out := make([]int, 0, len(l.lit))
	for p, until := range l.lit {
		if now.After(until) {
			delete(l.lit, p)
			continue
		}
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// Clear turns every light off.
func (l *Lights) Clear() {
	l.mu.Lock()
	clear(l.lit)
	l.mu.Unlock()
}
