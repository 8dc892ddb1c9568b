package raga

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"go-raga/errs"
)

//go:embed ragas.json
var builtinJSON []byte

// Entry is one raga as written in a library file, in sargam.
type Entry struct {
	Name    string `json:"name"`
	Aroha   string `json:"aroha"`
	Avroha  string `json:"avroha"`
	Pakad   string `json:"pakad"`
	Vadi    string `json:"vadi"`
	Samvadi string `json:"samvadi"`
}

// Mood groups ragas sharing a colour scheme.
type Mood struct {
	Name   string      `json:"name"`
	Colors ColorScheme `json:"color_scheme"`
	Ragas  []Entry     `json:"ragas"`
}

// Slot is a time-of-day window such as "10:00 PM - 04:00 AM".
type Slot struct {
	TimeSlot string `json:"time_slot"`
	Moods    []Mood `json:"moods"`
}

// Library is a parsed raga collection indexed by name.
type Library struct {
	Slots []Slot `json:"raga_suggestions"`

	ragas map[string]*Raga
	names []string
}

// Builtin returns the library compiled into the binary.
func Builtin() *Library {
	lib, err := Parse(builtinJSON)
	if err != nil {
		panic(fmt.Sprintf("raga: builtin library: %v", err))
	}
	return lib
}

// LoadFile reads a library from a JSON file.
func LoadFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("read raga library", "Could not read raga library "+path))
	}
	return Parse(data)
}

// Parse decodes and validates a library. Every raga must validate.
func Parse(data []byte) (*Library, error) {
	var lib Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return nil, fault.Wrap(err, fmsg.With("decode raga library"), ftag.With(errs.ConfigError))
	}

	lib.ragas = make(map[string]*Raga)
	for _, slot := range lib.Slots {
		for _, mood := range slot.Moods {
			for _, e := range mood.Ragas {
				r := e.Build(mood, slot.TimeSlot)
				if err := r.Validate(); err != nil {
					return nil, err
				}
				key := strings.ToLower(r.Name)
				if _, dup := lib.ragas[key]; !dup {
					lib.names = append(lib.names, r.Name)
				}
				lib.ragas[key] = r
			}
		}
	}
	if len(lib.ragas) == 0 {
		return nil, errs.Config("raga library is empty", "The raga library has no ragas")
	}
	sort.Strings(lib.names)
	return &lib, nil
}

// Build converts a sargam entry into a playable raga.
func (e Entry) Build(mood Mood, slot string) *Raga {
	return &Raga{
		Name:       e.Name,
		Ascending:  ParseSargam(e.Aroha, Rising),
		Descending: ParseSargam(e.Avroha, Falling),
		Motifs:     ParseMotifs(e.Pakad),
		Vadi:       SwaraPitch(e.Vadi),
		Samvadi:    SwaraPitch(e.Samvadi),
		Mood:       mood.Name,
		TimeSlot:   slot,
		Colors:     mood.Colors,
	}
}

// Names lists raga names alphabetically.
func (l *Library) Names() []string {
	return append([]string(nil), l.names...)
}

// Find looks a raga up by name, ignoring case.
func (l *Library) Find(name string) (*Raga, error) {
	if r, ok := l.ragas[strings.ToLower(strings.TrimSpace(name))]; ok {
		return r, nil
	}
	return nil, errs.Config(
		fmt.Sprintf("raga %q not found", name),
		fmt.Sprintf("Unknown raga %s", name),
	)
}

// Suggest returns the slot whose window contains hour (0-23).
func (l *Library) Suggest(hour int) (*Slot, bool) {
	for i := range l.Slots {
		start, end, err := l.Slots[i].Hours()
		if err != nil {
			continue
		}
		if end <= start {
			// overnight
			if hour >= start || hour < end {
				return &l.Slots[i], true
			}
		} else if hour >= start && hour < end {
			return &l.Slots[i], true
		}
	}
	return nil, false
}

// SuggestRagas flattens the ragas of the slot matching hour.
func (l *Library) SuggestRagas(hour int) []*Raga {
	slot, ok := l.Suggest(hour)
	if !ok {
		return nil
	}
	var out []*Raga
	for _, m := range slot.Moods {
		for _, e := range m.Ragas {
			if r, err := l.Find(e.Name); err == nil {
				out = append(out, r)
			}
		}
	}
	return out
}

// Hours parses the slot window into 24h start and end hours. A window
// ending at 12 AM ends at hour 24.
func (s Slot) Hours() (start, end int, err error) {
	parts := strings.Split(s.TimeSlot, "-")
	if len(parts) != 2 {
		return 0, 0, errs.Config(fmt.Sprintf("bad time slot %q", s.TimeSlot), "Invalid time slot")
	}
	if start, err = clockHour(parts[0], false); err != nil {
		return 0, 0, err
	}
	if end, err = clockHour(parts[1], true); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func clockHour(s string, isEnd bool) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	h, err := strconv.Atoi(strings.SplitN(s, ":", 2)[0])
	if err != nil {
		return 0, errs.Config(fmt.Sprintf("bad clock time %q", s), "Invalid time slot")
	}
	switch {
	case strings.Contains(s, "pm") && h != 12:
		h += 12
	case strings.Contains(s, "am") && h == 12 && isEnd:
		h = 24
	case strings.Contains(s, "am") && h == 12:
		h = 0
	}
	return h, nil
}
