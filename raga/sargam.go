package raga

import (
	"strings"
)

// Direction decides how an unmarked note crosses the octave.
type Direction int

const (
	Rising  Direction = iota // aroha: a lower swara climbs an octave
	Falling                  // avroha: a higher swara drops an octave
	Nearest                  // pakad: stay within a tritone of the previous note
)

var swaras = map[string]int{
	"S": 0, "r": 1, "R": 2, "g": 3, "G": 4, "M": 5, "M'": 6,
	"P": 7, "d": 8, "D": 9, "n": 10, "N": 11,
}

// middle octave: S = MIDI 60
const middleOctave = 4

// ParseSargam converts a sargam phrase such as "S R G M' P D N S'" into MIDI
// pitches. A trailing ' marks the upper octave, a trailing . the lower one.
// Unknown tokens are skipped.
func ParseSargam(s string, dir Direction) []int {
	tokens := strings.Fields(strings.ReplaceAll(s, ",", " "))
	out := make([]int, 0, len(tokens))

	octave := middleOctave
	last := -1
	for _, tok := range tokens {
		pc, mark, ok := parseSwara(tok)
		if !ok {
			continue
		}

		switch mark {
		case '\'':
			octave = middleOctave + 1
		case '.':
			octave = middleOctave - 1
		default:
			if last >= 0 {
				switch {
				case dir == Rising && pc < last:
					octave++
				case dir == Falling && pc > last:
					octave--
				case dir == Nearest && pc-last > 6:
					octave--
				case dir == Nearest && last-pc > 6:
					octave++
				}
			}
		}

		out = append(out, pc+12*(octave+1))
		last = pc
	}
	return out
}

// ParseMotifs splits a comma separated pakad into phrases.
func ParseMotifs(pakad string) [][]int {
	var out [][]int
	for _, phrase := range strings.Split(pakad, ",") {
		if notes := ParseSargam(phrase, Nearest); len(notes) > 0 {
			out = append(out, notes)
		}
	}
	return out
}

// SwaraPitch returns the middle-octave pitch of the first swara in s, or 60
// when s has none.
func SwaraPitch(s string) int {
	for _, tok := range strings.Fields(s) {
		if pc, _, ok := parseSwara(tok); ok {
			return 60 + pc
		}
	}
	return 60
}

// parseSwara resolves a token to its pitch class and octave mark.
// A bare M' is tivra Ma; marking it needs a second symbol (M'' or M'.).
func parseSwara(tok string) (pc int, mark byte, ok bool) {
	if pc, ok := swaras[tok]; ok {
		return pc, 0, true
	}
	bare := strings.Trim(tok, ".'")
	if bare == "M" && strings.HasPrefix(tok, "M'") {
		// M'' or M'. : tivra with a marker
		bare = "M'"
	}
	pc, ok = swaras[bare]
	if !ok {
		return 0, 0, false
	}
	switch {
	case strings.HasSuffix(tok, "."):
		mark = '.'
	case strings.HasSuffix(tok, "'") && bare != "M'", strings.HasSuffix(tok, "''"):
		mark = '\''
	case strings.HasPrefix(tok, "."):
		mark = '.'
	}
	return pc, mark, true
}

var swaraNames = [12]string{"S", "r", "R", "g", "G", "M", "M'", "P", "d", "D", "n", "N"}

// SwaraName writes pitch in sargam relative to S = 60, marking the upper
// octave with ' and the lower with a leading dot.
func SwaraName(pitch int) string {
	pc := ((pitch % 12) + 12) % 12
	name := swaraNames[pc]
	switch oct := (pitch - pc - 60) / 12; {
	case oct > 0:
		name += strings.Repeat("'", oct)
	case oct < 0:
		name = strings.Repeat(".", -oct) + name
	}
	return name
}
