package composer

import "strings"

// Steps is the fixed pattern length, independent of the time signature.
const Steps = 16

// Track is one percussion lane.
type Track int

const (
	Kick Track = iota
	Snare
	Hats
	Percussion
	Ride
	NumTracks
)

var trackNames = [NumTracks]string{"kick", "snare", "hats", "perc", "ride"}

func (t Track) String() string {
	if t < 0 || t >= NumTracks {
		return "?"
	}
	return trackNames[t]
}

// Trigger codes. Secondary is only used by hats, for the open hat.
const (
	Off       = 0
	Primary   = 1
	Secondary = 2
)

// Pattern holds Steps triggers per track.
type Pattern [NumTracks][Steps]int

// Empty reports whether no step of any track fires.
func (p *Pattern) Empty() bool {
	if p == nil {
		return true
	}
	for t := range p {
		for _, v := range p[t] {
			if v != Off {
				return false
			}
		}
	}
	return true
}

// String renders the pattern as a small grid, one track per line.
func (p *Pattern) String() string {
	var b strings.Builder
	for t := Track(0); t < NumTracks; t++ {
		b.WriteString(t.String())
		b.WriteString(strings.Repeat(" ", 6-len(t.String())))
		for _, v := range p[t] {
			switch v {
			case Primary:
				b.WriteString("●")
			case Secondary:
				b.WriteString("○")
			default:
				b.WriteString("·")
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

var ghostSteps = []int{2, 6, 10, 14}

// GeneratePattern builds a house groove whose density follows intensity
// in [0,1].
func GeneratePattern(intensity float64, rng Rand) *Pattern {
	var p Pattern

	// four on the floor
	for i := 0; i < Steps; i += 4 {
		p[Kick][i] = Primary
	}

	p[Snare][4] = Primary
	p[Snare][12] = Primary
	if rng.Float64() < intensity*0.3 {
		p[Snare][Choice(rng, ghostSteps)] = Primary
	}

	// off-beat open hats, closed sixteenths by intensity
	for i := 2; i < Steps; i += 4 {
		p[Hats][i] = Secondary
	}
	for i := 0; i < Steps; i++ {
		if p[Hats][i] == Off && rng.Float64() < intensity*0.6 {
			p[Hats][i] = Primary
		}
	}

	for i := 0; i < Steps; i += 4 {
		if rng.Float64() < intensity*0.4 {
			p[Ride][i] = Primary
		}
	}

	for i := 0; i < Steps; i++ {
		if p[Kick][i] == Off && p[Snare][i] == Off && rng.Float64() < 0.1+intensity*0.2 {
			p[Percussion][i] = Primary
		}
	}
	return &p
}

type fillShape func(p *Pattern)

var fillShapes = []fillShape{
	// syncopated snare
	func(p *Pattern) {
		p[Snare][12], p[Snare][14] = Primary, Primary
		for i := 12; i < 16; i++ {
			p[Hats][i] = Primary
		}
	},
	// percussion build
	func(p *Pattern) {
		p[Percussion][10], p[Percussion][12], p[Percussion][14] = Primary, Primary, Primary
		p[Snare][15] = Primary
	},
	// kick build
	func(p *Pattern) {
		p[Kick][8], p[Kick][10], p[Kick][12] = Primary, Primary, Primary
		p[Snare][14] = Primary
	},
	// tom-like run on perc
	func(p *Pattern) {
		p[Percussion][8], p[Percussion][10] = Primary, Primary
		p[Snare][12], p[Snare][13] = Primary, Primary
	},
}

// NumFills is the number of fill shapes GenerateFill chooses from.
var NumFills = len(fillShapes)

// GenerateFill returns one of the fixed fill shapes, chosen uniformly.
func GenerateFill(rng Rand) *Pattern {
	return FillShape(rng.IntN(len(fillShapes)))
}

// FillShape returns fill shape i.
func FillShape(i int) *Pattern {
	var p Pattern
	fillShapes[i%len(fillShapes)](&p)
	return &p
}
