package composer

// Absolute pitch window for generated notes.
const (
	LowestPitch  = 36
	HighestPitch = 84
)

var (
	octaveShifts  = []int{0, -12, 12, 24}
	octaveWeights = []float64{0.2, 0.4, 0.3, 0.1}
)

// OctaveShift moves pitch by a weighted random octave. A shift that would
// leave [LowestPitch, HighestPitch] is dropped.
func OctaveShift(rng Rand, pitch int) int {
	shifted := pitch + Weighted(rng, octaveShifts, octaveWeights)
	if shifted < LowestPitch || shifted > HighestPitch {
		return pitch
	}
	return shifted
}

// FitRange folds pitch by octaves into [LowestPitch, HighestPitch].
func FitRange(pitch int) int {
	for pitch < LowestPitch {
		pitch += 12
	}
	for pitch > HighestPitch {
		pitch -= 12
	}
	return pitch
}

// FastRhythmTemplate is a short ostinato: Pattern indexes the ascending set,
// Offsets transpose alternate steps.
type FastRhythmTemplate struct {
	Pattern []int
	Offsets []int
	Length  int
}

var FastRhythmTemplates = []FastRhythmTemplate{
	{Pattern: []int{0, 1, 0, 1}, Offsets: []int{0, 2}, Length: 4},
	{Pattern: []int{0, 2, 0, 2}, Offsets: []int{0, 4}, Length: 4},
	{Pattern: []int{1, 3, 1, 3}, Offsets: []int{2, 5}, Length: 4},
}

// FastRhythm is a running ostinato episode.
type FastRhythm struct {
	Template   FastRhythmTemplate
	Counter    int
	SubCounter int
}

// Bound is the number of counter steps the episode lasts.
func (f *FastRhythm) Bound() int {
	return f.Template.Length * 2
}

// Active reports whether the episode still has steps left.
func (f *FastRhythm) Active() bool {
	return f != nil && f.Counter < f.Bound()
}

// Note is the pitch for the current sub-step.
func (f *FastRhythm) Note(ascending []int) int {
	p := f.Template.Pattern
	idx := f.SubCounter % len(p)
	off := f.Template.Offsets[idx%len(f.Template.Offsets)]
	return ascending[(p[idx]+off)%len(ascending)]
}

// TihaiRepetitions is how many times a tihai phrase is played.
const TihaiRepetitions = 3

var TihaiPatterns = [][]int{
	{1, 1, 2, 2, 1, 1, 2, 2, 1, 1, 2, 2},
	{3, 3, 4, 4, 3, 3, 4, 4, 3, 3, 4, 4},
}

// Tihai is a cadential phrase played TihaiRepetitions times.
type Tihai struct {
	Pattern    []int
	Counter    int
	Repetition int
}

// Done reports whether all repetitions have been played.
func (t *Tihai) Done() bool {
	return t.Repetition >= TihaiRepetitions
}

// Note is the pitch at the current position.
func (t *Tihai) Note(ascending []int) int {
	return ascending[t.Pattern[t.Counter]%len(ascending)]
}

// Advance moves one step, wrapping into the next repetition.
func (t *Tihai) Advance() {
	t.Counter++
	if t.Counter >= len(t.Pattern) {
		t.Counter = 0
		t.Repetition++
	}
}
