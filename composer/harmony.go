package composer

import "go-raga/raga"

// Bassline is root, root, fifth, root on the raga's vadi, four times over.
func Bassline(r *raga.Raga) []int {
	root := r.Emphasis()
	figure := []int{root, root, root + 7, root}
	out := make([]int, 0, len(figure)*4)
	for i := 0; i < 4; i++ {
		out = append(out, figure...)
	}
	return out
}

// Triad is the major triad on root.
func Triad(root int) []int {
	return []int{root, root + 4, root + 7}
}

// ChordRoot picks the chord root for a bar: the first note of the bar,
// else the raga's vadi folded into range.
func ChordRoot(seq Sequence, r *raga.Raga) int {
	if p, ok := seq.First(); ok {
		return p
	}
	return FitRange(r.Emphasis())
}
