package sequencer

import (
	"github.com/aquilax/go-perlin"

	"go-raga/midi"
)

// Tempo ranges.
const (
	MinTempo         = 20
	MaxAmbientTempo  = 100
	RhythmTempo      = 120
	InteractionTempo = 130
)

// noise is smooth 1-D Perlin noise mapped to [0,1].
type noise struct {
	p *perlin.Perlin
}

func newNoise(seed int64) noise {
	return noise{p: perlin.NewPerlin(2, 2, 3, seed)}
}

func (n noise) at(x float64) float64 {
	v := n.p.Noise1D(x) + 0.5
	return min(max(v, 0), 1)
}

// between maps the noise at x onto [lo, hi].
func (n noise) between(x, lo, hi float64) float64 {
	return lo + (hi-lo)*n.at(x)
}

// ambientTempo drifts slowly between MinTempo and MaxAmbientTempo.
func (n noise) ambientTempo(clock int) float64 {
	return n.between(float64(clock)*0.06, MinTempo, MaxAmbientTempo)
}

// velocity follows the clock, 50..127 on the MIDI scale.
func (n noise) velocity(clock int) float64 {
	return n.between(float64(clock)/10, 50, 127) / 127
}

// effects sweeps the send levels, each on its own stretch of the noise.
func (n noise) effects(clock int) midi.EffectParams {
	x := float64(clock) * 0.05
	return midi.EffectParams{
		Reverb:        n.between(x, 0.2, 0.7),
		DelayFeedback: n.between(x+1000, 0.25, 0.75),
		DelayMix:      n.between(x+2000, 0, 0.5),
		Cutoff:        n.at(x + 3000),
	}
}
