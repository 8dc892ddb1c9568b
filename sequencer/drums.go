package sequencer

import (
	"go-raga/composer"
	"go-raga/midi"
)

const (
	clapChance = 0.5
	fxChance   = 0.008
	gongChance = 0.05
)

var fxVoices = []midi.Voice{midi.VoiceFX, midi.VoiceFXAlt}

// playDrums triggers the active pattern at step. Outside full focus only
// the quarter-note hats keep time. Levels come from the kit, so every
// hit is sent at full velocity.
func (e *Engine) playDrums(step int) {
	p := e.st.ActivePattern()
	if p == nil {
		return
	}
	full := e.st.Cadence.Focus.drums()
	hit := func(v midi.Voice) {
		e.safe("drums", func() error { return e.sound.Hit(v, 1) })
	}

	if full {
		if p[composer.Kick][step] > 0 {
			hit(midi.VoiceKick)
		}
		if p[composer.Snare][step] > 0 {
			hit(midi.VoiceSnare)
			if e.rng.Float64() < clapChance {
				hit(midi.VoiceClap)
			}
		}
		if p[composer.Percussion][step] > 0 {
			hit(midi.VoicePerc)
		}
		if p[composer.Ride][step] > 0 {
			hit(midi.VoiceRide)
		}
		if e.rng.Float64() < fxChance {
			hit(composer.Choice(e.rng, fxVoices))
		}
		if step%4 == 2 && e.rng.Float64() < gongChance {
			hit(midi.VoiceGong)
		}
	}

	if h := p[composer.Hats][step]; h > 0 && (full || step%4 == 0) {
		switch {
		case h == composer.Primary:
			hit(midi.VoiceClosedHat)
		case full:
			hit(midi.VoiceOpenHat)
		}
	}
}
