package midi

import "math"

// Kit maps drum voices to notes on the drum channel, with a level per voice
// in dB.
type Kit struct {
	Name   string
	Notes  [NumVoices]uint8
	Levels [NumVoices]float64
}

// default levels, dB below full scale
var houseLevels = [NumVoices]float64{
	VoiceKick:      -10,
	VoiceSnare:     -8,
	VoiceClap:      -8,
	VoiceClosedHat: -14,
	VoiceOpenHat:   -14,
	VoicePerc:      -12,
	VoiceRide:      -16,
	VoiceFX:        -15,
	VoiceFXAlt:     -15,
	VoiceGong:      -18,
}

// Kits contains all available drum kit mappings
var Kits = map[string]Kit{
	"gm": {
		Name: "General MIDI",
		Notes: [NumVoices]uint8{
			VoiceKick:      36,
			VoiceSnare:     38,
			VoiceClap:      39,
			VoiceClosedHat: 42,
			VoiceOpenHat:   46,
			VoicePerc:      64, // low conga
			VoiceRide:      51,
			VoiceFX:        55, // splash
			VoiceFXAlt:     57, // crash 2
			VoiceGong:      52, // chinese cymbal
		},
		Levels: houseLevels,
	},
	"rd8": {
		Name: "Behringer RD-8",
		Notes: [NumVoices]uint8{
			VoiceKick:      36,
			VoiceSnare:     40, // RD-8 uses 40, not 38
			VoiceClap:      39,
			VoiceClosedHat: 42,
			VoiceOpenHat:   46,
			VoicePerc:      64,
			VoiceRide:      51,
			VoiceFX:        56, // cowbell
			VoiceFXAlt:     75, // clave
			VoiceGong:      49, // cymbal
		},
		Levels: houseLevels,
	},
	"tr8s": {
		Name: "Roland TR-8S",
		Notes: [NumVoices]uint8{
			VoiceKick:      36,
			VoiceSnare:     38,
			VoiceClap:      39,
			VoiceClosedHat: 42,
			VoiceOpenHat:   46,
			VoicePerc:      47, // mid tom
			VoiceRide:      51,
			VoiceFX:        56,
			VoiceFXAlt:     37, // rimshot
			VoiceGong:      49,
		},
		Levels: houseLevels,
	},
}

// DefaultKit is the kit used when none is configured
const DefaultKit = "gm"

// GetKit returns a kit by name, or the default kit if not found
func GetKit(name string) Kit {
	if kit, ok := Kits[name]; ok {
		return kit
	}
	return Kits[DefaultKit]
}

// KitNames returns the available kit names in a stable order.
func KitNames() []string {
	return []string{"gm", "rd8", "tr8s"}
}

// WithLevels returns a copy of k with the given voice levels (dB) replaced.
func (k Kit) WithLevels(db map[string]float64) Kit {
	for name, level := range db {
		if v, ok := VoiceByName(name); ok {
			k.Levels[v] = level
		}
	}
	return k
}

// Gain is the linear factor for voice v.
func (k Kit) Gain(v Voice) float64 {
	if v >= NumVoices {
		return 1
	}
	return math.Pow(10, k.Levels[v]/20)
}
