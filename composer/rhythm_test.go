package composer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternZeroIntensity(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		p := GeneratePattern(0, NewRand(seed))

		assert.Equal(t, [Steps]int{1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0}, p[Kick])
		assert.Equal(t, [Steps]int{4: 1, 12: 1}, p[Snare])
		assert.Equal(t, [Steps]int{2: 2, 6: 2, 10: 2, 14: 2}, p[Hats])
		assert.Equal(t, [Steps]int{}, p[Ride])
		for i, v := range p[Percussion] {
			if v != Off {
				assert.Zero(t, p[Kick][i])
				assert.Zero(t, p[Snare][i])
			}
		}
	}
}

func TestPatternFullIntensity(t *testing.T) {
	p := GeneratePattern(1, &fixedRand{v: 0})

	assert.Equal(t, Primary, p[Snare][2], "ghost snare")
	for i := 0; i < Steps; i++ {
		assert.NotEqual(t, Off, p[Hats][i])
		if i%4 == 0 {
			assert.Equal(t, Primary, p[Ride][i])
		}
		if p[Kick][i] == Off && p[Snare][i] == Off {
			assert.Equal(t, Primary, p[Percussion][i])
		}
	}
	assert.Equal(t, Secondary, p[Hats][6])
}

func TestPatternTracksAlwaysSixteenSteps(t *testing.T) {
	for _, intensity := range []float64{0, 0.25, 0.5, 1} {
		p := GeneratePattern(intensity, NewRand(7))
		for tr := Track(0); tr < NumTracks; tr++ {
			assert.Len(t, p[tr], Steps)
		}
	}
}

func TestFillShapes(t *testing.T) {
	tests := []struct {
		name  string
		shape int
		track Track
		steps []int
	}{
		{"syncopated snare", 0, Snare, []int{12, 14}},
		{"syncopated hats", 0, Hats, []int{12, 13, 14, 15}},
		{"perc build", 1, Percussion, []int{10, 12, 14}},
		{"perc build snare", 1, Snare, []int{15}},
		{"kick build", 2, Kick, []int{8, 10, 12}},
		{"kick build snare", 2, Snare, []int{14}},
		{"tom fill", 3, Percussion, []int{8, 10}},
		{"tom fill snare", 3, Snare, []int{12, 13}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FillShape(tt.shape)
			var got []int
			for i, v := range p[tt.track] {
				if v != Off {
					got = append(got, i)
				}
			}
			assert.Equal(t, tt.steps, got)
		})
	}
}

func TestGenerateFillUniformChoice(t *testing.T) {
	seen := map[string]bool{}
	rng := NewRand(3)
	for i := 0; i < 200; i++ {
		f := GenerateFill(rng)
		require.False(t, f.Empty())
		seen[f.String()] = true
	}
	assert.Len(t, seen, NumFills)
}

func TestPatternEmpty(t *testing.T) {
	var p *Pattern
	assert.True(t, p.Empty())
	assert.True(t, (&Pattern{}).Empty())
	assert.False(t, FillShape(2).Empty())
}

func TestBasslineAndTriad(t *testing.T) {
	r := testRaga()
	bass := Bassline(r)
	require.Len(t, bass, 16)
	assert.Equal(t, []int{69, 69, 76, 69}, bass[:4])
	assert.Equal(t, bass[:4], bass[12:])

	assert.Equal(t, []int{62, 66, 69}, Triad(62))

	assert.Equal(t, 65, ChordRoot(Sequence{Rest, 65, 67}, r))
	assert.Equal(t, 69, ChordRoot(Sequence{Rest}, r))

	r.Vadi = 105
	assert.Equal(t, 81, ChordRoot(Sequence{Rest}, r), "vadi folded into range")
}
