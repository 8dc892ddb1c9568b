package raga

import (
	"fmt"

	"go-raga/errs"
)

// MIDI pitch bounds accepted in a raga definition.
const (
	MinPitch = 0
	MaxPitch = 127
)

// ColorScheme is carried for the visual side only; the engine never reads it.
type ColorScheme struct {
	Background string `json:"background"`
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent"`
	Text       string `json:"text"`
}

// DefaultColors is used when a raga comes without a scheme.
var DefaultColors = ColorScheme{
	Background: "#000000",
	Primary:    "#36454F",
	Secondary:  "#E6E6FA",
	Accent:     "#6A5ACD",
	Text:       "#F8F8FF",
}

// Raga is an immutable melodic framework. Pitches are absolute MIDI numbers.
// Once loaded it is shared by reference and never mutated.
type Raga struct {
	Name       string
	Ascending  []int   // aroha
	Descending []int   // avroha
	Motifs     [][]int // pakad phrases
	Vadi       int     // primary emphasis pitch
	Samvadi    int     // secondary emphasis pitch
	Mood       string
	TimeSlot   string
	Colors     ColorScheme
}

// Validate rejects ragas the engine cannot play. Callers must validate
// before playback so that nothing fails mid-tick.
func (r *Raga) Validate() error {
	if r == nil {
		return errs.Config("raga is nil", "No raga selected")
	}
	if len(r.Ascending) == 0 {
		return errs.Config(
			fmt.Sprintf("raga %q has an empty ascending set", r.Name),
			fmt.Sprintf("Raga %s has no aroha notes", r.Name),
		)
	}
	if len(r.Descending) == 0 {
		return errs.Config(
			fmt.Sprintf("raga %q has an empty descending set", r.Name),
			fmt.Sprintf("Raga %s has no avroha notes", r.Name),
		)
	}

	check := func(where string, p int) error {
		if p < MinPitch || p > MaxPitch {
			return errs.Config(
				fmt.Sprintf("raga %q: %s pitch %d out of range", r.Name, where, p),
				fmt.Sprintf("Raga %s has an invalid note", r.Name),
			)
		}
		return nil
	}
	for _, p := range r.Ascending {
		if err := check("ascending", p); err != nil {
			return err
		}
	}
	for _, p := range r.Descending {
		if err := check("descending", p); err != nil {
			return err
		}
	}
	for _, m := range r.Motifs {
		for _, p := range m {
			if err := check("motif", p); err != nil {
				return err
			}
		}
	}
	if err := check("vadi", r.Vadi); err != nil {
		return err
	}
	return check("samvadi", r.Samvadi)
}

// Emphasis returns the vadi, or the first ascending pitch if none was given.
func (r *Raga) Emphasis() int {
	if r.Vadi > 0 {
		return r.Vadi
	}
	return r.Ascending[0]
}

// SecondaryEmphasis returns the samvadi, falling back to Emphasis.
func (r *Raga) SecondaryEmphasis() int {
	if r.Samvadi > 0 {
		return r.Samvadi
	}
	return r.Emphasis()
}

// Scheme returns the raga's colours with defaults filled in.
func (r *Raga) Scheme() ColorScheme {
	c := r.Colors
	d := DefaultColors
	if c.Background == "" {
		c.Background = d.Background
	}
	if c.Primary == "" {
		c.Primary = d.Primary
	}
	if c.Secondary == "" {
		c.Secondary = d.Secondary
	}
	if c.Accent == "" {
		c.Accent = d.Accent
	}
	if c.Text == "" {
		c.Text = d.Text
	}
	return c
}
