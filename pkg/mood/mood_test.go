package mood

import (
	"math/rand"
	"testing"
)

// fixedSource always returns the same value so tests can force the
// scale-preference branch either way.
type fixedSource struct {
	v int64
}

func (s *fixedSource) Int63() int64 { return s.v }
func (s *fixedSource) Seed(int64)   {}

// applyRand yields Float64() == 0, below the preference threshold.
func applyRand() *rand.Rand { return rand.New(&fixedSource{v: 0}) }

// skipRand yields Float64() close to 1, above the preference threshold.
func skipRand() *rand.Rand { return rand.New(&fixedSource{v: 1<<63 - 1024}) }

func TestMapBaseline(t *testing.T) {
	m := New(WithRand(applyRand()))
	for rating := 1; rating <= 10; rating++ {
		p := m.Map(&Entry{ID: "e", Rating: rating})
		want := baseTable[rating]
		if p.Tempo != want.Tempo {
			t.Errorf("rating %d: tempo = %v; want %v", rating, p.Tempo, want.Tempo)
		}
		if p.Key != want.Key || p.Scale != want.Scale {
			t.Errorf("rating %d: key/scale = %s %s; want %s %s", rating, p.Key, p.Scale, want.Key, want.Scale)
		}
		if p.Density != want.Density || p.Dynamics != want.Dynamics || p.Reverb != want.Reverb {
			t.Errorf("rating %d: fractions = %v/%v/%v; want %v/%v/%v",
				rating, p.Density, p.Dynamics, p.Reverb, want.Density, want.Dynamics, want.Reverb)
		}
		if len(p.Instruments) != len(want.Instruments) {
			t.Errorf("rating %d: instruments = %v; want %v", rating, p.Instruments, want.Instruments)
		}
	}
}

func TestMapTagModifiers(t *testing.T) {
	m := New(WithRand(skipRand()))

	t.Run("cumulative", func(t *testing.T) {
		p := m.Map(&Entry{Rating: 5, Tags: []string{"happy", "excited"}})
		if want := 84.0 + 10 + 15; p.Tempo != want {
			t.Errorf("tempo = %v; want %v", p.Tempo, want)
		}
		if p.Scale != "major" {
			t.Errorf("scale = %s; want major", p.Scale)
		}
		if p.Dynamics != 0.9 {
			t.Errorf("dynamics = %v; want 0.9", p.Dynamics)
		}
	})

	t.Run("later tag overrides scale", func(t *testing.T) {
		p := m.Map(&Entry{Rating: 5, Tags: []string{"happy", "sad"}})
		if p.Scale != "minor" {
			t.Errorf("scale = %s; want minor", p.Scale)
		}
	})

	t.Run("instruments union", func(t *testing.T) {
		p := m.Map(&Entry{Rating: 7, Tags: []string{"happy"}})
		// Rating 7 already includes bells; the union must not duplicate.
		var bells int
		for _, v := range p.Instruments {
			if v == "bells" {
				bells++
			}
		}
		if bells != 1 {
			t.Errorf("bells count = %d; want 1 in %v", bells, p.Instruments)
		}
	})

	t.Run("unknown tags ignored", func(t *testing.T) {
		p := m.Map(&Entry{Rating: 5, Tags: []string{"bewildered", "xyzzy"}})
		if p.Tempo != baseTable[5].Tempo {
			t.Errorf("tempo = %v; want %v", p.Tempo, baseTable[5].Tempo)
		}
	})

	t.Run("tags are case insensitive", func(t *testing.T) {
		p := m.Map(&Entry{Rating: 5, Tags: []string{"HAPPY"}})
		if want := 84.0 + 10; p.Tempo != want {
			t.Errorf("tempo = %v; want %v", p.Tempo, want)
		}
	})
}

func TestMapClamping(t *testing.T) {
	m := New(WithRand(applyRand()))
	tests := []struct {
		name  string
		entry Entry
	}{
		{"tag overload high", Entry{Rating: 10, Tags: []string{"happy", "excited", "hopeful", "angry", "grateful"},
			Reflection: "so very extremely happy joy great amazing wonderful energy alive fun"}},
		{"tag overload low", Entry{Rating: 1, Tags: []string{"sad", "tired", "lonely", "peaceful", "calm"},
			Reflection: "so very sad tired exhausted lonely terrible awful dark slow quiet"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := m.Map(&tt.entry)
			if p.Tempo < 40 || p.Tempo > 200 {
				t.Errorf("tempo = %v; want within [40,200]", p.Tempo)
			}
			for name, v := range map[string]float64{"reverb": p.Reverb, "complexity": p.Complexity} {
				if v < 0 || v > 1 {
					t.Errorf("%s = %v; want within [0,1]", name, v)
				}
			}
			for name, v := range map[string]float64{"dynamics": p.Dynamics, "density": p.Density} {
				if v < 0.1 || v > 1 {
					t.Errorf("%s = %v; want within [0.1,1]", name, v)
				}
			}
		})
	}
}

func TestMapScalePreference(t *testing.T) {
	entry := &Entry{Rating: 9, Reflection: "felt happy today"}

	t.Run("applied", func(t *testing.T) {
		p := New(WithRand(applyRand())).Map(entry)
		if p.Scale != "major" {
			t.Errorf("scale = %s; want major", p.Scale)
		}
	})

	t.Run("skipped", func(t *testing.T) {
		p := New(WithRand(skipRand())).Map(entry)
		if p.Scale != "lydian" {
			t.Errorf("scale = %s; want lydian", p.Scale)
		}
	})
}

func TestMapIntensityAdjacency(t *testing.T) {
	m := New(WithRand(skipRand()))

	// "very" sits next to "happy", so intensity applies.
	p := m.Map(&Entry{Rating: 5, Reflection: "very happy"})
	if want := clamp(0.45+0.2, 0.1, 1); p.Dynamics != want {
		t.Errorf("dynamics = %v; want %v", p.Dynamics, want)
	}

	// "very" is isolated from any sentiment keyword, so no intensity.
	p = m.Map(&Entry{Rating: 5, Reflection: "very strange dream but happy ending"})
	if p.Dynamics != 0.45 {
		t.Errorf("dynamics = %v; want 0.45", p.Dynamics)
	}
}

// The worked end-to-end example: rating 9, tag excited, reflection
// "felt very happy today".
func TestMapWorkedExample(t *testing.T) {
	m := New(WithRand(skipRand()))
	p := m.Map(&Entry{
		Rating:     9,
		Tags:       []string{"excited"},
		Reflection: "felt very happy today",
	})
	if want := 150.0 + 15 + 10; p.Tempo != want {
		t.Errorf("tempo = %v; want %v", p.Tempo, want)
	}
	if p.Tempo > 200 {
		t.Errorf("tempo = %v; want <= 200", p.Tempo)
	}
	// excited overrides dynamics to 0.9, then "very" adds 0.2, clamped to 1.
	if p.Dynamics != 1.0 {
		t.Errorf("dynamics = %v; want 1.0", p.Dynamics)
	}
	// density 0.8 base + 0.2 intensity.
	if p.Density != 1.0 {
		t.Errorf("density = %v; want 1.0", p.Density)
	}
	if p.Mood != "joyful" {
		t.Errorf("mood = %s; want joyful", p.Mood)
	}
}

func TestMapTokenPunctuation(t *testing.T) {
	m := New(WithRand(skipRand()))
	p := m.Map(&Entry{Rating: 5, Reflection: "Happy! (really happy)"})
	if want := 84.0 + 10 + 10; p.Tempo != want {
		t.Errorf("tempo = %v; want %v", p.Tempo, want)
	}
}
