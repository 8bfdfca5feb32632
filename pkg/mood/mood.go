// Package mood maps mood journal entries to music generation parameters.
package mood

import (
	"math/rand"
	"strings"
	"time"
)

// Entry is a mood journal entry as submitted by the user. The caller owns it;
// the mapper only reads it. Rating is pre-clamped to [1,10] before it reaches
// this package.
type Entry struct {
	ID         string
	Rating     int
	Tags       []string
	Reflection string
}

// Parameters describe a piece of generated music. They are produced fresh per
// request and never shared.
type Parameters struct {
	Tempo       float64 // beats per minute, [40,200]
	Key         string  // root note, e.g. "D"
	Scale       string  // minor, major, dorian, mixolydian, lydian, phrygian, diminished
	Density     float64 // note occurrence fraction, [0,1]
	Dynamics    float64 // loudness fraction, [0,1]
	Instruments []string
	Reverb      float64 // [0,1]
	Harmony     string
	Complexity  float64 // [0,1]
	Mood        string  // descriptive label from the base table
}

// Mapper turns entries into parameters. It is stateless except for the random
// source used by the scale-preference decision.
type Mapper struct {
	rng *rand.Rand
}

type Option func(*Mapper)

// WithRand sets the random source used for the probabilistic scale-preference
// step, so tests can force both branches.
func WithRand(r *rand.Rand) Option {
	return func(m *Mapper) {
		m.rng = r
	}
}

func New(opts ...Option) *Mapper {
	m := &Mapper{}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return m
}

// scalePreferenceChance is the probability that a scale detected from the
// reflection text replaces the one chosen by the rating and tags. Keeping the
// tag-derived scale 30% of the time is intentional.
const scalePreferenceChance = 0.7

// Map derives music parameters from an entry. Unknown tags and unknown
// reflection tokens are ignored.
func (m *Mapper) Map(e *Entry) Parameters {
	p := baseParameters(e.Rating)

	// Emotion tags apply cumulatively in input order. Later tags can
	// override the scale and harmony set by earlier ones.
	for _, tag := range e.Tags {
		mod, ok := emotionModifiers[strings.ToLower(tag)]
		if !ok {
			continue
		}
		p.Tempo += mod.Tempo
		if mod.Scale != "" {
			p.Scale = mod.Scale
		}
		p.Instruments = mergeInstruments(p.Instruments, mod.Instruments)
		p.Reverb = clamp(p.Reverb+mod.Reverb, 0, 1)
		if mod.Dynamics != nil {
			p.Dynamics = *mod.Dynamics
		}
		if mod.Density != nil {
			p.Density = *mod.Density
		}
		if mod.Complexity != nil {
			p.Complexity = *mod.Complexity
		}
		if mod.Harmony != "" {
			p.Harmony = mod.Harmony
		}
	}

	tempoDelta, scalePref, intensity := analyzeReflection(e.Reflection)
	p.Tempo += tempoDelta
	if scalePref != "" && m.rng.Float64() < scalePreferenceChance {
		p.Scale = scalePref
	}
	if intensity != 0 {
		p.Dynamics = clamp(p.Dynamics+intensity, 0.1, 1)
		p.Density = clamp(p.Density+intensity, 0.1, 1)
	}

	p.Tempo = clamp(p.Tempo, 40, 200)
	p.Density = clamp(p.Density, 0, 1)
	p.Dynamics = clamp(p.Dynamics, 0, 1)
	p.Reverb = clamp(p.Reverb, 0, 1)
	p.Complexity = clamp(p.Complexity, 0, 1)
	return p
}

// analyzeReflection scans the free text for sentiment keywords. It returns the
// accumulated tempo delta, the first scale preference seen and the intensity
// delta. Intensity modifiers only count when adjacent to a token that carries
// a sentiment effect.
func analyzeReflection(text string) (tempoDelta float64, scalePref string, intensity float64) {
	if text == "" {
		return 0, "", 0
	}
	fields := strings.Fields(text)
	tokens := make([]string, len(fields))
	for i, f := range fields {
		tokens[i] = strings.ToLower(strings.Trim(f, tokenPunctuation))
	}
	for i, tok := range tokens {
		if kw, ok := sentimentKeywords[tok]; ok {
			tempoDelta += kw.Tempo
			if scalePref == "" && kw.Scale != "" {
				scalePref = kw.Scale
			}
			continue
		}
		boost, ok := intensityModifiers[tok]
		if !ok {
			continue
		}
		prev := i > 0 && isSentiment(tokens[i-1])
		next := i+1 < len(tokens) && isSentiment(tokens[i+1])
		if prev || next {
			intensity += boost
		}
	}
	return tempoDelta, scalePref, intensity
}

const tokenPunctuation = ".,!?;:'\"()[]-"

func isSentiment(token string) bool {
	_, ok := sentimentKeywords[token]
	return ok
}

// mergeInstruments unions extra instruments into base, deduplicated,
// preserving first-seen order.
func mergeInstruments(base, extra []string) []string {
	out := base
	for _, candidate := range extra {
		var found bool
		for _, v := range out {
			if v == candidate {
				found = true
				break
			}
		}
		if !found {
			out = append(out, candidate)
		}
	}
	return out
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
