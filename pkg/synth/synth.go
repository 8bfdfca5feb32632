// Package synth is the offline fallback audio generator. It renders a mood
// parameter set to mono 16-bit PCM wrapped in a WAV container, with no
// network or filesystem access.
package synth

import (
	"math"
	"math/rand"
	"time"

	"github.com/igolaizola/moodtune/pkg/mood"
)

const (
	// SampleRate is the output sample rate in Hz.
	SampleRate = 44100

	// Note gate: fraction of each beat the melody note sounds.
	noteGate = 0.8

	// Fixed oscillator weights for timbral richness.
	harmonic2Weight = 0.15
	harmonic3Weight = 0.08
	bassWeight      = 0.2

	// Track envelope.
	attackSeconds  = 0.1
	releaseSeconds = 0.3

	// Headroom before int16 quantization, to avoid clipping artifacts.
	clampLimit = 0.95
)

// Synthesizer renders parameters to audio. Melody pitch and timing are fully
// deterministic; note velocity draws from the random source, which is
// injectable so replays can be reproduced bit for bit.
type Synthesizer struct {
	rng *rand.Rand
}

type Option func(*Synthesizer)

// WithRand sets the random source used for note velocities.
func WithRand(r *rand.Rand) Option {
	return func(s *Synthesizer) {
		s.rng = r
	}
}

func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// Synthesize renders the parameters to a WAV file of the given duration.
func (s *Synthesizer) Synthesize(p mood.Parameters, d time.Duration) []byte {
	return Encode(s.PCM(p, d), SampleRate)
}

// PCM renders the parameters to normalized mono samples in [-1,1].
func (s *Synthesizer) PCM(p mood.Parameters, d time.Duration) []float64 {
	seconds := d.Seconds()
	total := int(seconds * SampleRate)
	if total <= 0 {
		return nil
	}

	tempo := p.Tempo
	if tempo < 40 {
		tempo = 40
	} else if tempo > 200 {
		tempo = 200
	}

	base := keyFrequency(p.Key)
	beat := 60.0 / tempo
	gate := beat * noteGate
	beats := int(math.Ceil(seconds / beat))

	// One note per beat: a scale-degree offset from the cyclic pattern for
	// the mood bucket, and a velocity in [0.5,0.8).
	pattern := melodyPattern(p.Mood)
	freqs := make([]float64, beats)
	velocities := make([]float64, beats)
	for i := 0; i < beats; i++ {
		semitone := pattern[i%len(pattern)]
		freqs[i] = base * math.Pow(2, float64(semitone)/12)
		velocities[i] = 0.5 + s.rng.Float64()*0.3
	}

	samples := make([]float64, total)
	for i := range samples {
		t := float64(i) / SampleRate
		bi := int(t / beat)
		if bi >= beats {
			bi = beats - 1
		}

		var v float64
		if t-float64(bi)*beat < gate {
			v = math.Sin(2*math.Pi*freqs[bi]*t) * velocities[bi] * p.Dynamics
		}
		v += harmonic2Weight * math.Sin(2*math.Pi*2*base*t)
		v += harmonic3Weight * math.Sin(2*math.Pi*3*base*t)
		v += bassWeight * math.Sin(2*math.Pi*base/2*t)

		v *= envelope(t, seconds)
		if v > clampLimit {
			v = clampLimit
		} else if v < -clampLimit {
			v = -clampLimit
		}
		samples[i] = v
	}
	return samples
}

// envelope is a linear attack/release ramp over the whole track: fade in over
// the first 0.1s, fade out over the last 0.3s, full amplitude between.
func envelope(t, total float64) float64 {
	if t < attackSeconds {
		return t / attackSeconds
	}
	if remaining := total - t; remaining < releaseSeconds {
		return remaining / releaseSeconds
	}
	return 1
}

// melodyPattern selects the 4-step cyclic scale-degree pattern for a mood
// label bucket.
func melodyPattern(label string) [4]int {
	switch label {
	case "joyful", "uplifting", "happy":
		return [4]int{0, 4, 7, 12}
	case "melancholic", "sad":
		return [4]int{0, 3, 7, 10}
	default:
		return [4]int{0, 2, 7, 9}
	}
}

// keyFrequency returns the fourth-octave frequency of the root note.
func keyFrequency(key string) float64 {
	if freq, ok := noteFrequencies[key]; ok {
		return freq
	}
	return noteFrequencies["C"]
}

var noteFrequencies = map[string]float64{
	"C":  261.63,
	"C#": 277.18,
	"D":  293.66,
	"D#": 311.13,
	"E":  329.63,
	"F":  349.23,
	"F#": 369.99,
	"G":  392.00,
	"G#": 415.30,
	"A":  440.00,
	"A#": 466.16,
	"B":  493.88,
}
