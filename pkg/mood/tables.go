package mood

// baseTable holds the hand-tuned baseline for each mood rating. Low ratings
// are slow, minor and sparse; high ratings are fast, major-leaning and dense.
// Rows are read-only; baseParameters returns copies.
var baseTable = map[int]Parameters{
	1:  {Tempo: 48, Key: "A", Scale: "minor", Density: 0.2, Dynamics: 0.2, Instruments: []string{"piano", "strings"}, Reverb: 0.7, Harmony: "sparse", Complexity: 0.2, Mood: "melancholic"},
	2:  {Tempo: 54, Key: "D", Scale: "minor", Density: 0.25, Dynamics: 0.25, Instruments: []string{"piano", "cello"}, Reverb: 0.65, Harmony: "sparse", Complexity: 0.25, Mood: "melancholic"},
	3:  {Tempo: 62, Key: "E", Scale: "minor", Density: 0.3, Dynamics: 0.3, Instruments: []string{"piano", "strings"}, Reverb: 0.6, Harmony: "simple", Complexity: 0.3, Mood: "sad"},
	4:  {Tempo: 72, Key: "G", Scale: "dorian", Density: 0.35, Dynamics: 0.4, Instruments: []string{"piano", "pad"}, Reverb: 0.55, Harmony: "simple", Complexity: 0.35, Mood: "wistful"},
	5:  {Tempo: 84, Key: "C", Scale: "dorian", Density: 0.4, Dynamics: 0.45, Instruments: []string{"piano", "guitar"}, Reverb: 0.5, Harmony: "moderate", Complexity: 0.4, Mood: "reflective"},
	6:  {Tempo: 96, Key: "F", Scale: "mixolydian", Density: 0.5, Dynamics: 0.5, Instruments: []string{"guitar", "piano"}, Reverb: 0.45, Harmony: "moderate", Complexity: 0.5, Mood: "content"},
	7:  {Tempo: 112, Key: "C", Scale: "major", Density: 0.6, Dynamics: 0.6, Instruments: []string{"guitar", "piano", "bells"}, Reverb: 0.4, Harmony: "rich", Complexity: 0.55, Mood: "happy"},
	8:  {Tempo: 128, Key: "G", Scale: "major", Density: 0.7, Dynamics: 0.7, Instruments: []string{"piano", "synth", "bells"}, Reverb: 0.35, Harmony: "rich", Complexity: 0.65, Mood: "uplifting"},
	9:  {Tempo: 150, Key: "D", Scale: "lydian", Density: 0.8, Dynamics: 0.8, Instruments: []string{"synth", "bells", "guitar"}, Reverb: 0.3, Harmony: "bright", Complexity: 0.75, Mood: "joyful"},
	10: {Tempo: 170, Key: "E", Scale: "lydian", Density: 0.9, Dynamics: 0.85, Instruments: []string{"synth", "bells", "brass"}, Reverb: 0.25, Harmony: "bright", Complexity: 0.85, Mood: "joyful"},
}

// baseParameters returns a copy of the table row for the given rating. The
// rating is pre-clamped by the caller, but an out-of-range value falls back to
// the neutral row instead of panicking.
func baseParameters(rating int) Parameters {
	p, ok := baseTable[rating]
	if !ok {
		p = baseTable[5]
	}
	p.Instruments = append([]string(nil), p.Instruments...)
	return p
}

// Modifier adjusts parameters for a single emotion tag. Tempo and Reverb are
// additive deltas, Scale and Harmony override when non-empty, Instruments are
// union-merged, and the pointer fields override when set.
type Modifier struct {
	Tempo       float64
	Scale       string
	Instruments []string
	Reverb      float64
	Dynamics    *float64
	Density     *float64
	Complexity  *float64
	Harmony     string
}

func f(v float64) *float64 {
	return &v
}

// emotionModifiers is keyed by lowercase emotion tag.
var emotionModifiers = map[string]Modifier{
	"happy":    {Tempo: 10, Scale: "major", Instruments: []string{"bells"}, Reverb: -0.05},
	"excited":  {Tempo: 15, Instruments: []string{"synth"}, Reverb: -0.05, Dynamics: f(0.9)},
	"grateful": {Tempo: 5, Scale: "major", Instruments: []string{"strings"}, Reverb: 0.05, Harmony: "warm"},
	"hopeful":  {Tempo: 8, Scale: "lydian", Instruments: []string{"bells"}, Harmony: "open"},
	"calm":     {Tempo: -12, Instruments: []string{"pad"}, Reverb: 0.15, Dynamics: f(0.4)},
	"peaceful": {Tempo: -14, Instruments: []string{"flute", "pad"}, Reverb: 0.2, Dynamics: f(0.35)},
	"tired":    {Tempo: -18, Instruments: []string{"pad"}, Dynamics: f(0.35), Density: f(0.3)},
	"sad":      {Tempo: -15, Scale: "minor", Instruments: []string{"cello"}, Reverb: 0.2},
	"lonely":   {Tempo: -10, Scale: "minor", Reverb: 0.25, Density: f(0.3)},
	"anxious":  {Tempo: 8, Scale: "phrygian", Reverb: -0.1, Complexity: f(0.7), Harmony: "tense"},
	"stressed": {Tempo: 6, Scale: "diminished", Complexity: f(0.8), Harmony: "tense"},
	"angry":    {Tempo: 18, Scale: "phrygian", Instruments: []string{"brass"}, Dynamics: f(0.95), Harmony: "dissonant"},
}

// sentimentKeyword is the effect of one reflection token: a tempo delta and
// an optional scale preference.
type sentimentKeyword struct {
	Tempo float64
	Scale string
}

// sentimentKeywords is keyed by lowercase token after punctuation stripping.
var sentimentKeywords = map[string]sentimentKeyword{
	"happy":     {Tempo: 10, Scale: "major"},
	"joy":       {Tempo: 12, Scale: "major"},
	"joyful":    {Tempo: 12, Scale: "major"},
	"wonderful": {Tempo: 10, Scale: "major"},
	"amazing":   {Tempo: 10, Scale: "lydian"},
	"excited":   {Tempo: 12, Scale: "lydian"},
	"love":      {Tempo: 8, Scale: "major"},
	"great":     {Tempo: 8},
	"good":      {Tempo: 5},
	"fun":       {Tempo: 8},
	"energy":    {Tempo: 10},
	"alive":     {Tempo: 8},
	"bright":    {Tempo: 8, Scale: "major"},
	"sad":       {Tempo: -10, Scale: "minor"},
	"cry":       {Tempo: -10, Scale: "minor"},
	"bad":       {Tempo: -6, Scale: "minor"},
	"terrible":  {Tempo: -10, Scale: "minor"},
	"awful":     {Tempo: -10, Scale: "minor"},
	"dark":      {Tempo: -8, Scale: "minor"},
	"lonely":    {Tempo: -8, Scale: "minor"},
	"worried":   {Tempo: -5, Scale: "minor"},
	"anxious":   {Tempo: 5, Scale: "phrygian"},
	"angry":     {Tempo: 8, Scale: "phrygian"},
	"tired":     {Tempo: -8},
	"exhausted": {Tempo: -12},
	"calm":      {Tempo: -8},
	"peaceful":  {Tempo: -10},
	"relaxed":   {Tempo: -8},
	"quiet":     {Tempo: -6},
	"slow":      {Tempo: -6},
}

// intensityModifiers boost dynamics and density when adjacent to a sentiment
// keyword.
var intensityModifiers = map[string]float64{
	"very":       0.2,
	"really":     0.15,
	"so":         0.1,
	"quite":      0.1,
	"deeply":     0.2,
	"totally":    0.2,
	"extremely":  0.3,
	"incredibly": 0.25,
}
