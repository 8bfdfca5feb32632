// Package player controls playback of generated music artifacts.
package player

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/igolaizola/moodtune/pkg/filestore"
	"github.com/igolaizola/moodtune/pkg/mood"
	"github.com/igolaizola/moodtune/pkg/storage"
	"github.com/igolaizola/moodtune/pkg/synth"
)

// State is the playback controller state.
type State int

const (
	Idle State = iota
	Loading
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Store reads and repairs generated music records.
type Store interface {
	GetMusic(ctx context.Context, userID, id string) (*storage.GeneratedMusic, error)
	SetMusic(ctx context.Context, m *storage.GeneratedMusic) error
}

// FileStore reads and repairs raw audio artifacts.
type FileStore interface {
	GetAudio(ctx context.Context, path, name string) error
	SetAudio(ctx context.Context, path, name string) error
}

type Config struct {
	Debug   bool
	Store   Store
	Files   FileStore
	Synth   *synth.Synthesizer
	NewSink SinkFactory
	Length  time.Duration
}

// Controller plays at most one artifact at a time. All operations
// report success as a boolean and never fail with an error.
type Controller struct {
	debug   bool
	store   Store
	files   FileStore
	synth   *synth.Synthesizer
	newSink SinkFactory
	length  time.Duration

	mu      sync.Mutex
	state   State
	sink    Sink
	session int
	repeat  bool
	volume  float64
}

// New returns a new playback controller.
func New(cfg *Config) *Controller {
	synthesizer := cfg.Synth
	if synthesizer == nil {
		synthesizer = synth.New()
	}
	newSink := cfg.NewSink
	if newSink == nil {
		newSink = NewOtoSink
	}
	length := cfg.Length
	if length == 0 {
		length = 30 * time.Second
	}
	return &Controller{
		debug:   cfg.Debug,
		store:   cfg.Store,
		files:   cfg.Files,
		synth:   synthesizer,
		newSink: newSink,
		length:  length,
		volume:  1.0,
	}
}

func (c *Controller) log(format string, args ...interface{}) {
	if c.debug {
		format = strings.TrimSuffix(format, "\n") + "\n"
		log.Printf(format, args...)
	}
}

// Play stops any previous session, loads the artifact and starts
// playback. A missing or corrupt artifact triggers one on-demand
// regeneration via the procedural synthesizer before giving up.
func (c *Controller) Play(ctx context.Context, userID, musicID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardown()
	c.state = Loading

	m, err := c.store.GetMusic(ctx, userID, musicID)
	if err != nil {
		c.log("player: couldn't load record %s: %v", musicID, err)
		c.state = Idle
		return false
	}

	b, regenerated, err := c.loadAudio(ctx, m)
	if err != nil {
		c.log("player: couldn't load audio %s: %v", musicID, err)
		c.state = Idle
		return false
	}

	pcm, rate, channels, err := decode(b)
	if err != nil && !regenerated {
		// The stored artifact is corrupt, regenerate once.
		c.log("player: corrupt artifact %s: %v", musicID, err)
		b, err = c.regenerate(ctx, m)
		if err == nil {
			pcm, rate, channels, err = decode(b)
		}
	}
	if err != nil {
		c.log("player: couldn't decode audio %s: %v", musicID, err)
		c.state = Idle
		return false
	}

	sink, err := c.newSink(pcm, rate, channels)
	if err != nil {
		c.log("player: couldn't create sink: %v", err)
		c.state = Idle
		return false
	}
	sink.SetVolume(c.volume)
	sink.Play()
	c.sink = sink
	c.state = Playing
	go c.monitor(c.session)
	return true
}

// Pause is a no-op unless a session is playing.
func (c *Controller) Pause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Playing || c.sink == nil {
		return false
	}
	c.sink.Pause()
	c.state = Paused
	return true
}

// Resume is a no-op unless a session is paused.
func (c *Controller) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Paused || c.sink == nil {
		return false
	}
	c.sink.Play()
	c.state = Playing
	return true
}

// Stop unloads the active session. It is safe to call in any state
// and always succeeds.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardown()
	return true
}

// Seek moves the active session to the given offset.
func (c *Controller) Seek(d time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sink == nil {
		return false
	}
	return c.sink.Seek(d)
}

// SetVolume adjusts the volume of the active session.
func (c *Controller) SetVolume(v float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v < 0 || v > 1 {
		return false
	}
	c.volume = v
	if c.sink == nil {
		return false
	}
	c.sink.SetVolume(v)
	return true
}

// SetRepeat toggles replay on natural end-of-track for the active
// session.
func (c *Controller) SetRepeat(repeat bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sink == nil {
		return false
	}
	c.repeat = repeat
	return true
}

// State reports the controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Position reports the playback offset of the active session.
func (c *Controller) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sink == nil {
		return 0
	}
	return c.sink.Position()
}

// teardown unloads the active session. Callers must hold the lock.
func (c *Controller) teardown() {
	c.session++
	if c.sink != nil {
		_ = c.sink.Close()
		c.sink = nil
	}
	c.repeat = false
	c.state = Idle
}

// monitor watches for natural end-of-track.
func (c *Controller) monitor(session int) {
	t := time.NewTicker(200 * time.Millisecond)
	defer t.Stop()
	for range t.C {
		c.mu.Lock()
		if c.session != session || c.sink == nil {
			c.mu.Unlock()
			return
		}
		if c.state != Playing {
			c.mu.Unlock()
			continue
		}
		if c.sink.Position() >= c.sink.Duration() && !c.sink.Playing() {
			if c.repeat {
				c.sink.Seek(0)
				c.sink.Play()
			} else {
				c.teardown()
				c.mu.Unlock()
				return
			}
		}
		c.mu.Unlock()
	}
}

// loadAudio fetches the artifact bytes, regenerating them when the
// record has no locator or the download fails.
func (c *Controller) loadAudio(ctx context.Context, m *storage.GeneratedMusic) ([]byte, bool, error) {
	if m.AudioURL == "" {
		b, err := c.regenerate(ctx, m)
		return b, true, err
	}
	path := filepath.Join(os.TempDir(), m.AudioURL)
	if err := c.files.GetAudio(ctx, path, m.AudioURL); err != nil {
		c.log("player: missing artifact %s: %v", m.AudioURL, err)
		b, err := c.regenerate(ctx, m)
		return b, true, err
	}
	defer func() { _ = os.Remove(path) }()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("player: couldn't read artifact: %w", err)
	}
	return b, false, nil
}

// regenerate synthesizes replacement audio from the parameters stored
// on the record and re-points the record at the new artifact.
func (c *Controller) regenerate(ctx context.Context, m *storage.GeneratedMusic) ([]byte, error) {
	params := reconstructParams(m)
	b := c.synth.Synthesize(params, c.length)

	name := filestore.WAV(m.ID)
	f, err := os.CreateTemp("", "moodtune-*.wav")
	if err != nil {
		return nil, fmt.Errorf("player: couldn't create temp file: %w", err)
	}
	defer func() { _ = os.Remove(f.Name()) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("player: couldn't write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("player: couldn't close temp file: %w", err)
	}

	// Repair is best effort, playback continues even if persisting
	// the replacement artifact fails.
	if err := c.files.SetAudio(ctx, f.Name(), name); err != nil {
		c.log("player: couldn't persist regenerated audio: %v", err)
		return b, nil
	}
	m.AudioURL = name
	m.Duration = float32(c.length.Seconds())
	if err := c.store.SetMusic(ctx, m); err != nil {
		c.log("player: couldn't re-point record %s: %v", m.ID, err)
	}
	return b, nil
}

// reconstructParams rebuilds a best-effort parameter set from the
// reduced projection stored on the record.
func reconstructParams(m *storage.GeneratedMusic) mood.Parameters {
	p := mood.Parameters{
		Tempo:      float64(m.Tempo),
		Key:        "C",
		Scale:      "major",
		Density:    0.5,
		Dynamics:   0.6,
		Reverb:     0.3,
		Harmony:    "simple",
		Complexity: 0.5,
		Mood:       m.Mood,
	}
	if p.Tempo == 0 {
		p.Tempo = 84
	}
	if p.Mood == "" {
		p.Mood = "reflective"
	}
	if parts := strings.Fields(m.Key); len(parts) == 2 {
		p.Key = parts[0]
		p.Scale = parts[1]
	}
	if m.Instruments != "" {
		p.Instruments = strings.Split(m.Instruments, ",")
	}
	return p
}

// decode converts WAV or MP3 artifact bytes to interleaved stereo
// 16-bit PCM.
func decode(b []byte) ([]byte, int, int, error) {
	if isWAV(b) {
		h, pcm, err := synth.DecodePCM(b)
		if err != nil {
			return nil, 0, 0, err
		}
		if h.Channels == 1 {
			return monoToStereo(pcm), h.SampleRate, 2, nil
		}
		return pcm, h.SampleRate, h.Channels, nil
	}
	decoder, err := mp3.NewDecoder(bytes.NewReader(b))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("player: couldn't decode mp3: %w", err)
	}
	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("player: couldn't read mp3: %w", err)
	}
	if len(pcm) == 0 {
		return nil, 0, 0, fmt.Errorf("player: empty mp3 payload")
	}
	return pcm, decoder.SampleRate(), 2, nil
}

// monoToStereo duplicates each 16-bit sample into both channels.
func monoToStereo(pcm []byte) []byte {
	out := make([]byte, 0, len(pcm)*2)
	for i := 0; i+1 < len(pcm); i += 2 {
		out = append(out, pcm[i], pcm[i+1], pcm[i], pcm[i+1])
	}
	return out
}

func isWAV(b []byte) bool {
	return len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WAVE"
}
