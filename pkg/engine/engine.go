// Package engine orchestrates music generation for journal entries.
package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/igolaizola/moodtune/pkg/filestore"
	"github.com/igolaizola/moodtune/pkg/mood"
	"github.com/igolaizola/moodtune/pkg/provider"
	"github.com/igolaizola/moodtune/pkg/sound"
	"github.com/igolaizola/moodtune/pkg/storage"
	"github.com/igolaizola/moodtune/pkg/synth"
	"github.com/oklog/ulid/v2"
)

const defaultPrompt = "peaceful ambient soundscape"

// Store persists generated music records.
type Store interface {
	SetMusic(ctx context.Context, m *storage.GeneratedMusic) error
}

// FileStore persists raw audio artifacts.
type FileStore interface {
	SetAudio(ctx context.Context, path, name string) error
}

type Config struct {
	Debug      bool
	Providers  []provider.Provider
	Mapper     *mood.Mapper
	Synth      *synth.Synthesizer
	Store      Store
	Files      FileStore
	Length     time.Duration
	MaxRetries int
	RetryWait  time.Duration

	// Probe validates a provider payload and returns its duration.
	Probe func(b []byte) (time.Duration, error)
}

type Engine struct {
	debug      bool
	providers  []provider.Provider
	mapper     *mood.Mapper
	synth      *synth.Synthesizer
	store      Store
	files      FileStore
	length     time.Duration
	maxRetries int
	retryWait  time.Duration
	probe      func(b []byte) (time.Duration, error)
}

// New returns a new generation engine.
func New(cfg *Config) *Engine {
	mapper := cfg.Mapper
	if mapper == nil {
		mapper = mood.New()
	}
	synthesizer := cfg.Synth
	if synthesizer == nil {
		synthesizer = synth.New()
	}
	length := cfg.Length
	if length == 0 {
		length = 30 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	retryWait := cfg.RetryWait
	if retryWait == 0 {
		retryWait = 1 * time.Second
	}
	probe := cfg.Probe
	if probe == nil {
		probe = sound.MP3Duration
	}
	return &Engine{
		debug:      cfg.Debug,
		providers:  cfg.Providers,
		mapper:     mapper,
		synth:      synthesizer,
		store:      cfg.Store,
		files:      cfg.Files,
		length:     length,
		maxRetries: maxRetries,
		retryWait:  retryWait,
		probe:      probe,
	}
}

func (e *Engine) log(format string, args ...interface{}) {
	if e.debug {
		format = strings.TrimSuffix(format, "\n") + "\n"
		log.Printf(format, args...)
	}
}

// Generate produces music for the entry and persists the result.
// It never fails: provider errors fall back to the next provider and
// finally to procedural synthesis, and persistence errors yield a
// record with no audio attached.
func (e *Engine) Generate(ctx context.Context, userID string, entry *mood.Entry) *storage.GeneratedMusic {
	params := e.mapper.Map(entry)
	id := ulid.Make().String()

	m := &storage.GeneratedMusic{
		ID:          id,
		UserID:      userID,
		EntryID:     entry.ID,
		GeneratedAt: time.Now().UTC(),
		Tempo:       float32(params.Tempo),
		Key:         fmt.Sprintf("%s %s", params.Key, params.Scale),
		Instruments: strings.Join(params.Instruments, ","),
		Mood:        params.Mood,
	}

	prompt := buildPrompt(entry)
	var b []byte
	var name string
	for _, p := range e.providers {
		audio, duration, err := e.tryProvider(ctx, p, prompt)
		if err != nil {
			e.log("engine: provider %s failed: %v", p.Name(), err)
			continue
		}
		b = audio
		name = filestore.MP3(id)
		m.Provider = p.Name()
		m.Duration = float32(duration.Seconds())
		break
	}
	if b == nil {
		e.log("engine: falling back to procedural synthesis")
		b = e.synth.Synthesize(params, e.length)
		name = filestore.WAV(id)
		m.Provider = "procedural"
		m.Duration = float32(e.length.Seconds())
	}

	if err := e.persist(ctx, b, name); err != nil {
		e.log("engine: couldn't persist audio: %v", err)
		m.AudioURL = ""
		m.Duration = 0
	} else {
		m.AudioURL = name
	}

	if e.store != nil {
		if err := e.store.SetMusic(ctx, m); err != nil {
			e.log("engine: couldn't store record: %v", err)
			m.AudioURL = ""
			m.Duration = 0
		}
	}
	return m
}

// tryProvider requests audio from a single provider, retrying failed
// attempts with a linearly increasing wait.
func (e *Engine) tryProvider(ctx context.Context, p provider.Provider, prompt string) ([]byte, time.Duration, error) {
	var lastErr error
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if attempt > 0 {
			wait := e.retryWait * time.Duration(attempt+1)
			e.log("engine: retrying %s in %s", p.Name(), wait)
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, 0, ctx.Err()
			case <-t.C:
			}
		}
		b, err := p.Generate(ctx, prompt)
		if err != nil {
			lastErr = err
			continue
		}
		// A payload that cannot be decoded counts as a failed attempt.
		duration, err := e.probe(b)
		if err != nil {
			lastErr = fmt.Errorf("engine: invalid payload from %s: %w", p.Name(), err)
			continue
		}
		return b, duration, nil
	}
	return nil, 0, lastErr
}

func (e *Engine) persist(ctx context.Context, b []byte, name string) error {
	if e.files == nil {
		return fmt.Errorf("engine: no file store configured")
	}
	f, err := os.CreateTemp("", "moodtune-*"+filepath.Ext(name))
	if err != nil {
		return fmt.Errorf("engine: couldn't create temp file: %w", err)
	}
	defer func() { _ = os.Remove(f.Name()) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return fmt.Errorf("engine: couldn't write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("engine: couldn't close temp file: %w", err)
	}
	if err := e.files.SetAudio(ctx, f.Name(), name); err != nil {
		return fmt.Errorf("engine: couldn't upload audio: %w", err)
	}
	return nil
}

// buildPrompt returns the reflection text verbatim, or a fixed default
// phrase when the entry has no reflection. Mapped parameters are only
// used by the procedural fallback, never sent to providers.
func buildPrompt(entry *mood.Entry) string {
	text := strings.TrimSpace(entry.Reflection)
	if text == "" {
		return defaultPrompt
	}
	return text
}
