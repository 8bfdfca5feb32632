package generate

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/igolaizola/moodtune/pkg/engine"
	"github.com/igolaizola/moodtune/pkg/filestore"
	"github.com/igolaizola/moodtune/pkg/mood"
	"github.com/igolaizola/moodtune/pkg/provider"
	"github.com/igolaizola/moodtune/pkg/provider/mubert"
	"github.com/igolaizola/moodtune/pkg/provider/musicgen"
	"github.com/igolaizola/moodtune/pkg/storage"
	"github.com/oklog/ulid/v2"
)

type Config struct {
	Debug  bool
	DBType string
	DBConn string
	FSType string
	FSConn string

	User       string
	Rating     int
	Tags       string
	Reflection string
	Length     time.Duration

	MaxRetries int
	RetryWait  time.Duration

	MusicgenToken string
	MusicgenModel string
	MubertToken   string
}

// Run launches the music generation process.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.User == "" {
		return fmt.Errorf("generate: user is required")
	}
	if cfg.Rating < 1 || cfg.Rating > 10 {
		return fmt.Errorf("generate: rating must be between 1 and 10")
	}

	store, err := storage.New(cfg.DBType, cfg.DBConn, cfg.Debug)
	if err != nil {
		return fmt.Errorf("generate: couldn't create orm store: %w", err)
	}
	if err := store.Start(ctx); err != nil {
		return fmt.Errorf("generate: couldn't start orm store: %w", err)
	}

	fstore, err := filestore.New(cfg.FSType, cfg.FSConn, cfg.Debug)
	if err != nil {
		return fmt.Errorf("generate: couldn't create file store: %w", err)
	}

	var providers []provider.Provider
	if cfg.MusicgenToken != "" {
		providers = append(providers, musicgen.New(&musicgen.Config{
			Debug: cfg.Debug,
			Token: cfg.MusicgenToken,
			Model: cfg.MusicgenModel,
		}))
	}
	if cfg.MubertToken != "" {
		providers = append(providers, mubert.New(&mubert.Config{
			Debug: cfg.Debug,
			Token: cfg.MubertToken,
		}))
	}

	eng := engine.New(&engine.Config{
		Debug:      cfg.Debug,
		Providers:  providers,
		Store:      store,
		Files:      fstore,
		Length:     cfg.Length,
		MaxRetries: cfg.MaxRetries,
		RetryWait:  cfg.RetryWait,
	})

	var tags []string
	for _, t := range strings.Split(cfg.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	entry := &mood.Entry{
		ID:         ulid.Make().String(),
		Rating:     cfg.Rating,
		Tags:       tags,
		Reflection: cfg.Reflection,
	}

	queue := engine.NewQueue(eng, func(userID string, m *storage.GeneratedMusic) {
		if m.AudioURL == "" {
			log.Printf("generate: %s finished without audio\n", m.ID)
			return
		}
		log.Printf("generate: %s %s %s (%s, %.0f bpm, %.0fs)\n",
			m.ID, m.Provider, m.AudioURL, m.Mood, m.Tempo, m.Duration)
	})
	queue.EnqueueOrRun(ctx, cfg.User, entry)
	queue.Wait()
	return nil
}
