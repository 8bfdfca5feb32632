package moodtune

import (
	"context"
	"fmt"
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
	DBPath string
	FSPath string
	Length time.Duration

	MusicgenToken string
	MubertToken   string
}

// Generate produces music for a single mood entry using a local
// sqlite database and a local audio folder.
func Generate(ctx context.Context, cfg *Config, userID string, rating int, tags []string, reflection string) (*storage.GeneratedMusic, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "moodtune.db"
	}
	fsPath := cfg.FSPath
	if fsPath == "" {
		fsPath = "audio"
	}

	store, err := storage.New("sqlite", dbPath, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("couldn't create store: %w", err)
	}
	if err := store.Start(ctx); err != nil {
		return nil, fmt.Errorf("couldn't start store: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("couldn't migrate store: %w", err)
	}

	fstore, err := filestore.New("local", fsPath, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("couldn't create file store: %w", err)
	}

	var providers []provider.Provider
	if cfg.MusicgenToken != "" {
		providers = append(providers, musicgen.New(&musicgen.Config{
			Debug: cfg.Debug,
			Token: cfg.MusicgenToken,
		}))
	}
	if cfg.MubertToken != "" {
		providers = append(providers, mubert.New(&mubert.Config{
			Debug: cfg.Debug,
			Token: cfg.MubertToken,
		}))
	}

	eng := engine.New(&engine.Config{
		Debug:     cfg.Debug,
		Providers: providers,
		Store:     store,
		Files:     fstore,
		Length:    cfg.Length,
	})
	entry := &mood.Entry{
		ID:         ulid.Make().String(),
		Rating:     rating,
		Tags:       tags,
		Reflection: reflection,
	}
	return eng.Generate(ctx, userID, entry), nil
}
