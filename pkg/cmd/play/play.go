package play

import (
	"context"
	"fmt"
	"time"

	"github.com/igolaizola/moodtune/pkg/filestore"
	"github.com/igolaizola/moodtune/pkg/player"
	"github.com/igolaizola/moodtune/pkg/storage"
)

type Config struct {
	Debug  bool
	DBType string
	DBConn string
	FSType string
	FSConn string

	User   string
	Music  string
	Volume float64
	Repeat bool
	Length time.Duration
}

// Run plays a generated artifact until it ends or the context is
// cancelled.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.User == "" || cfg.Music == "" {
		return fmt.Errorf("play: user and music are required")
	}

	store, err := storage.New(cfg.DBType, cfg.DBConn, cfg.Debug)
	if err != nil {
		return fmt.Errorf("play: couldn't create orm store: %w", err)
	}
	if err := store.Start(ctx); err != nil {
		return fmt.Errorf("play: couldn't start orm store: %w", err)
	}

	fstore, err := filestore.New(cfg.FSType, cfg.FSConn, cfg.Debug)
	if err != nil {
		return fmt.Errorf("play: couldn't create file store: %w", err)
	}

	ctrl := player.New(&player.Config{
		Debug:  cfg.Debug,
		Store:  store,
		Files:  fstore,
		Length: cfg.Length,
	})
	if !ctrl.Play(ctx, cfg.User, cfg.Music) {
		return fmt.Errorf("play: couldn't play %s", cfg.Music)
	}
	defer ctrl.Stop()
	if cfg.Volume > 0 {
		ctrl.SetVolume(cfg.Volume)
	}
	if cfg.Repeat {
		ctrl.SetRepeat(true)
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if ctrl.State() == player.Idle {
				return nil
			}
		}
	}
}
