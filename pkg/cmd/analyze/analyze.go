package analyze

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/igolaizola/moodtune/pkg/sound"
)

type Config struct {
	Debug  bool
	Input  string
	Output string
}

// Run analyzes a generated audio artifact and writes waveform and
// loudness plots next to it.
func Run(ctx context.Context, cfg *Config) error {
	a, err := sound.NewAnalyzer(cfg.Input)
	if err != nil {
		return err
	}
	fmt.Printf("Duration: %s\n", a.Duration())

	name := filepath.Base(cfg.Input)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	out := filepath.Join(cfg.Output, name)

	b, err := a.PlotRMS()
	if err != nil {
		return err
	}
	if err := os.WriteFile(out+"-rms.jpg", b, 0644); err != nil {
		return fmt.Errorf("analyze: couldn't write rms plot: %w", err)
	}

	b, err = a.PlotWave(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out+"-wave.jpg", b, 0644); err != nil {
		return fmt.Errorf("analyze: couldn't write wave plot: %w", err)
	}
	return nil
}
