package cli

import (
	"context"
	"flag"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/igolaizola/moodtune/pkg/cmd/analyze"
	"github.com/igolaizola/moodtune/pkg/cmd/generate"
	"github.com/igolaizola/moodtune/pkg/cmd/migrate"
	"github.com/igolaizola/moodtune/pkg/cmd/play"
	"github.com/peterbourgon/ff/ffyaml"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
)

func New(version, commit, date string) *ffcli.Command {
	fs := flag.NewFlagSet("moodtune", flag.ExitOnError)

	return &ffcli.Command{
		ShortUsage: "moodtune [flags] <subcommand>",
		FlagSet:    fs,
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
		Subcommands: []*ffcli.Command{
			newVersionCommand(version, commit, date),
			newMigrateCommand(),
			newGenerateCommand(),
			newPlayCommand(),
			newAnalyzeCommand(),
		},
	}
}

func newVersionCommand(version, commit, date string) *ffcli.Command {
	return &ffcli.Command{
		Name:       "version",
		ShortUsage: "moodtune version",
		ShortHelp:  "print version",
		Exec: func(ctx context.Context, args []string) error {
			v := version
			if v == "" {
				if buildInfo, ok := debug.ReadBuildInfo(); ok {
					v = buildInfo.Main.Version
				}
			}
			if v == "" {
				v = "dev"
			}
			versionFields := []string{v}
			if commit != "" {
				versionFields = append(versionFields, commit)
			}
			if date != "" {
				versionFields = append(versionFields, date)
			}
			fmt.Println(strings.Join(versionFields, " "))
			return nil
		},
	}
}

func options() []ff.Option {
	return []ff.Option{
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ffyaml.Parser),
		ff.WithEnvVarPrefix("MOODTUNE"),
	}
}

func newMigrateCommand() *ffcli.Command {
	cmd := "migrate"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &migrate.Config{}

	fs.StringVar(&cfg.DBType, "db-type", "sqlite", "db type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "moodtune.db", "path for sqlite, dsn for mysql or postgres")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("moodtune %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "create or update the database schema",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return migrate.Run(ctx, cfg)
		},
	}
}

func newGenerateCommand() *ffcli.Command {
	cmd := "generate"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &generate.Config{}

	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.DBType, "db-type", "sqlite", "db type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "moodtune.db", "path for sqlite, dsn for mysql or postgres")
	fs.StringVar(&cfg.FSType, "fs-type", "local", "file storage type (local, s3)")
	fs.StringVar(&cfg.FSConn, "fs-conn", "audio", "folder for local, key:secret@bucket.region for s3")

	fs.StringVar(&cfg.User, "user", "", "user identifier")
	fs.IntVar(&cfg.Rating, "rating", 0, "mood rating (1-10)")
	fs.StringVar(&cfg.Tags, "tags", "", "comma separated emotion tags")
	fs.StringVar(&cfg.Reflection, "reflection", "", "free text reflection")
	fs.DurationVar(&cfg.Length, "length", 30*time.Second, "length of the procedural fallback")

	fs.IntVar(&cfg.MaxRetries, "max-retries", 3, "retries per provider")
	fs.DurationVar(&cfg.RetryWait, "retry-wait", 1*time.Second, "base wait between retries")

	fs.StringVar(&cfg.MusicgenToken, "musicgen-token", "", "huggingface api token for musicgen")
	fs.StringVar(&cfg.MusicgenModel, "musicgen-model", "", "musicgen model override")
	fs.StringVar(&cfg.MubertToken, "mubert-token", "", "mubert api token")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("moodtune %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "generate music for a mood entry",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return generate.Run(ctx, cfg)
		},
	}
}

func newPlayCommand() *ffcli.Command {
	cmd := "play"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &play.Config{}

	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.DBType, "db-type", "sqlite", "db type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "moodtune.db", "path for sqlite, dsn for mysql or postgres")
	fs.StringVar(&cfg.FSType, "fs-type", "local", "file storage type (local, s3)")
	fs.StringVar(&cfg.FSConn, "fs-conn", "audio", "folder for local, key:secret@bucket.region for s3")

	fs.StringVar(&cfg.User, "user", "", "user identifier")
	fs.StringVar(&cfg.Music, "music", "", "generated music identifier")
	fs.Float64Var(&cfg.Volume, "volume", 0, "playback volume (0-1)")
	fs.BoolVar(&cfg.Repeat, "repeat", false, "repeat on end of track")
	fs.DurationVar(&cfg.Length, "length", 30*time.Second, "length of regenerated audio")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("moodtune %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "play a generated artifact",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return play.Run(ctx, cfg)
		},
	}
}

func newAnalyzeCommand() *ffcli.Command {
	cmd := "analyze"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &analyze.Config{}

	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.Input, "input", "", "audio file or url to analyze")
	fs.StringVar(&cfg.Output, "output", ".", "output folder for plots")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("moodtune %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "analyze a generated artifact",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return analyze.Run(ctx, cfg)
		},
	}
}
