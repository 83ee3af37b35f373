package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatdigest/internal/config"
	"github.com/Zuo-Peng/chatdigest/internal/index"
	"github.com/Zuo-Peng/chatdigest/internal/log"
	"github.com/Zuo-Peng/chatdigest/internal/pipeline"
)

var version = "dev"

// app carries the persistent flags shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
}

func (a *app) load() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	level := cfg.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	return cfg, log.New(level, nil), nil
}

// openIndexed opens the database, ingesting first when nothing has been
// ingested yet.
func (a *app) openIndexed(cfg *config.Config, logger zerolog.Logger) (*index.DB, error) {
	db, err := index.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	run, err := db.LastRun()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("last run: %w", err)
	}
	if run == nil {
		logger.Info().Str("chat_dir", cfg.ChatDir).Msg("no ingest yet, ingesting")
		if _, err := index.IndexAll(db, pipeline.New(cfg, nil, logger), cfg.ChatDir); err != nil {
			db.Close()
			return nil, fmt.Errorf("ingest: %w", err)
		}
	}
	return db, nil
}

func main() {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "chatdigest",
		Short:         "Normalize tutoring chat logs into a searchable, annotated message sequence",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default ~/.config/chatdigest/config.toml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error, off")

	rootCmd.AddCommand(ingestCmd(a))
	rootCmd.AddCommand(searchCmd(a))
	rootCmd.AddCommand(browseCmd(a))
	rootCmd.AddCommand(previewCmd(a))
	rootCmd.AddCommand(openCmd(a))
	rootCmd.AddCommand(docsCmd(a))
	rootCmd.AddCommand(exportCmd(a))
	rootCmd.AddCommand(doctorCmd(a))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
