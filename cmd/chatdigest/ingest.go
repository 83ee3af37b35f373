package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatdigest/internal/index"
	"github.com/Zuo-Peng/chatdigest/internal/pipeline"
)

func ingestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [dir...]",
		Short: "Parse chat exports and rebuild the canonical message sequence",
		Long: `Scans the chat directory (or the given directories) for .txt, .log, .html,
.json and .eml exports, runs them through parsing, deduplication, date
filtering and analysis, and replaces the stored sequence.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.load()
			if err != nil {
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			roots := args
			if len(roots) == 0 {
				roots = []string{cfg.ChatDir}
			}
			fmt.Fprintf(os.Stderr, "Scanning %v...\n", roots)

			stats, err := index.IndexAll(db, pipeline.New(cfg, nil, logger), roots...)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			return nil
		},
	}
}
