package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatdigest/internal/analyze"
	"github.com/Zuo-Peng/chatdigest/internal/config"
	"github.com/Zuo-Peng/chatdigest/internal/index"
	"github.com/Zuo-Peng/chatdigest/internal/parse"
	"github.com/Zuo-Peng/chatdigest/internal/render"
)

// storedSequence loads the canonical sequence back out of the database.
func storedSequence(db *index.DB) ([]parse.Message, error) {
	rows, err := db.GetMessages()
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	seq := make([]parse.Message, len(rows))
	for i, r := range rows {
		seq[i] = r.Message
	}
	return seq, nil
}

func newDocs(cfg *config.Config) (render.Docs, []parse.Subject) {
	subjects := make([]parse.Subject, 0, len(cfg.Subjects))
	for _, s := range cfg.Subjects {
		subjects = append(subjects, parse.Subject(s.Subject))
	}
	return render.Docs{
		Analyzer: analyze.New(cfg),
		Label:    func(s parse.Subject) string { return cfg.SubjectLabel(string(s)) },
	}, subjects
}

func docsCmd(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Write per-subject study summaries and monthly class records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.DocsDir
			}

			db, err := a.openIndexed(cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			seq, err := storedSequence(db)
			if err != nil {
				return err
			}
			if len(seq) == 0 {
				fmt.Fprintf(os.Stderr, "No messages. Export chat records to %s and run 'chatdigest ingest'.\n", cfg.ChatDir)
				return nil
			}

			docs, subjects := newDocs(cfg)
			written, err := docs.WriteDocs(dir, seq, subjects)
			for _, p := range written {
				fmt.Fprintf(os.Stderr, "Wrote %s\n", p)
			}
			if err != nil {
				return err
			}
			logger.Info().Int("files", len(written)).Str("dir", dir).Msg("docs written")
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Output directory (default: docs_dir from config)")
	return cmd
}
