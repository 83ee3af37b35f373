package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/chatdigest/internal/search"
	"github.com/Zuo-Peng/chatdigest/internal/tui"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorGreen   = "\033[1;32m"
	sColorDim     = "\033[2m"
)

func colorizeSender(sender string, who tui.Identities) string {
	switch sender {
	case who.Teacher:
		return sColorBlue + sender + sColorReset
	case who.Student:
		return sColorGreen + sender + sColorReset
	default:
		return sender
	}
}

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

// searchFlags are the filters shared by search and browse.
type searchFlags struct {
	sender, subject, since, until string
	questions                     bool
	limit                         int
}

func (f *searchFlags) register(cmd *cobra.Command, defaultLimit int) {
	cmd.Flags().StringVar(&f.sender, "sender", "", "Filter by sender")
	cmd.Flags().StringVar(&f.subject, "subject", "", "Filter by subject (math/physics/chemistry/none)")
	cmd.Flags().StringVar(&f.since, "since", "", "Only messages on or after date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.until, "until", "", "Only messages on or before date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&f.questions, "questions", false, "Only teacher questions")
	cmd.Flags().IntVar(&f.limit, "limit", defaultLimit, "Max results")
}

func (f *searchFlags) options() search.Options {
	return search.Options{
		Sender:        f.sender,
		Subject:       f.subject,
		Since:         f.since,
		Until:         f.until,
		QuestionsOnly: f.questions,
		Limit:         f.limit,
	}
}

func searchCmd(a *app) *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across the message sequence",
		Long: `Search messages (FTS5 for latin text, substring match for Chinese). Output is
TSV for fzf integration when stdout is not a terminal:
  seq, timestamp, sender, subject, snippet

Example:
  chatdigest search 牛顿 | fzf --ansi --delimiter='\t' --with-nth=2.. \
    --preview 'chatdigest preview {1} --context 3 --query {q}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.load()
			if err != nil {
				return err
			}

			db, err := a.openIndexed(cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			who := tui.Identities{Teacher: cfg.Teacher, Student: cfg.Student}
			opts := flags.options()

			// Interactive TUI when stdout is a terminal; TSV output for pipes
			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Run(db, who, args[0], opts)
			}

			opts.Query = args[0]
			results, err := search.Search(db, opts)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, r := range results {
				snippet := strings.ReplaceAll(r.Snippet, "\t", " ")
				snippet = strings.ReplaceAll(snippet, "\n", " ")
				ts := r.Timestamp
				if ts == "" {
					ts = "-"
				}
				// first field (seq) stays plain for fzf {1}
				fmt.Printf("%d\t%s%s%s\t%s\t%s\t%s\n",
					r.Seq,
					sColorDim, ts, sColorReset,
					colorizeSender(r.Sender, who),
					r.Subject,
					colorizeSnippet(snippet),
				)
			}
			return nil
		},
	}

	flags.register(cmd, 100)
	return cmd
}
