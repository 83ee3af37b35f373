package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatdigest/internal/index"
	"github.com/Zuo-Peng/chatdigest/internal/render"
)

func parseSeq(arg string) (int, error) {
	seq, err := strconv.Atoi(arg)
	if err != nil || seq < 1 {
		return 0, fmt.Errorf("invalid message number %q", arg)
	}
	return seq, nil
}

func previewCmd(a *app) *cobra.Command {
	var context, width int
	var query string

	cmd := &cobra.Command{
		Use:   "preview <seq>",
		Short: "Preview a message with the conversation around it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := parseSeq(args[0])
			if err != nil {
				return err
			}

			cfg, _, err := a.load()
			if err != nil {
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			out, _, err := render.RenderMessage(db, seq, render.Options{
				Context: context,
				Width:   width,
				Query:   query,
				Teacher: cfg.Teacher,
				Student: cfg.Student,
			})
			if err != nil {
				return err
			}

			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().IntVar(&context, "context", 5, "Messages before/after to show (-1 = all)")
	cmd.Flags().IntVar(&width, "width", 0, "Wrap width (0 = no wrap)")
	cmd.Flags().StringVar(&query, "query", "", "Search query for keyword highlighting")

	return cmd
}
