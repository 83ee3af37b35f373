package main

import (
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatdigest/internal/index"
	"github.com/Zuo-Peng/chatdigest/internal/open"
)

func openCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <seq>",
		Short: "Open the message's source file in $EDITOR at its line",
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

			return open.OpenMessage(db, seq)
		},
	}
}
