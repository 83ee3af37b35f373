package main

import (
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatdigest/internal/tui"
)

func browseCmd(a *app) *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the message sequence in time order",
		Long:  `Opens a TUI panel showing every message in sequence order. Type to search; Enter copies the selected message.`,
		Args:  cobra.NoArgs,
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

			return tui.RunList(db, tui.Identities{Teacher: cfg.Teacher, Student: cfg.Student}, flags.options())
		},
	}

	flags.register(cmd, 0)
	return cmd
}
