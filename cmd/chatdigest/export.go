package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Zuo-Peng/chatdigest/internal/parse"
)

// exported is one message of an export, with its sequence number.
type exported struct {
	Seq           int `json:"seq" yaml:"seq"`
	parse.Message `yaml:",inline"`
}

func writeExport(w io.Writer, format string, msgs []exported) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(msgs)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(msgs); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown export format %q (want json or yaml)", format)
}

func exportCmd(a *app) *cobra.Command {
	var format, output string
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the canonical message sequence as JSON or YAML",
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

			rows, err := db.GetMessages()
			if err != nil {
				return err
			}
			opts := flags.options()
			msgs := make([]exported, 0, len(rows))
			for _, r := range rows {
				if opts.QuestionsOnly && !r.IsQuestion {
					continue
				}
				if opts.Subject != "" && r.Subject.String() != opts.Subject {
					continue
				}
				if opts.Sender != "" && r.Sender != opts.Sender {
					continue
				}
				msgs = append(msgs, exported{Seq: r.Seq, Message: r.Message})
			}

			w := io.Writer(os.Stdout)
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := writeExport(w, format, msgs); err != nil {
				return err
			}
			logger.Debug().Int("messages", len(msgs)).Str("format", format).Msg("exported")
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&flags.sender, "sender", "", "Filter by sender")
	cmd.Flags().StringVar(&flags.subject, "subject", "", "Filter by subject (math/physics/chemistry/none)")
	cmd.Flags().BoolVar(&flags.questions, "questions", false, "Only teacher questions")
	return cmd
}
