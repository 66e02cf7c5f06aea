package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/campsite-dev/campseed/pkg/repo"
)

type jsonPathOptions struct {
	where   string
	preview string
}

func newJSONPathCmd(a *app) *cobra.Command {
	var opts jsonPathOptions

	cmd := &cobra.Command{
		Use:   "jsonpath <table> <field> <path> [value]",
		Short: "Print the json_extract / json_set statement for a JSON column",
		Long: "Print the json_extract (no value) or json_set (with value) statement for a JSON column.\n\n" +
			"The statement is built by plain interpolation and is meant for review, not execution.\n" +
			"With --preview, the value is instead applied to a local JSON document and the result printed.",
		Args: rangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := repo.JSONPathQuery{Table: args[0], Field: args[1], KeyPath: args[2], Where: opts.where}
			if len(args) == 3 {
				if opts.preview != "" {
					return withCode(exitUsage, fmt.Errorf("--preview requires a value"))
				}
				return writeText(cmd, "", repo.CompileJSONRead(q)+"\n")
			}

			q.Value = args[3]
			if opts.preview == "" {
				return writeText(cmd, "", repo.CompileJSONWrite(q)+"\n")
			}
			doc, err := os.ReadFile(opts.preview)
			if err != nil {
				return withCode(exitIO, err)
			}
			out, err := repo.ApplyJSONPath(doc, q.KeyPath, previewValue(args[3]))
			if err != nil {
				return withCode(exitSchema, fmt.Errorf("preview %s: %w", opts.preview, err))
			}
			var v any
			if err := json.Unmarshal(out, &v); err != nil {
				return withCode(exitSchema, err)
			}
			a.log.WithField("path", q.KeyPath).Debug("preview applied")
			return writeJSON(cmd, "", v)
		},
	}
	cmd.Flags().StringVar(&opts.where, "where", "", "Raw WHERE predicate, e.g. id=1")
	cmd.Flags().StringVar(&opts.preview, "preview", "", "Apply the write to this JSON document instead of printing SQL")
	return cmd
}

// previewValue treats value as JSON when it parses, and as a string otherwise.
func previewValue(value string) any {
	var v any
	if err := json.Unmarshal([]byte(value), &v); err == nil {
		return v
	}
	return value
}
