package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wI2L/jsondiff"
)

func newDiffCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <old.json> <new.json>",
		Short: "Print the RFC 6902 patch between two fixture generations",
		Args:  rangeArgs(2, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := os.ReadFile(args[0])
			if err != nil {
				return withCode(exitIO, err)
			}
			after, err := os.ReadFile(args[1])
			if err != nil {
				return withCode(exitIO, err)
			}
			patch, err := jsondiff.CompareJSON(before, after)
			if err != nil {
				return withCode(exitSchema, fmt.Errorf("compare %s %s: %w", args[0], args[1], err))
			}
			if patch == nil {
				patch = jsondiff.Patch{}
			}
			if err := writeJSON(cmd, "", patch); err != nil {
				return err
			}
			a.run.RecordsWritten("patch_operations", len(patch))
			printSummary(cmd, len(patch), "operations", 0)
			return nil
		},
	}
}
