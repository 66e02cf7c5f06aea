package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/campsite-dev/campseed/modules/registration/infrastructure/fixtures"
	"github.com/campsite-dev/campseed/pkg/ingest"
	"github.com/campsite-dev/campseed/pkg/repo"
)

func toStdout(path string) bool {
	return path == "" || path == "-"
}

func writeJSON(cmd *cobra.Command, path string, v any) error {
	if toStdout(path) {
		if err := fixtures.Write(cmd.OutOrStdout(), v); err != nil {
			return withCode(exitIO, fmt.Errorf("json encode: %w", err))
		}
		return nil
	}
	if err := fixtures.WriteFile(path, v); err != nil {
		return withCode(exitIO, err)
	}
	return nil
}

func writeText(cmd *cobra.Command, path, s string) error {
	if toStdout(path) {
		_, err := io.WriteString(cmd.OutOrStdout(), s)
		return withCode(exitIO, err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return withCode(exitIO, fmt.Errorf("mkdir %s: %w", dir, err))
	}
	if err := os.WriteFile(path, []byte(s), 0o644); err != nil {
		return withCode(exitIO, fmt.Errorf("write %s: %w", path, err))
	}
	return nil
}

func printSummary(cmd *cobra.Command, written int, artifact string, skipped int) {
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d %s (skipped %d)\n", written, artifact, skipped)
}

// classify tags pipeline errors with their exit code.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ingest.ErrParse):
		return withCode(exitParse, err)
	case errors.Is(err, ingest.ErrSchemaAssumption),
		errors.Is(err, repo.ErrNotArray),
		errors.Is(err, repo.ErrEmptySeed),
		errors.Is(err, repo.ErrShapeMismatch):
		return withCode(exitSchema, err)
	}
	return withCode(exitIO, err)
}
