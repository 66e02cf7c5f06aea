package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/campsite-dev/campseed/pkg/configuration"
	"github.com/campsite-dev/campseed/pkg/ingest"
	"github.com/campsite-dev/campseed/pkg/metrics"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	envFiles []string

	cfg     *configuration.Configuration
	log     *logrus.Entry
	run     *metrics.Run
	started time.Time

	profile     string
	encoding    string
	metricsFile string
	logLevel    string
	logFormat   string
}

func newRootCmd() *cobra.Command {
	a := &app{envFiles: configuration.DefaultEnvFiles}

	cmd := &cobra.Command{
		Use:           "campseed",
		Short:         "Normalize legacy camp exports into JSON fixtures and SQL seeds",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.finish()
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&a.profile, "profile", "", "Column profile file (.yaml/.yml/.toml) with header aliases")
	f.StringVar(&a.encoding, "encoding", "", "Input encoding: utf-8|windows-1252|utf-16")
	f.StringVar(&a.metricsFile, "metrics-file", "", "Write run metrics to this node-exporter textfile")
	f.StringVar(&a.logLevel, "log-level", "", "Log level: silent|error|warn|info|debug")
	f.StringVar(&a.logFormat, "log-format", "", "Log format: text|json")

	cmd.AddCommand(newDistrictsCmd(a))
	cmd.AddCommand(newUsersCmd(a))
	cmd.AddCommand(newCampitesCmd(a))
	cmd.AddCommand(newSeedCmd(a))
	cmd.AddCommand(newDiffCmd(a))
	cmd.AddCommand(newJSONPathCmd(a))
	cmd.AddCommand(newQueryCmd(a))
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := configuration.Load(a.envFiles...)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("configuration: %w", err))
	}
	flags := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	override("profile", &cfg.ProfilePath, a.profile)
	override("encoding", &cfg.InputEncoding, a.encoding)
	override("metrics-file", &cfg.MetricsFile, a.metricsFile)
	override("log-level", &cfg.LogLevel, a.logLevel)
	override("log-format", &cfg.LogFormat, a.logFormat)
	if err := cfg.Validate(); err != nil {
		return withCode(exitUsage, err)
	}
	cfg.LogOutput = cmd.ErrOrStderr()

	a.cfg = cfg
	a.log = logrus.NewEntry(cfg.Logger()).WithField("command", cmd.Name())
	a.run = metrics.NewRun(cmd.Name())
	a.started = time.Now()
	return nil
}

func (a *app) finish() error {
	if a.cfg == nil || a.cfg.MetricsFile == "" {
		return nil
	}
	a.run.Succeeded(a.started, time.Now())
	if err := a.run.WriteTextfile(a.cfg.MetricsFile); err != nil {
		return withCode(exitIO, fmt.Errorf("write metrics %s: %w", a.cfg.MetricsFile, err))
	}
	return nil
}

func (a *app) profileOrDefault() (ingest.Profile, error) {
	p, err := ingest.LoadProfile(a.cfg.ProfilePath)
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	return p, nil
}

func (a *app) readTable(path string) (*ingest.Table, error) {
	t, err := ingest.ReadFile(path, ingest.CSVOptions{Encoding: a.cfg.InputEncoding})
	if err != nil {
		return nil, classify(fmt.Errorf("%s: %w", path, err))
	}
	return t, nil
}

// rangeArgs reports the usage line when the positional argument count is off.
func rangeArgs(lo, hi int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < lo || len(args) > hi {
			return withCode(exitUsage, fmt.Errorf("usage: %s", cmd.UseLine()))
		}
		return nil
	}
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
