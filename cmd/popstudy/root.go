package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"popstudy/internal/config"
	"popstudy/internal/core"
	"strings"

	"github.com/spf13/cobra"
)

// app carries the state shared by every subcommand.
type app struct {
	stdout, stderr io.Writer
	configPath     string
	asJSON         bool

	cfg    config.Config
	logger *slog.Logger
}

// NewRootCommand builds the popstudy command tree.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	rc := &cobra.Command{
		Use:   "popstudy",
		Short: "Federated population statistics over genomic variant catalogs.",
		Long: `popstudy queries several variant catalogs at once, merges their answers
and reports donor distributions, variant frequencies and annotations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = newLogger(stderr, cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	rc.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Configuration file to read from.")
	rc.PersistentFlags().BoolVar(&a.asJSON, "json", false, "Write results as JSON.")

	for _, op := range operations {
		rc.AddCommand(op.command(a))
	}
	rc.AddCommand(newServeCommand(a))
	return rc
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// withCoordinator builds the federation for a single command and tears it
// down afterwards.
func (a *app) withCoordinator(ctx context.Context, fn func(*core.Coordinator) (core.Result, error)) error {
	fed, err := openFederation(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer fed.Close()
	coord, err := fed.coordinator(a.logger, nil)
	if err != nil {
		return err
	}
	res, err := fn(coord)
	if err != nil {
		return describe(err)
	}
	return a.render(res)
}

// describe adds the candidates of an ambiguous reference to the error text.
func describe(err error) error {
	var amb *core.AmbiguousReferenceError
	if !errors.As(err, &amb) {
		return err
	}
	var b strings.Builder
	for _, row := range amb.Candidates.Rows {
		fmt.Fprintf(&b, "\n  %v", row)
	}
	return fmt.Errorf("%w; candidates:%s", err, b.String())
}
