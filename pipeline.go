package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alc6/namedump/config"
	"github.com/alc6/namedump/linefilter"
)

// pipelineOptions carries the command-line switches that alter a run
type pipelineOptions struct {
	// Exporter overrides the exporter named in the config
	Exporter string
	// IgnoreExportErrors cleans whatever the exporter left behind even when it failed
	IgnoreExportErrors bool
	// KeepIntermediate leaves the raw exporter output on disk
	KeepIntermediate bool
	// StripAll removes every annotation on a line instead of the first one
	StripAll bool
}

type exporterFactory func(cfg *config.Config) (Exporter, error)

func processJobs(ctx context.Context, out io.Writer, configPath string, names []string,
	loader ConfigLoader, newExporter exporterFactory, cleaner OutputCleaner, opts pipelineOptions) error {
	cfg, jobs, err := loadJobs(loader, configPath, names)
	if err != nil {
		return err
	}
	return runJobs(ctx, out, cfg, jobs, newExporter, cleaner, opts)
}

func loadJobs(loader ConfigLoader, configPath string, names []string) (*config.Config, []config.Job, error) {
	cfg, err := loader.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	jobs, err := cfg.SelectJobs(names)
	if err != nil {
		return nil, nil, err
	}
	return cfg, jobs, nil
}

// runJobs runs jobs in order and stops at the first failure
func runJobs(ctx context.Context, out io.Writer, cfg *config.Config, jobs []config.Job,
	newExporter exporterFactory, cleaner OutputCleaner, opts pipelineOptions) error {
	effective := *cfg
	if opts.Exporter != "" {
		effective.Exporter = opts.Exporter
	}
	cfg = &effective
	mode := cfg.Mode()
	if opts.StripAll {
		mode = linefilter.AllAnnotations
	}

	exporter, err := newExporter(cfg)
	if err != nil {
		return fmt.Errorf("failed to create exporter: %w", err)
	}

	slog.Info("running export jobs", "count", len(jobs), "exporter", cfg.Exporter, "mode", mode.String())
	for _, job := range jobs {
		if err := runJob(ctx, out, job, exporter, cleaner, mode, opts); err != nil {
			return fmt.Errorf("job %s: %w", job.Name, err)
		}
	}
	return nil
}

// runJob exports a single listing and cleans it. The intermediate file is
// removed only once the output has been written and closed.
func runJob(ctx context.Context, out io.Writer, job config.Job, exporter Exporter,
	cleaner OutputCleaner, mode linefilter.Mode, opts pipelineOptions) error {
	slog.Info("running export job", "job", job.Name, "query", job.Query)
	fmt.Fprintf(out, "make %s\n", filepath.Base(job.Output))

	if err := exporter.Export(ctx, job); err != nil {
		if !opts.IgnoreExportErrors {
			return fmt.Errorf("failed to export: %w", err)
		}
		slog.Warn("export failed, cleaning existing output anyway", "job", job.Name, "error", err)
	}

	stats, err := cleaner.Clean(job.Intermediate, job.Output, mode)
	if err != nil {
		return fmt.Errorf("failed to clean output: %w", err)
	}
	slog.Info("output written",
		"job", job.Name,
		"output", job.Output,
		"lines", stats.LinesWritten,
		"dropped", stats.LinesDropped)

	if !opts.KeepIntermediate {
		if err := os.Remove(job.Intermediate); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove intermediate file: %w", err)
		}
	}

	fmt.Fprintln(out, "Done!")
	return nil
}
