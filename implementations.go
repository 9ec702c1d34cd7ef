package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alc6/namedump/config"
	"github.com/alc6/namedump/exporters"
	"github.com/alc6/namedump/linefilter"
)

type FileConfigLoader struct{}

func NewFileConfigLoader() ConfigLoader {
	return &FileConfigLoader{}
}

func (l *FileConfigLoader) Load(path string) (*config.Config, error) {
	return config.Load(path)
}

// RegistryExporter adapts a named exporter to the pipeline
type RegistryExporter struct {
	exporter   exporters.Exporter
	connection config.Connection
}

// NewExporter picks cfg.Exporter from the default registry
func NewExporter(cfg *config.Config) (Exporter, error) {
	registry := exporters.NewDefaultRegistry(cfg.SqlcmdPath)
	return newExporterFromRegistry(registry, cfg)
}

func newExporterFromRegistry(registry *exporters.Registry, cfg *config.Config) (Exporter, error) {
	exporter, exists := registry.Get(cfg.Exporter)
	if !exists {
		return nil, fmt.Errorf("unknown exporter: %s", cfg.Exporter)
	}

	if !exporter.IsAvailable() {
		return nil, fmt.Errorf("exporter '%s' is not available in this environment", cfg.Exporter)
	}

	return &RegistryExporter{
		exporter:   exporter,
		connection: cfg.Connection,
	}, nil
}

func (e *RegistryExporter) Export(ctx context.Context, job config.Job) error {
	result, err := e.exporter.Export(ctx, exporters.ExportParams{
		QueryFile:  job.Query,
		OutputPath: job.Intermediate,
		Connection: e.connection,
	})
	if err != nil {
		return err
	}
	slog.Debug("export finished", "exporter", e.exporter.Name(), "output", result.OutputPath, "rows", result.Rows)
	return nil
}

type FileCleaner struct{}

func NewFileCleaner() OutputCleaner {
	return &FileCleaner{}
}

func (c *FileCleaner) Clean(inPath, outPath string, mode linefilter.Mode) (linefilter.Stats, error) {
	return linefilter.CleanFile(inPath, outPath, linefilter.WithMode(mode))
}
