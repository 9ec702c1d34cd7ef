package main

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alc6/namedump/config"
	"github.com/alc6/namedump/linefilter"
)

// MockConfigLoader is a mock implementation of ConfigLoader for testing
type MockConfigLoader struct {
	LoadFunc func(path string) (*config.Config, error)

	LoadCalled bool
}

func (m *MockConfigLoader) Load(path string) (*config.Config, error) {
	m.LoadCalled = true
	if m.LoadFunc != nil {
		return m.LoadFunc(path)
	}
	return config.Default(), nil
}

// MockExporter is a mock implementation of Exporter for testing
type MockExporter struct {
	ExportFunc func(ctx context.Context, job config.Job) error

	ExportedJobs []string
}

func (m *MockExporter) Export(ctx context.Context, job config.Job) error {
	m.ExportedJobs = append(m.ExportedJobs, job.Name)
	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, job)
	}
	return nil
}

// MockOutputCleaner is a mock implementation of OutputCleaner for testing
type MockOutputCleaner struct {
	CleanFunc func(inPath, outPath string, mode linefilter.Mode) (linefilter.Stats, error)

	CleanCalled bool
	LastMode    linefilter.Mode
}

func (m *MockOutputCleaner) Clean(inPath, outPath string, mode linefilter.Mode) (linefilter.Stats, error) {
	m.CleanCalled = true
	m.LastMode = mode
	if m.CleanFunc != nil {
		return m.CleanFunc(inPath, outPath, mode)
	}
	return linefilter.Stats{}, nil
}

// staticExporter returns an exporterFactory that always hands out exporter
func staticExporter(exporter Exporter) exporterFactory {
	return func(cfg *config.Config) (Exporter, error) {
		return exporter, nil
	}
}

// tempJobs returns a config whose jobs live in dir
func tempJobs(dir string, names ...string) *config.Config {
	cfg := config.Default()
	cfg.Jobs = nil
	for _, name := range names {
		cfg.Jobs = append(cfg.Jobs, config.NewJob(name))
	}
	cfg.Resolve(dir)
	return cfg
}

// writeFakeSqlcmd installs a shell script standing in for sqlcmd. It writes
// body to the file given with -o.
func writeFakeSqlcmd(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake sqlcmd requires a posix shell")
	}

	script := `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    -o) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
printf '` + body + `' > "$out"
`
	path := filepath.Join(t.TempDir(), "sqlcmd")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}
