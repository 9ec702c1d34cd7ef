package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alc6/namedump/config"
)

func TestStartMCPServerExists(t *testing.T) {
	t.Run("mcp_server_function_exists", func(t *testing.T) {
		t.Log("StartMCPServer function is defined and accessible")
	})
}

func TestCleanTextCore(t *testing.T) {
	t.Run("first_mode", func(t *testing.T) {
		result, err := cleanTextCore("schema_one,dbo\n(3 rows affected)\nAlice(1),Bob(2)\n", "first")
		require.NoError(t, err)
		assert.Equal(t, "schema_one,dbo\nAlice,Bob(2)\n", result)
	})

	t.Run("all_mode", func(t *testing.T) {
		result, err := cleanTextCore("Alice(1),Bob(2)\n", "all")
		require.NoError(t, err)
		assert.Equal(t, "Alice,Bob\n", result)
	})

	t.Run("default_mode", func(t *testing.T) {
		result, err := cleanTextCore("table_a(PK)", "")
		require.NoError(t, err)
		assert.Equal(t, "table_a", result)
	})

	t.Run("unknown_mode", func(t *testing.T) {
		_, err := cleanTextCore("a", "greedy")
		require.Error(t, err)
		assert.Equal(t, "unknown mode: greedy", err.Error())
	})
}

func TestListJobsCore(t *testing.T) {
	t.Run("default_jobs", func(t *testing.T) {
		result, err := listJobsCore(&MockConfigLoader{}, "")
		require.NoError(t, err)
		assert.Contains(t, result, `"job_count": 2`)
		assert.Contains(t, result, `"strip_mode": "first"`)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(result), &decoded))
		jobs := decoded["jobs"].([]any)
		require.Len(t, jobs, 2)
		assert.Equal(t, "schema_names", jobs[0].(map[string]any)["name"])
	})

	t.Run("load_error", func(t *testing.T) {
		loader := &MockConfigLoader{
			LoadFunc: func(path string) (*config.Config, error) {
				return nil, fmt.Errorf("failed to read config file: open %s: no such file or directory", path)
			},
		}
		_, err := listJobsCore(loader, "missing.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no such file or directory")
	})

	t.Run("real_loader", func(t *testing.T) {
		cfgPath := filepath.Join(t.TempDir(), "namedump.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("jobs:\n  - name: views\n"), 0644))

		result, err := listJobsCore(NewFileConfigLoader(), cfgPath)
		require.NoError(t, err)
		assert.Contains(t, result, `"job_count": 1`)
		assert.Contains(t, result, "views.csv.in")
	})
}

func TestExportNamesCore(t *testing.T) {
	ctx := context.Background()

	t.Run("returns_cleaned_listings", func(t *testing.T) {
		dir := t.TempDir()
		cfg := tempJobs(dir, "schema_names", "table_names")
		loader := &MockConfigLoader{
			LoadFunc: func(path string) (*config.Config, error) { return cfg, nil },
		}
		exporter := &MockExporter{
			ExportFunc: func(ctx context.Context, job config.Job) error {
				return os.WriteFile(job.Intermediate, []byte("dbo\n\n(1 row affected)\n"), 0644)
			},
		}

		result, err := exportNamesCoreWithDeps(ctx, "", "", pipelineOptions{}, loader, staticExporter(exporter), NewFileCleaner())
		require.NoError(t, err)
		assert.Contains(t, result, "== schema_names ("+filepath.Join(dir, "schema_names.csv")+") ==\ndbo\n")
		assert.Contains(t, result, "== table_names (")
		assert.NotContains(t, result, "rows affected")
		assert.NotContains(t, result, "Done!")
	})

	t.Run("single_job", func(t *testing.T) {
		dir := t.TempDir()
		cfg := tempJobs(dir, "schema_names", "table_names")
		loader := &MockConfigLoader{
			LoadFunc: func(path string) (*config.Config, error) { return cfg, nil },
		}
		exporter := &MockExporter{
			ExportFunc: func(ctx context.Context, job config.Job) error {
				return os.WriteFile(job.Intermediate, []byte("users"), 0644)
			},
		}

		result, err := exportNamesCoreWithDeps(ctx, "", "table_names", pipelineOptions{}, loader, staticExporter(exporter), NewFileCleaner())
		require.NoError(t, err)
		assert.Equal(t, []string{"table_names"}, exporter.ExportedJobs)
		assert.Equal(t, "== table_names ("+filepath.Join(dir, "table_names.csv")+") ==\nusers\n", result)
	})

	t.Run("export_failure", func(t *testing.T) {
		exporter := &MockExporter{
			ExportFunc: func(ctx context.Context, job config.Job) error {
				return fmt.Errorf("sqlcmd failed")
			},
		}

		_, err := exportNamesCoreWithDeps(ctx, "", "", pipelineOptions{}, &MockConfigLoader{}, staticExporter(exporter), &MockOutputCleaner{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sqlcmd failed")
	})

	t.Run("unknown_job", func(t *testing.T) {
		_, err := exportNamesCoreWithDeps(ctx, "", "views", pipelineOptions{}, &MockConfigLoader{}, staticExporter(&MockExporter{}), &MockOutputCleaner{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown job: views")
	})
}
