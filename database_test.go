package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgreSQL starts a throwaway postgres and returns its DSN
func setupPostgreSQL(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

func TestNativeExportIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping native export integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dsn := setupPostgreSQL(ctx, t)

	dir := t.TempDir()
	queries := map[string]string{
		"schema_names.sql": `select schema_name from information_schema.schemata
			where schema_name in ('public', 'information_schema')
			order by schema_name`,
		"table_names.sql": `select table_schema, table_name from information_schema.tables
			where table_schema = 'information_schema' and table_name in ('tables', 'columns')
			order by table_name`,
	}
	for name, query := range queries {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(query), 0644))
	}

	cfgPath := filepath.Join(dir, "namedump.yaml")
	cfgContent := `exporter: native
connection:
  driver: postgres
  dsn: "` + dsn + `"
  login_timeout: 30s
jobs:
  - name: schema_names
  - name: table_names
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgContent), 0644))

	var out bytes.Buffer
	err := processJobs(ctx, &out, cfgPath, nil, NewFileConfigLoader(), NewExporter, NewFileCleaner(), pipelineOptions{})
	require.NoError(t, err)
	assert.Equal(t, "make schema_names.csv\nDone!\nmake table_names.csv\nDone!\n", out.String())

	schemas, err := os.ReadFile(filepath.Join(dir, "schema_names.csv"))
	require.NoError(t, err)
	assert.Equal(t, "information_schema\npublic\n", string(schemas))

	tables, err := os.ReadFile(filepath.Join(dir, "table_names.csv"))
	require.NoError(t, err)
	assert.Equal(t, "information_schema,columns\ninformation_schema,tables\n", string(tables))

	_, err = os.Stat(filepath.Join(dir, "schema_names.csv.in"))
	assert.True(t, os.IsNotExist(err))
}
