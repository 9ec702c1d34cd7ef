package exporters

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// nullValue is what sqlcmd prints for NULL columns
const nullValue = "NULL"

var supportedDrivers = map[string]bool{
	"postgres": true,
	"mysql":    true,
}

// Rows is the subset of *sql.Rows the row writer needs
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Columns() ([]string, error)
	Err() error
}

// NativeExporter runs the query through database/sql and writes the
// listing in the same shape sqlcmd produces
type NativeExporter struct{}

// NewNativeExporter creates a new native exporter
func NewNativeExporter() Exporter {
	return &NativeExporter{}
}

// Name returns the exporter name
func (p *NativeExporter) Name() string {
	return "native"
}

// IsAvailable always returns true for the native exporter
func (p *NativeExporter) IsAvailable() bool {
	return true
}

// Export runs the query file against the configured DSN
func (p *NativeExporter) Export(ctx context.Context, params ExportParams) (*ExportResult, error) {
	if params.Connection.DSN == "" {
		return nil, fmt.Errorf("native exporter requires a dsn")
	}

	driver := params.Connection.Driver
	if driver == "" {
		driver = "postgres"
	}
	if !supportedDrivers[driver] {
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	query, err := os.ReadFile(params.QueryFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}

	slog.Debug("extracting listing using native exporter", "driver", driver, "query", params.QueryFile)

	db, err := sql.Open(driver, params.Connection.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	defer db.Close()

	pingCtx := ctx
	if params.Connection.LoginTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, params.Connection.LoginTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	rows, err := db.QueryContext(ctx, string(query))
	if err != nil {
		return nil, fmt.Errorf("failed to run query %s: %w", params.QueryFile, err)
	}
	defer rows.Close()

	count, err := writeListingFile(params.OutputPath, rows)
	if err != nil {
		return nil, err
	}

	slog.Info("native export completed", "output", params.OutputPath, "rows", count)
	return &ExportResult{
		OutputPath: params.OutputPath,
		Rows:       count,
	}, nil
}

func writeListingFile(path string, rows Rows) (count int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", closeErr)
		}
	}()

	w := bufio.NewWriter(f)
	count, err = WriteRows(w, rows)
	if err != nil {
		return count, err
	}
	if err := w.Flush(); err != nil {
		return count, fmt.Errorf("failed to flush output file: %w", err)
	}
	return count, nil
}

// WriteRows writes each row as comma separated values without a header,
// followed by a blank line and a row-count summary
func WriteRows(w io.Writer, rows Rows) (int, error) {
	columns, err := rows.Columns()
	if err != nil {
		return 0, fmt.Errorf("failed to read columns: %w", err)
	}

	values := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	fields := make([]string, len(columns))
	count := 0
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return count, fmt.Errorf("failed to scan row %d: %w", count+1, err)
		}
		for i, v := range values {
			if !v.Valid {
				fields[i] = nullValue
				continue
			}
			fields[i] = strings.TrimRight(v.String, " ")
		}
		if _, err := io.WriteString(w, strings.Join(fields, ",")+"\n"); err != nil {
			return count, fmt.Errorf("failed to write row %d: %w", count+1, err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return count, fmt.Errorf("failed to iterate rows: %w", err)
	}

	if _, err := io.WriteString(w, "\n"+rowsAffected(count)+"\n"); err != nil {
		return count, fmt.Errorf("failed to write row count: %w", err)
	}
	return count, nil
}

func rowsAffected(n int) string {
	if n == 1 {
		return "(1 row affected)"
	}
	return fmt.Sprintf("(%d rows affected)", n)
}
