package exporters

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/alc6/namedump/config"
)

// SqlcmdExporter uses the sqlcmd binary to run the query
type SqlcmdExporter struct {
	Binary string
}

// NewSqlcmdExporter creates a new sqlcmd exporter. An empty binary means
// "sqlcmd" from PATH.
func NewSqlcmdExporter(binary string) Exporter {
	if binary == "" {
		binary = "sqlcmd"
	}
	return &SqlcmdExporter{Binary: binary}
}

// Name returns the exporter name
func (p *SqlcmdExporter) Name() string {
	return "sqlcmd"
}

// IsAvailable checks if sqlcmd is available in PATH
func (p *SqlcmdExporter) IsAvailable() bool {
	_, err := exec.LookPath(p.Binary)
	return err == nil
}

// Export runs the query file through sqlcmd, which writes the listing
// straight to params.OutputPath
func (p *SqlcmdExporter) Export(ctx context.Context, params ExportParams) (*ExportResult, error) {
	if params.QueryFile == "" {
		return nil, fmt.Errorf("sqlcmd exporter requires a query file")
	}
	if params.OutputPath == "" {
		return nil, fmt.Errorf("sqlcmd exporter requires an output path")
	}

	cmd := exec.CommandContext(ctx, p.Binary, buildSqlcmdArgs(params)...)
	if params.Connection.Password != "" {
		cmd.Env = append(os.Environ(), "SQLCMDPASSWORD="+params.Connection.Password)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("executing sqlcmd", "command", cmd.String())

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("sqlcmd failed: %w\nstderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() > 0 {
		slog.Debug("sqlcmd output", "stdout", strings.TrimSpace(stdout.String()))
	}

	return &ExportResult{
		OutputPath: params.OutputPath,
		Rows:       -1,
	}, nil
}

// buildSqlcmdArgs returns the argument list for a headerless, comma
// separated, whitespace-trimmed export
func buildSqlcmdArgs(params ExportParams) []string {
	args := connectionArgs(params.Connection)
	args = append(args,
		"-i", params.QueryFile, // input query
		"-o", params.OutputPath, // intermediate file
		"-h", "-1", // no column headers
		"-s", ",", // column separator
		"-W",      // strip trailing spaces
		"-m", "1", // error level
	)
	return args
}

func connectionArgs(conn config.Connection) []string {
	var args []string
	if conn.Server != "" {
		args = append(args, "-S", conn.Server)
	}
	if conn.Database != "" {
		args = append(args, "-d", conn.Database)
	}
	if conn.TrustedAuth {
		args = append(args, "-E")
	} else if conn.User != "" {
		args = append(args, "-U", conn.User)
	}
	if conn.LoginTimeout > 0 {
		secs := int(conn.LoginTimeout.Seconds())
		if secs < 1 {
			secs = 1
		}
		args = append(args, "-l", strconv.Itoa(secs))
	}
	return args
}
