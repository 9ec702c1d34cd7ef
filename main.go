package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath         string
	exporterName       string
	ignoreExportErrors bool
	keepIntermediate   bool
	stripAll           bool
	verbose            bool
	mcpMode            bool
)

var rootCmd = &cobra.Command{
	Use:   "namedump [job...]",
	Short: "Export schema and table name listings to clean CSV files",
	Long: `namedump runs each configured export job: the query file is handed to an
exporter (sqlcmd by default) which writes an intermediate file, then row-count
annotations such as "(3 rows affected)" and blank lines are stripped from it
into the final CSV file. The intermediate file is removed afterwards.

Without arguments every job in the config is run. Without a config file the
schema_names and table_names jobs are run from the working directory.

Modes:
  export mode (default): Runs the configured jobs
  mcp mode (--mcp): Run as Model Context Protocol server`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
	RunE: runNameDump,
}

func main() {
	if err := run(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	setupLogging()
	registerFlags()
	return rootCmd.Execute()
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func registerFlags() {
	flags := rootCmd.PersistentFlags()
	if flags.Lookup("config") == nil {
		flags.StringVarP(&configPath, "config", "c", "", "Path to the job config file (default ./namedump.yaml)")
	}
	if flags.Lookup("verbose") == nil {
		flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	}

	local := rootCmd.Flags()
	if local.Lookup("exporter") == nil {
		local.StringVar(&exporterName, "exporter", "", "Exporter to use, overriding the config (sqlcmd or native)")
	}
	if local.Lookup("ignore-export-errors") == nil {
		local.BoolVar(&ignoreExportErrors, "ignore-export-errors", false, "Clean whatever output exists when the exporter fails")
	}
	if local.Lookup("keep-intermediate") == nil {
		local.BoolVar(&keepIntermediate, "keep-intermediate", false, "Keep the raw exporter output next to the cleaned file")
	}
	if local.Lookup("strip-all") == nil {
		local.BoolVar(&stripAll, "strip-all", false, "Remove every parenthesized annotation on a line, not just the first")
	}
	if local.Lookup("mcp") == nil {
		local.BoolVar(&mcpMode, "mcp", false, "Run as Model Context Protocol server")
	}
}

func runNameDump(cmd *cobra.Command, args []string) error {
	if mcpMode {
		slog.Info("starting mcp server")
		return StartMCPServer()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	return processJobs(ctx, cmd.OutOrStdout(), configPath, args,
		NewFileConfigLoader(), NewExporter, NewFileCleaner(), currentOptions())
}

func currentOptions() pipelineOptions {
	return pipelineOptions{
		Exporter:           exporterName,
		IgnoreExportErrors: ignoreExportErrors,
		KeepIntermediate:   keepIntermediate,
		StripAll:           stripAll,
	}
}
