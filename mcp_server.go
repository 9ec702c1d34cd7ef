package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/alc6/namedump/linefilter"
)

// StartMCPServer starts the MCP server for name exports
func StartMCPServer() error {
	s := server.NewMCPServer(
		"namedump",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	exportNamesTool := mcp.NewTool("export_names",
		mcp.WithDescription("Run export jobs and return the cleaned CSV listings"),
		mcp.WithString("job",
			mcp.Description("Job name to run (default: every configured job)"),
		),
		mcp.WithString("config_path",
			mcp.Description("Path to the job config file (default: ./namedump.yaml)"),
		),
		mcp.WithString("exporter",
			mcp.Description("Exporter overriding the config"),
			mcp.Enum("sqlcmd", "native"),
		),
	)

	s.AddTool(exportNamesTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleExportNames(ctx, request)
	})

	cleanTextTool := mcp.NewTool("clean_text",
		mcp.WithDescription("Strip parenthesized row-count annotations and blank lines from text"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Raw client output, one record per line"),
		),
		mcp.WithString("mode",
			mcp.Description("'first' removes the first annotation per line (default), 'all' removes every one"),
			mcp.Enum("first", "all"),
		),
	)

	s.AddTool(cleanTextTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCleanText(ctx, request)
	})

	listJobsTool := mcp.NewTool("list_jobs",
		mcp.WithDescription("Describe the configured export jobs without running them"),
		mcp.WithString("config_path",
			mcp.Description("Path to the job config file (default: ./namedump.yaml)"),
		),
	)

	s.AddTool(listJobsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListJobs(ctx, request)
	})

	slog.Info("starting namedump mcp server")
	return server.ServeStdio(s)
}

// handleExportNames processes the export_names tool request
func handleExportNames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	job := request.GetString("job", "")
	cfgPath := request.GetString("config_path", "")
	exporter := request.GetString("exporter", "")

	output, err := exportNamesCore(ctx, cfgPath, job, exporter)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("export completed successfully:\n\n%s", output)), nil
}

// exportNamesCore wires the real dependencies into exportNamesCoreWithDeps
func exportNamesCore(ctx context.Context, cfgPath, job, exporter string) (string, error) {
	return exportNamesCoreWithDeps(ctx, cfgPath, job, pipelineOptions{Exporter: exporter},
		NewFileConfigLoader(), NewExporter, NewFileCleaner())
}

// exportNamesCoreWithDeps is the testable version with dependency injection.
// Progress lines are discarded since stdout carries the protocol.
func exportNamesCoreWithDeps(ctx context.Context, cfgPath, job string, opts pipelineOptions,
	loader ConfigLoader, newExporter exporterFactory, cleaner OutputCleaner) (string, error) {
	var names []string
	if job != "" {
		names = []string{job}
	}

	cfg, jobs, err := loadJobs(loader, cfgPath, names)
	if err != nil {
		return "", err
	}

	if err := runJobs(ctx, io.Discard, cfg, jobs, newExporter, cleaner, opts); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, j := range jobs {
		content, err := os.ReadFile(j.Output)
		if err != nil {
			return "", fmt.Errorf("failed to read output of job %s: %w", j.Name, err)
		}
		sb.WriteString(fmt.Sprintf("== %s (%s) ==\n", j.Name, j.Output))
		sb.Write(content)
		if len(content) > 0 && content[len(content)-1] != '\n' {
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// handleCleanText processes the clean_text tool request
func handleCleanText(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text parameter is required"), nil
	}

	output, err := cleanTextCore(text, request.GetString("mode", "first"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(output), nil
}

// cleanTextCore runs the line filter over text
func cleanTextCore(text, modeName string) (string, error) {
	mode, ok := linefilter.ParseMode(modeName)
	if !ok {
		return "", fmt.Errorf("unknown mode: %s", modeName)
	}

	var sb strings.Builder
	if _, err := linefilter.Filter(strings.NewReader(text), &sb, linefilter.WithMode(mode)); err != nil {
		return "", fmt.Errorf("failed to clean text: %w", err)
	}
	return sb.String(), nil
}

// handleListJobs processes the list_jobs tool request
func handleListJobs(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	output, err := listJobsCore(NewFileConfigLoader(), request.GetString("config_path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("configured jobs:\n\n%s", output)), nil
}

// listJobsCore describes the configured jobs as JSON
func listJobsCore(loader ConfigLoader, cfgPath string) (string, error) {
	cfg, err := loader.Load(cfgPath)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	jobs := make([]map[string]any, len(cfg.Jobs))
	for i, job := range cfg.Jobs {
		jobs[i] = map[string]any{
			"name":         job.Name,
			"query":        job.Query,
			"intermediate": job.Intermediate,
			"output":       job.Output,
		}
	}

	result := map[string]any{
		"exporter":   cfg.Exporter,
		"strip_mode": cfg.Mode().String(),
		"job_count":  len(cfg.Jobs),
		"jobs":       jobs,
	}

	jsonOutput, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result to JSON: %w", err)
	}

	return string(jsonOutput), nil
}
