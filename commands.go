package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/alc6/namedump/config"
	"github.com/alc6/namedump/exporters"
	"github.com/alc6/namedump/linefilter"
)

var cleanStripAll bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured export jobs and exporters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := NewFileConfigLoader().Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		registry := exporters.NewDefaultRegistry(cfg.SqlcmdPath)
		return writeJobTable(cmd.OutOrStdout(), cfg, registry)
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean [input] [output]",
	Short: "Strip row-count annotations and blank lines from a file",
	Long: `clean runs only the line filter. Missing arguments or "-" read from stdin
and write to stdout.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := linefilter.FirstAnnotation
		if cleanStripAll {
			mode = linefilter.AllAnnotations
		}

		input, output := "-", "-"
		if len(args) > 0 {
			input = args[0]
		}
		if len(args) > 1 {
			output = args[1]
		}
		return cleanStream(cmd.InOrStdin(), cmd.OutOrStdout(), input, output, mode)
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanStripAll, "strip-all", false, "Remove every parenthesized annotation on a line, not just the first")
	rootCmd.AddCommand(listCmd, cleanCmd)
}

func writeJobTable(w io.Writer, cfg *config.Config, registry *exporters.Registry) error {
	source := cfg.Path
	if source == "" {
		source = "built-in defaults"
	}
	fmt.Fprintf(w, "config: %s\n", source)
	fmt.Fprintf(w, "exporter: %s (available: %s)\n", cfg.Exporter, strings.Join(registry.ListAvailable(), ", "))
	fmt.Fprintf(w, "strip mode: %s\n\n", cfg.Mode())

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Job", "Query", "Intermediate", "Output"})
	table.SetAutoWrapText(false)
	for _, job := range cfg.Jobs {
		table.Append([]string{job.Name, job.Query, job.Intermediate, job.Output})
	}
	table.Render()
	return nil
}

// cleanStream filters between files or the given standard streams, "-"
// selecting the stream
func cleanStream(stdin io.Reader, stdout io.Writer, input, output string, mode linefilter.Mode) error {
	if input != "-" && output != "-" {
		_, err := linefilter.CleanFile(input, output, linefilter.WithMode(mode))
		return err
	}

	var r io.Reader = stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		r = f
	}

	if output == "-" {
		_, err := linefilter.Filter(r, stdout, linefilter.WithMode(mode))
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	bw := bufio.NewWriter(f)
	_, err = linefilter.Filter(r, bw, linefilter.WithMode(mode))
	if err == nil {
		err = bw.Flush()
	}
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("failed to close output file: %w", closeErr)
	}
	return err
}
