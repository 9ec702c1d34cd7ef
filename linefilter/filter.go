// Package linefilter cleans the text produced by database command-line
// clients: it strips parenthesized annotations such as "(3 rows affected)"
// and drops the lines left empty.
package linefilter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Stats summarizes a single filter pass
type Stats struct {
	LinesRead    int
	LinesWritten int
	LinesDropped int
	Annotations  int
}

type options struct {
	mode Mode
}

// Option configures a filter pass
type Option func(*options)

// WithMode selects how many annotations are removed per line
func WithMode(mode Mode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// Filter copies r to w line by line, stripping annotations and dropping
// lines that end up blank. Retained lines keep their original terminator.
func Filter(r io.Reader, w io.Writer, opts ...Option) (Stats, error) {
	o := options{mode: FirstAnnotation}
	for _, opt := range opts {
		opt(&o)
	}

	var stats Stats
	br := bufio.NewReader(r)
	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return stats, fmt.Errorf("failed to read line %d: %w", stats.LinesRead+1, readErr)
		}

		if line != "" {
			stats.LinesRead++
			cleaned, removed := strip(line, o.mode)
			stats.Annotations += removed

			if IsBlank(cleaned) {
				stats.LinesDropped++
			} else {
				if _, err := io.WriteString(w, cleaned); err != nil {
					return stats, fmt.Errorf("failed to write line %d: %w", stats.LinesRead, err)
				}
				stats.LinesWritten++
			}
		}

		if readErr != nil {
			return stats, nil
		}
	}
}

// CleanFile filters inPath into outPath. The output file is fully written
// and closed before CleanFile returns successfully.
func CleanFile(inPath, outPath string, opts ...Option) (stats Stats, err error) {
	slog.Debug("cleaning file", "input", inPath, "output", outPath)

	if filepath.Clean(inPath) == filepath.Clean(outPath) {
		return stats, fmt.Errorf("input and output are the same file: %s", inPath)
	}

	in, err := os.Open(inPath)
	if err != nil {
		return stats, fmt.Errorf("failed to open input file: %w", err)
	}
	defer in.Close()

	if inInfo, err := in.Stat(); err == nil {
		if outInfo, err := os.Stat(outPath); err == nil && os.SameFile(inInfo, outInfo) {
			return stats, fmt.Errorf("input and output are the same file: %s", outPath)
		}
	}

	out, err := os.Create(outPath)
	if err != nil {
		return stats, fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", closeErr)
		}
	}()

	bw := bufio.NewWriter(out)
	stats, err = Filter(in, bw, opts...)
	if err != nil {
		return stats, err
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("failed to flush output file: %w", err)
	}

	slog.Debug("file cleaned",
		"output", outPath,
		"read", stats.LinesRead,
		"written", stats.LinesWritten,
		"dropped", stats.LinesDropped)
	return stats, nil
}
