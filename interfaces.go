package main

import (
	"context"

	"github.com/alc6/namedump/config"
	"github.com/alc6/namedump/linefilter"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

// ConfigLoader handles reading job definitions
type ConfigLoader interface {
	// Load reads the config at path, empty meaning the default location
	Load(path string) (*config.Config, error)
}

// Exporter runs the first stage of a job and leaves the raw listing in
// job.Intermediate
type Exporter interface {
	// Export runs the job's query
	Export(ctx context.Context, job config.Job) error
}

// OutputCleaner handles turning an intermediate file into the final output
type OutputCleaner interface {
	// Clean filters inPath into outPath
	Clean(inPath, outPath string, mode linefilter.Mode) (linefilter.Stats, error)
}
