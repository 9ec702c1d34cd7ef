package exporters

import (
	"context"
	"sort"

	"github.com/alc6/namedump/config"
)

// Exporter defines the interface for the first stage of a job: running a
// query and writing the raw listing to an intermediate file
type Exporter interface {
	// Name returns the exporter name used in configuration
	Name() string

	// Export runs the query and writes the raw result to params.OutputPath
	// The context allows for cancellation and timeout control
	Export(ctx context.Context, params ExportParams) (*ExportResult, error)

	// IsAvailable checks if this exporter can be used in the current environment
	IsAvailable() bool
}

// ExportParams contains parameters needed for a single export
type ExportParams struct {
	// QueryFile is the path of the .sql file to run
	QueryFile string

	// OutputPath is where the raw listing is written
	OutputPath string

	// Connection selects the database to query
	Connection config.Connection
}

// ExportResult describes the intermediate file that was produced
type ExportResult struct {
	// OutputPath is the file written by the exporter
	OutputPath string

	// Rows is the number of records exported, -1 when the exporter cannot tell
	Rows int
}

// Registry manages available exporters
type Registry struct {
	exporters map[string]Exporter
}

// NewRegistry creates a new exporter registry
func NewRegistry() *Registry {
	return &Registry{
		exporters: make(map[string]Exporter),
	}
}

// NewDefaultRegistry registers every exporter namedump ships with
func NewDefaultRegistry(sqlcmdPath string) *Registry {
	r := NewRegistry()
	r.Register(NewSqlcmdExporter(sqlcmdPath))
	r.Register(NewNativeExporter())
	return r
}

// Register adds an exporter to the registry
func (r *Registry) Register(exporter Exporter) {
	r.exporters[exporter.Name()] = exporter
}

// Get retrieves an exporter by name
func (r *Registry) Get(name string) (Exporter, bool) {
	exporter, exists := r.exporters[name]
	return exporter, exists
}

// Names returns every registered exporter name, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.exporters))
	for name := range r.exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListAvailable returns all available exporters, sorted by name
func (r *Registry) ListAvailable() []string {
	var available []string
	for _, name := range r.Names() {
		if r.exporters[name].IsAvailable() {
			available = append(available, name)
		}
	}
	return available
}
