// Package config loads export job definitions for namedump.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alc6/namedump/linefilter"
)

// DefaultFileName is looked up in the working directory when no config path is given
const DefaultFileName = "namedump.yaml"

// IntermediateSuffix is appended to the output path to name the exporter's raw file
const IntermediateSuffix = ".in"

// Config describes which exporter to use and the jobs to run
type Config struct {
	Exporter   string     `yaml:"exporter"`
	SqlcmdPath string     `yaml:"sqlcmd_path"`
	StripMode  string     `yaml:"strip_mode"`
	Connection Connection `yaml:"connection"`
	Jobs       []Job      `yaml:"jobs"`

	// Path is the file the config was read from, empty for built-in defaults
	Path string `yaml:"-"`
}

// Connection holds the settings passed to the exporter
type Connection struct {
	Server       string        `yaml:"server"`
	Database     string        `yaml:"database"`
	User         string        `yaml:"user"`
	Password     string        `yaml:"password,omitempty"`
	TrustedAuth  bool          `yaml:"trusted_auth"`
	LoginTimeout time.Duration `yaml:"login_timeout"`
	Driver       string        `yaml:"driver"`
	DSN          string        `yaml:"dsn,omitempty"`
}

// Job is a single export: query file in, cleaned CSV out
type Job struct {
	Name         string `yaml:"name"`
	Query        string `yaml:"query"`
	Intermediate string `yaml:"intermediate"`
	Output       string `yaml:"output"`
}

// DefaultJobNames are the listings exported when no config file exists
var DefaultJobNames = []string{"schema_names", "table_names"}

// NewJob builds a job following the <name>.sql -> <name>.csv convention
func NewJob(name string) Job {
	output := name + ".csv"
	return Job{
		Name:         name,
		Query:        name + ".sql",
		Intermediate: output + IntermediateSuffix,
		Output:       output,
	}
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := &Config{
		Exporter:   "sqlcmd",
		SqlcmdPath: "sqlcmd",
		StripMode:  linefilter.FirstAnnotation.String(),
	}
	for _, name := range DefaultJobNames {
		cfg.Jobs = append(cfg.Jobs, NewJob(name))
	}
	return cfg
}

// Load reads the config at path. An empty path falls back to DefaultFileName
// and, when that file does not exist either, to the built-in defaults.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	slog.Debug("loading config", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			slog.Debug("no config file found, using defaults", "path", path)
			cfg := Default()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.Path = path
	cfg.Resolve(filepath.Dir(path))
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	slog.Info("loaded config", "path", path, "jobs", len(cfg.Jobs), "exporter", cfg.Exporter)
	return cfg, nil
}

// Parse decodes YAML and fills in defaults for omitted fields
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if cfg.Exporter == "" {
		cfg.Exporter = "sqlcmd"
	}
	if cfg.SqlcmdPath == "" {
		cfg.SqlcmdPath = "sqlcmd"
	}
	if cfg.StripMode == "" {
		cfg.StripMode = linefilter.FirstAnnotation.String()
	}
	for i := range cfg.Jobs {
		job := &cfg.Jobs[i]
		if job.Query == "" && job.Name != "" {
			job.Query = job.Name + ".sql"
		}
		if job.Output == "" && job.Name != "" {
			job.Output = job.Name + ".csv"
		}
		if job.Intermediate == "" && job.Output != "" {
			job.Intermediate = job.Output + IntermediateSuffix
		}
	}
	return cfg, nil
}

// Resolve makes relative job paths relative to dir
func (c *Config) Resolve(dir string) {
	if dir == "" || dir == "." {
		return
	}
	join := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	for i := range c.Jobs {
		c.Jobs[i].Query = join(c.Jobs[i].Query)
		c.Jobs[i].Intermediate = join(c.Jobs[i].Intermediate)
		c.Jobs[i].Output = join(c.Jobs[i].Output)
	}
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"NAMEDUMP_EXPORTER", &cfg.Exporter},
		{"NAMEDUMP_SERVER", &cfg.Connection.Server},
		{"NAMEDUMP_DATABASE", &cfg.Connection.Database},
		{"NAMEDUMP_USER", &cfg.Connection.User},
		{"NAMEDUMP_PASSWORD", &cfg.Connection.Password},
		{"NAMEDUMP_DSN", &cfg.Connection.DSN},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			slog.Debug("config overridden from environment", "variable", o.env)
			*o.target = v
		}
	}
}

// Validate checks that every job can be run
func (c *Config) Validate() error {
	if len(c.Jobs) == 0 {
		return fmt.Errorf("no jobs configured")
	}
	if _, ok := linefilter.ParseMode(c.StripMode); !ok {
		return fmt.Errorf("unknown strip mode %q (expected first or all)", c.StripMode)
	}

	seen := make(map[string]bool, len(c.Jobs))
	files := make(map[string]string, 2*len(c.Jobs))
	for i, job := range c.Jobs {
		if strings.TrimSpace(job.Name) == "" {
			return fmt.Errorf("job %d has no name", i+1)
		}
		if seen[job.Name] {
			return fmt.Errorf("duplicate job name: %s", job.Name)
		}
		seen[job.Name] = true

		if job.Query == "" {
			return fmt.Errorf("job %s has no query file", job.Name)
		}
		if job.Output == "" {
			return fmt.Errorf("job %s has no output file", job.Name)
		}
		if job.Intermediate == "" {
			return fmt.Errorf("job %s has no intermediate file", job.Name)
		}
		if filepath.Clean(job.Intermediate) == filepath.Clean(job.Output) {
			return fmt.Errorf("job %s writes its intermediate file over the output", job.Name)
		}
		for _, f := range []string{job.Intermediate, job.Output} {
			f = filepath.Clean(f)
			if owner, ok := files[f]; ok {
				return fmt.Errorf("jobs %s and %s both write %s", owner, job.Name, f)
			}
			files[f] = job.Name
		}
	}
	return nil
}

// Mode returns the configured strip mode
func (c *Config) Mode() linefilter.Mode {
	mode, _ := linefilter.ParseMode(c.StripMode)
	return mode
}

// SelectJobs returns the named jobs in the order given, or every job when
// names is empty
func (c *Config) SelectJobs(names []string) ([]Job, error) {
	if len(names) == 0 {
		return c.Jobs, nil
	}

	byName := make(map[string]Job, len(c.Jobs))
	for _, job := range c.Jobs {
		byName[job.Name] = job
	}

	selected := make([]Job, 0, len(names))
	for _, name := range names {
		job, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown job: %s", name)
		}
		selected = append(selected, job)
	}
	return selected, nil
}
