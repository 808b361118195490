// Package config loads and validates the run configuration from YAML with
// SEQREPORT_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root run configuration.
type Config struct {
	AnalysisDirs []string `yaml:"analysis_dirs"`
	Output       Output   `yaml:"output"`
	Samples      Samples  `yaml:"samples"`
	Patterns     Patterns `yaml:"patterns"`
	Artifact     Artifact `yaml:"artifact"`
	Publish      Publish  `yaml:"publish"`
	Archive      Archive  `yaml:"archive"`
	Logging      Logging  `yaml:"logging"`
	Metrics      Metrics  `yaml:"metrics"`
}

// Output controls report naming and data-file formats.
type Output struct {
	Title      string `yaml:"title"`
	Prefix     string `yaml:"prefix"`
	DataFormat string `yaml:"data_format"` // json, tsv or both
}

// Samples holds sample-name cleaning and exclusion rules.
type Samples struct {
	TrimExtensions []string `yaml:"trim_extensions"`
	PrependDirs    bool     `yaml:"prepend_dirs"`
	Ignore         []string `yaml:"ignore"`
}

// Patterns locates the search-pattern registry and bounds discovery.
type Patterns struct {
	File       string   `yaml:"file"`
	IgnoreDirs []string `yaml:"ignore_dirs"`
	MaxBytes   int64    `yaml:"max_bytes"`
}

// Artifact selects the store the rendered report is written to.
type Artifact struct {
	Driver string `yaml:"driver"` // fs, s3 or memory
	FSRoot string `yaml:"fs_root"`
	S3     S3     `yaml:"s3"`
}

// S3 holds S3 or MinIO connection settings.
type S3 struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
	Prefix    string `yaml:"prefix"`
}

// Publish selects the secondary store finished runs are copied to when
// publishing is requested. An empty driver disables publishing.
type Publish struct {
	Driver string `yaml:"driver"` // fs, s3 or memory; empty disables
	FSRoot string `yaml:"fs_root"`
	S3     S3     `yaml:"s3"`
}

// Archive selects the provenance archive backend.
type Archive struct {
	Driver      string `yaml:"driver"` // memory, sqlite or postgres
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Logging configures the zap logger.
type Logging struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Metrics selects the metrics exporter.
type Metrics struct {
	Exporter string `yaml:"exporter"` // expvar, prometheus or none
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Output: Output{
			Title:      "seqreport",
			Prefix:     "runs",
			DataFormat: "json",
		},
		Samples: Samples{
			TrimExtensions: []string{
				".json", ".txt", ".log", ".vcf", ".vcf.gz", ".bam", ".sam",
				".fastq", ".fastq.gz", ".fq", ".fq.gz", "_trimmed",
			},
		},
		Patterns: Patterns{
			IgnoreDirs: []string{".git", "work", "tmp"},
			MaxBytes:   10 << 20,
		},
		Artifact: Artifact{Driver: "fs", FSRoot: "seqreport_data"},
		Archive:  Archive{Driver: "memory", SQLitePath: "seqreport.db"},
		Logging:  Logging{Level: "info"},
		Metrics:  Metrics{Exporter: "expvar"},
	}
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result. An empty path yields the defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}
	applyEnv(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(c *Config) {
	if v := os.Getenv("SEQREPORT_OUTPUT_PREFIX"); v != "" {
		c.Output.Prefix = v
	}
	if v := os.Getenv("SEQREPORT_DATA_FORMAT"); v != "" {
		c.Output.DataFormat = v
	}
	if v := os.Getenv("SEQREPORT_ARTIFACT_DRIVER"); v != "" {
		c.Artifact.Driver = v
	}
	if v := os.Getenv("SEQREPORT_ARTIFACT_FS_ROOT"); v != "" {
		c.Artifact.FSRoot = v
	}
	if v := os.Getenv("SEQREPORT_PUBLISH_DRIVER"); v != "" {
		c.Publish.Driver = v
	}
	if v := os.Getenv("SEQREPORT_ARCHIVE_DRIVER"); v != "" {
		c.Archive.Driver = v
	}
	if v := os.Getenv("SEQREPORT_ARCHIVE_SQLITE_PATH"); v != "" {
		c.Archive.SQLitePath = v
	}
	if v := os.Getenv("SEQREPORT_ARCHIVE_POSTGRES_DSN"); v != "" {
		c.Archive.PostgresDSN = v
	}
	if v := os.Getenv("SEQREPORT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func validate(c *Config) error {
	switch c.Output.DataFormat {
	case "json", "tsv", "both":
	default:
		return fmt.Errorf("output.data_format must be json, tsv or both, got %q", c.Output.DataFormat)
	}
	switch c.Artifact.Driver {
	case "fs", "s3", "memory":
	default:
		return fmt.Errorf("artifact.driver must be fs, s3 or memory, got %q", c.Artifact.Driver)
	}
	if c.Artifact.Driver == "s3" && c.Artifact.S3.Bucket == "" {
		return fmt.Errorf("artifact.s3.bucket is required for the s3 driver")
	}
	switch c.Publish.Driver {
	case "", "fs", "s3", "memory":
	default:
		return fmt.Errorf("publish.driver must be fs, s3 or memory, got %q", c.Publish.Driver)
	}
	if c.Publish.Driver == "s3" && c.Publish.S3.Bucket == "" {
		return fmt.Errorf("publish.s3.bucket is required for the s3 driver")
	}
	switch c.Archive.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("archive.driver must be memory, sqlite or postgres, got %q", c.Archive.Driver)
	}
	if c.Archive.Driver == "postgres" && c.Archive.PostgresDSN == "" {
		return fmt.Errorf("archive.postgres_dsn is required for the postgres driver")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Metrics.Exporter {
	case "", "none", "expvar", "prometheus":
	default:
		return fmt.Errorf("metrics.exporter must be expvar, prometheus or none, got %q", c.Metrics.Exporter)
	}
	if c.Patterns.MaxBytes <= 0 {
		c.Patterns.MaxBytes = 10 << 20
	}
	return nil
}
