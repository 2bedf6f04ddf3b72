// Package config loads the settings of a batch run.
package config

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultConcurrency = 4
	DefaultLogLevel    = "info"
	DefaultIDPrefix    = "ncm"
)

var ErrInvalidConfig = errors.New("invalid config")

type S3 struct {
	Endpoint  string `koanf:"endpoint"`
	Region    string `koanf:"region"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Bucket    string `koanf:"bucket"`
	Prefix    string `koanf:"prefix"`
}

type MeiliSearch struct {
	Host     string `koanf:"host"`
	APIKey   string `koanf:"api_key"`
	Index    string `koanf:"index"`
	IDPrefix string `koanf:"id_prefix"`
}

// Config of a batch run. Containers come from InputDir, or from the S3 bucket when it is set.
type Config struct {
	InputDir    string      `koanf:"input_dir"`
	OutputDir   string      `koanf:"output_dir"`
	Concurrency int         `koanf:"concurrency"`
	LimitRate   uint64      `koanf:"limit_rate"`
	SkipTags    bool        `koanf:"skip_tags"`
	CatalogPath string      `koanf:"catalog_path"`
	LogLevel    string      `koanf:"log_level"`
	S3          S3          `koanf:"s3"`
	MeiliSearch MeiliSearch `koanf:"meilisearch"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"output_dir":            ".",
		"concurrency":           DefaultConcurrency,
		"log_level":             DefaultLogLevel,
		"meilisearch.id_prefix": DefaultIDPrefix,
	}
}

// Load merges the defaults, the YAML file at path (skipped when empty) and overrides, later
// sources win. Override keys use "." to reach nested fields, e.g. "s3.bucket".
func Load(path string, overrides map[string]interface{}) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "load defaults")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "load config file %s", path)
		}
	}
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, "load overrides")
		}
	}
	c := new(Config)
	if err := k.Unmarshal("", c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the merged config
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return errors.Wrapf(ErrInvalidConfig, "concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.OutputDir == "" {
		return errors.Wrap(ErrInvalidConfig, "output_dir is empty")
	}
	if c.InputDir == "" && c.S3.Bucket == "" {
		return errors.Wrap(ErrInvalidConfig, "one of input_dir and s3.bucket is required")
	}
	if c.S3.Bucket != "" && (c.S3.AccessKey == "" || c.S3.SecretKey == "") {
		return errors.Wrap(ErrInvalidConfig, "s3 needs access_key and secret_key")
	}
	if c.MeiliSearch.Host != "" {
		if c.MeiliSearch.Index == "" {
			return errors.Wrap(ErrInvalidConfig, "meilisearch.index is empty")
		}
		if c.CatalogPath == "" {
			return errors.Wrap(ErrInvalidConfig, "meilisearch needs catalog_path")
		}
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "log_level: %v", err)
	}
	return nil
}

// UseS3 reports whether containers are listed from a bucket
func (c *Config) UseS3() bool {
	return c.S3.Bucket != ""
}
