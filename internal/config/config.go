// Package config loads the deployment settings of the popstudy command.
//
// Settings are resolved in three layers: built-in defaults, an optional YAML
// file, then environment overrides:
//
//	POPSTUDY_LOG_LEVEL: debug|info|warn|error (default info)
//	POPSTUDY_LOG_FORMAT: text|json (default text)
//	POPSTUDY_METRICS_ADDR: listen address of `popstudy serve` (default :9464)
//	POPSTUDY_PRIVACY_THRESHOLD: minimum disclosed population (default 10)
//	POPSTUDY_RANK_LIMIT: default ranking length (default 10)
//	POPSTUDY_DATABASE_DRIVER: driver applied to every backend without one
//	POPSTUDY_DATABASE_DSN: DSN applied to every backend without one
//	POPSTUDY_BLOB_DRIVER: memory|s3 (default memory)
//	POPSTUDY_BLOB_S3_BUCKET, POPSTUDY_BLOB_S3_REGION, POPSTUDY_BLOB_S3_ENDPOINT
//	POPSTUDY_BLOB_S3_PATH_STYLE: true to use path-style addressing
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend kinds.
const (
	KindKGenomes = "kgenomes"
	KindTCGA     = "tcga"
	KindGencode  = "gencode"
)

// Estimators.
const (
	EstimatorAlleleCount = "allele_count"
	EstimatorSQL         = "sql"
)

// Backend configures one variant or annotation catalog.
type Backend struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	// Tables overrides catalog table names: metadata and variants for variant
	// catalogs, assembly names for annotation catalogs.
	Tables           map[string]string `yaml:"tables"`
	PrivacyThreshold *int              `yaml:"privacy_threshold"`
	Disabled         bool              `yaml:"disabled"`
}

// Frequency selects the allele frequency estimator.
type Frequency struct {
	Estimator string `yaml:"estimator"`
	// Function is the default engine function when Estimator is sql.
	Function    string            `yaml:"function"`
	PerAssembly map[string]string `yaml:"per_assembly"`
}

// Blob configures the donor export store.
type Blob struct {
	Driver        string        `yaml:"driver"`
	S3Bucket      string        `yaml:"s3_bucket"`
	S3Region      string        `yaml:"s3_region"`
	S3Endpoint    string        `yaml:"s3_endpoint"`
	S3PathStyle   bool          `yaml:"s3_path_style"`
	PresignExpiry time.Duration `yaml:"presign_expiry"`
}

// Config is the full deployment configuration.
type Config struct {
	LogLevel         string    `yaml:"log_level"`
	LogFormat        string    `yaml:"log_format"`
	MetricsAddr      string    `yaml:"metrics_addr"`
	PrivacyThreshold int       `yaml:"privacy_threshold"`
	RankLimit        int       `yaml:"rank_limit"`
	MinGroupSize     int       `yaml:"min_group_size"`
	DefaultAssembly  string    `yaml:"default_assembly"`
	Frequency        Frequency `yaml:"frequency"`
	Sources          []Backend `yaml:"sources"`
	Annotations      []Backend `yaml:"annotations"`
	Blob             Blob      `yaml:"blob"`
}

// Default returns the built-in settings: a local sqlite catalog serving the
// 1000 Genomes, TCGA and GENCODE tables.
func Default() Config {
	return Config{
		LogLevel:         "info",
		LogFormat:        "text",
		MetricsAddr:      ":9464",
		PrivacyThreshold: 10,
		RankLimit:        10,
		DefaultAssembly:  "GRCh38",
		Frequency:        Frequency{Estimator: EstimatorAlleleCount},
		Sources: []Backend{
			{Name: KindKGenomes, Kind: KindKGenomes},
			{Name: KindTCGA, Kind: KindTCGA},
		},
		Annotations: []Backend{
			{Name: KindGencode, Kind: KindGencode},
		},
		Blob: Blob{Driver: "memory", PresignExpiry: 15 * time.Minute},
	}
}

// Load resolves the configuration. An empty path skips the file layer.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = n
		return nil
	}
	str("POPSTUDY_LOG_LEVEL", &cfg.LogLevel)
	str("POPSTUDY_LOG_FORMAT", &cfg.LogFormat)
	str("POPSTUDY_METRICS_ADDR", &cfg.MetricsAddr)
	str("POPSTUDY_BLOB_DRIVER", &cfg.Blob.Driver)
	str("POPSTUDY_BLOB_S3_BUCKET", &cfg.Blob.S3Bucket)
	str("POPSTUDY_BLOB_S3_REGION", &cfg.Blob.S3Region)
	str("POPSTUDY_BLOB_S3_ENDPOINT", &cfg.Blob.S3Endpoint)
	if v := getenv("POPSTUDY_BLOB_S3_PATH_STYLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: POPSTUDY_BLOB_S3_PATH_STYLE: %w", err)
		}
		cfg.Blob.S3PathStyle = b
	}
	if err := num("POPSTUDY_PRIVACY_THRESHOLD", &cfg.PrivacyThreshold); err != nil {
		return err
	}
	if err := num("POPSTUDY_RANK_LIMIT", &cfg.RankLimit); err != nil {
		return err
	}
	driver, dsn := getenv("POPSTUDY_DATABASE_DRIVER"), getenv("POPSTUDY_DATABASE_DSN")
	for _, list := range [][]Backend{cfg.Sources, cfg.Annotations} {
		for i := range list {
			if list[i].Driver == "" {
				list[i].Driver = driver
			}
			if list[i].DSN == "" {
				list[i].DSN = dsn
			}
		}
	}
	return nil
}

// Validate reports every inconsistent setting.
func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: log_format %q", c.LogFormat))
	}
	if c.PrivacyThreshold < 0 {
		errs = append(errs, errors.New("config: privacy_threshold must not be negative"))
	}
	if c.RankLimit < 1 {
		errs = append(errs, errors.New("config: rank_limit must be positive"))
	}
	switch c.Frequency.Estimator {
	case "", EstimatorAlleleCount:
	case EstimatorSQL:
		if c.Frequency.Function == "" && len(c.Frequency.PerAssembly) == 0 {
			errs = append(errs, errors.New("config: frequency.function is required for the sql estimator"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown frequency.estimator %q", c.Frequency.Estimator))
	}
	names := make(map[string]struct{})
	check := func(b Backend, kinds ...string) {
		if b.Name == "" {
			errs = append(errs, errors.New("config: backend without name"))
		}
		if _, dup := names[b.Name]; dup {
			errs = append(errs, fmt.Errorf("config: duplicate backend name %q", b.Name))
		}
		names[b.Name] = struct{}{}
		known := false
		for _, k := range kinds {
			known = known || b.Kind == k
		}
		if !known {
			errs = append(errs, fmt.Errorf("config: backend %s has unsupported kind %q", b.Name, b.Kind))
		}
		switch b.Driver {
		case "", "sqlite", "postgres":
		default:
			errs = append(errs, fmt.Errorf("config: backend %s has unknown driver %q", b.Name, b.Driver))
		}
	}
	for _, s := range c.Sources {
		check(s, KindKGenomes, KindTCGA)
	}
	for _, a := range c.Annotations {
		check(a, KindGencode)
	}
	switch c.Blob.Driver {
	case "", "memory":
	case "s3":
		if c.Blob.S3Bucket == "" {
			errs = append(errs, errors.New("config: blob.s3_bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown blob.driver %q", c.Blob.Driver))
	}
	return errors.Join(errs...)
}

// Threshold returns the privacy threshold of b, falling back to the global one.
func (c Config) Threshold(b Backend) int {
	if b.PrivacyThreshold != nil {
		return *b.PrivacyThreshold
	}
	return c.PrivacyThreshold
}
