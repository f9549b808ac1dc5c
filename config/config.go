package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Non-convertible file policies. "route" claims files that the
// converter cannot handle and passes them through to the done prefix
// untouched; "ignore" leaves them in the intake prefix unclaimed.
const (
	NonConvertibleRoute  = "route"
	NonConvertibleIgnore = "ignore"
)

// Config carries every setting the pipeline needs. It is constructed
// once at startup and passed into each component; nothing reads the
// process environment after Load returns.
type Config struct {
	StorageType string `yaml:"storageType"`
	Endpoint    string `yaml:"endpoint"`
	Region      string `yaml:"region"`
	AccessKey   string `yaml:"accessKey"`
	SecretKey   string `yaml:"secretKey"`
	UseSSL      bool   `yaml:"useSSL"`
	Bucket      string `yaml:"bucket"`

	// PollInterval is derived from PollSeconds; YAML and the
	// POLL_INTERVAL variable both speak whole seconds
	PollInterval time.Duration `yaml:"-"`
	PollSeconds  int           `yaml:"pollSeconds,omitempty"`

	IntakePrefix string `yaml:"intakePrefix"`
	DonePrefix   string `yaml:"donePrefix"`
	ErrorPrefix  string `yaml:"errorPrefix"`
	JSONPrefix   string `yaml:"jsonPrefix"`

	NonConvertible  string `yaml:"nonConvertible"`
	RecoverOrphans  bool   `yaml:"recoverOrphans"`
	MaxPollFailures int    `yaml:"maxPollFailures"`

	HTTPAddr string `yaml:"httpAddr"`
	LogLevel string `yaml:"logLevel"`
}

func defaults() *Config {
	return &Config{
		StorageType:    "minio",
		Region:         "us-east-1",
		Bucket:         "invoices",
		PollInterval:   3 * time.Second,
		IntakePrefix:   "intake/",
		DonePrefix:     "done/",
		ErrorPrefix:    "error/",
		JSONPrefix:     "json/",
		NonConvertible: NonConvertibleRoute,
		RecoverOrphans: true,
		LogLevel:       "info",
	}
}

// Load builds the configuration. Precedence, lowest to highest:
// built-in defaults, the YAML file named by CONFIG_FILE (if any),
// environment variables (a .env file is loaded first when present).
func Load() (*Config, error) {
	// a .env file is optional; plain environment variables still apply
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if cfg.PollSeconds > 0 {
			cfg.PollInterval = time.Duration(cfg.PollSeconds) * time.Second
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.StorageType, "STORAGE_TYPE")
	setString(&cfg.Endpoint, "S3_ENDPOINT_URL")
	setString(&cfg.Region, "S3_DEFAULT_REGION")
	setString(&cfg.AccessKey, "S3_ACCESS_KEY_ID")
	setString(&cfg.SecretKey, "S3_SECRET_ACCESS_KEY")
	setBool(&cfg.UseSSL, "S3_USE_SSL")
	setString(&cfg.Bucket, "SOURCE_BUCKET")

	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.PollInterval = time.Duration(secs) * time.Second
		}
	}

	setString(&cfg.IntakePrefix, "INTAKE_PREFIX")
	setString(&cfg.DonePrefix, "DONE_PREFIX")
	setString(&cfg.ErrorPrefix, "ERROR_PREFIX")
	setString(&cfg.JSONPrefix, "JSON_PREFIX")

	setString(&cfg.NonConvertible, "NON_CONVERTIBLE")
	setBool(&cfg.RecoverOrphans, "RECOVER_ORPHANS")
	if v := os.Getenv("MAX_POLL_FAILURES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxPollFailures = n
		}
	}

	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// Validate checks required fields and normalizes prefixes
func (c *Config) Validate() error {
	if c.AccessKey == "" || c.SecretKey == "" {
		return fmt.Errorf("missing store credentials: S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("bucket name must not be empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	switch c.NonConvertible {
	case NonConvertibleRoute, NonConvertibleIgnore:
	default:
		return fmt.Errorf("invalid non-convertible policy %q: must be %q or %q",
			c.NonConvertible, NonConvertibleRoute, NonConvertibleIgnore)
	}

	for _, p := range []*string{&c.IntakePrefix, &c.DonePrefix, &c.ErrorPrefix, &c.JSONPrefix} {
		if *p == "" {
			return fmt.Errorf("namespace prefixes must not be empty")
		}
		if !strings.HasSuffix(*p, "/") {
			*p += "/"
		}
	}
	return nil
}
