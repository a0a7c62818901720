package config

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"featureflow/features"
)

type Config struct {
	Featureflow FeatureflowConfig `yaml:"featureflow"`
	Features    FeaturesConfig    `yaml:"features"`
	Input       InputConfig       `yaml:"input"`
	Output      OutputConfig      `yaml:"output"`
	Storage     StorageConfig     `yaml:"storage"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type FeatureflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// FeaturesConfig selects the features and their parameters. An empty Names
// list means every feature of the chosen mode.
type FeaturesConfig struct {
	Names   []string `yaml:"names"`
	Depth   int      `yaml:"depth"`
	Bps     float64  `yaml:"bps"`
	Workers int      `yaml:"workers"`
}

func (f FeaturesConfig) OrderbookConfig() features.OrderbookConfig {
	return features.OrderbookConfig{Depth: f.Depth, Bps: f.Bps}
}

func (f FeaturesConfig) MarketConfig() features.MarketConfig {
	return features.MarketConfig{Depth: f.Depth, Bps: f.Bps}
}

type InputConfig struct {
	Snapshots  string `yaml:"snapshots"`
	Orderbooks string `yaml:"orderbooks"`
}

type OutputConfig struct {
	Dir         string `yaml:"dir"`
	Compression string `yaml:"compression"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type MetricsConfig struct {
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Region        string `yaml:"region"`
	Namespace     string `yaml:"namespace"`
	DashboardName string `yaml:"dashboard_name"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

func defaultConfig() Config {
	defaults := features.DefaultMarketConfig()
	return Config{
		Features: FeaturesConfig{
			Depth:   defaults.Depth,
			Bps:     defaults.Bps,
			Workers: 4,
		},
		Output: OutputConfig{
			Dir:         "output",
			Compression: "snappy",
		},
		Metrics: MetricsConfig{
			CloudWatch: CloudWatchConfig{Namespace: "FeatureFlow"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	// Read configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := defaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)
	config.Storage.S3.Prefix = strings.Trim(config.Storage.S3.Prefix, "/ ")

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Featureflow.Name == "" {
		return fmt.Errorf("featureflow.name is required")
	}

	if cfg.Featureflow.Version == "" {
		return fmt.Errorf("featureflow.version is required")
	}

	if cfg.Features.Depth <= 0 {
		return fmt.Errorf("features.depth must be greater than 0")
	}

	if math.IsNaN(cfg.Features.Bps) || math.IsInf(cfg.Features.Bps, 0) || cfg.Features.Bps < 0 {
		return fmt.Errorf("features.bps must be a non-negative number")
	}

	if cfg.Features.Workers < 1 {
		return fmt.Errorf("features.workers must be at least 1")
	}

	if cfg.Input.Snapshots == "" && cfg.Input.Orderbooks == "" {
		return fmt.Errorf("input.snapshots or input.orderbooks is required")
	}

	switch strings.ToLower(cfg.Output.Compression) {
	case "", "snappy", "gzip", "uncompressed", "none":
	default:
		return fmt.Errorf("output.compression '%s' is not supported", cfg.Output.Compression)
	}

	if !cfg.Storage.S3.Enabled && IsProductionLike(AppEnvironment()) {
		return fmt.Errorf("storage.s3.enabled is required when APP_ENV is %s", AppEnvironment())
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	if cfg.Metrics.CloudWatch.Enabled && cfg.Metrics.CloudWatch.Region == "" {
		return fmt.Errorf("metrics.cloudwatch.region is required when CloudWatch is enabled")
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
