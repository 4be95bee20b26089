package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all job settings, populated from environment variables.
type Config struct {
	IncidencePath string
	RainfallPath  string

	OutputPrefix string
	OutputSuffix string
	OutputShards int
	// OutputXLSX, when set, also writes the rows to a workbook at this path.
	OutputXLSX   string

	Workers   int
	BatchSize int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional sinks; each is disabled when its address is empty.
	KafkaBrokers   []string
	KafkaSinkTopic string
	DatabaseURL    string
}

// KafkaEnabled reports whether joined rows should also be published to Kafka.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// PostgresEnabled reports whether joined rows should also be upserted into Postgres.
func (c *Config) PostgresEnabled() bool { return c.DatabaseURL != "" }

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	workers, err := parsePositiveInt("WORKERS", 4)
	if err != nil {
		return nil, err
	}

	shards, err := parseNonNegativeInt("OUTPUT_SHARDS", 1)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		IncidencePath:   sharedcfg.EnvOrDefault("INCIDENCE_PATH", "./database/sample_casos_dengue.txt"),
		RainfallPath:    sharedcfg.EnvOrDefault("RAINFALL_PATH", "./database/sample_chuvas.csv"),
		OutputPrefix:    sharedcfg.EnvOrDefault("OUTPUT_PREFIX", "./database/resultado"),
		OutputSuffix:    sharedcfg.EnvOrDefault("OUTPUT_SUFFIX", ".csv"),
		OutputShards:    shards,
		OutputXLSX:      os.Getenv("OUTPUT_XLSX"),
		Workers:         workers,
		BatchSize:       batchSize,
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		KafkaBrokers:    brokers,
		KafkaSinkTopic:  sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "dengue-rainfall-monthly"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
	}

	if cfg.IncidencePath == "" {
		return nil, errors.New("INCIDENCE_PATH is required")
	}
	if cfg.RainfallPath == "" {
		return nil, errors.New("RAINFALL_PATH is required")
	}
	if cfg.OutputPrefix == "" {
		return nil, errors.New("OUTPUT_PREFIX is required")
	}
	if cfg.OutputXLSX != "" && !strings.EqualFold(filepath.Ext(cfg.OutputXLSX), ".xlsx") {
		return nil, fmt.Errorf("invalid OUTPUT_XLSX: %q must end in .xlsx", cfg.OutputXLSX)
	}
	if cfg.KafkaEnabled() && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_SINK_TOPIC is empty")
	}

	return cfg, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	n, err := parseNonNegativeInt(key, def)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return n, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}
