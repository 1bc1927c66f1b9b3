// Package config loads and validates analyzer configuration from YAML files
// with .env and environment-variable overrides. It provides typed structs for
// every subsystem (Corpus, Analysis, Relations, Ranking, sinks, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/errors"
)

// Config is the top-level application configuration.
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Relations RelationsConfig `yaml:"relations"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Report    ReportConfig    `yaml:"report"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Publish   PublishConfig   `yaml:"publish"`
}

// CorpusConfig locates the dataset. Root must contain exactly one
// subdirectory per category.
type CorpusConfig struct {
	Root       string   `yaml:"root"`
	Extensions []string `yaml:"extensions"`
}

// AnalysisConfig controls term ordering and tokenisation.
type AnalysisConfig struct {
	Locale        string `yaml:"locale"`
	Tokenizer     string `yaml:"tokenizer"`
	MaxTermLength int    `yaml:"maxTermLength"`
}

// RelationsConfig selects which relation orders are enumerated.
type RelationsConfig struct {
	Orders          []int `yaml:"orders"`
	DistinctTargets bool  `yaml:"distinctTargets"`
	Parallel        bool  `yaml:"parallel"`
}

type RankingConfig struct {
	TopK     int  `yaml:"topK"`
	Parallel bool `yaml:"parallel"`
}

type ReportConfig struct {
	Format string `yaml:"format"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	TTL      time.Duration `yaml:"ttl"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// PublishConfig controls retries around report sinks.
type PublishConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Retry   RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts  int           `yaml:"maxAttempts"`
	InitialDelay time.Duration `yaml:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay"`
}

// Load reads a .env file and a YAML config file (if provided) and applies
// environment-variable overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the stock configuration: Turkish
// collation, whitespace tokens of at most 25 bytes, top 5 per category.
func Default() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Root:       "dataset",
			Extensions: []string{".txt"},
		},
		Analysis: AnalysisConfig{
			Locale:        "tr_TR.utf8",
			Tokenizer:     "raw",
			MaxTermLength: 25,
		},
		Relations: RelationsConfig{
			Orders:   []int{1, 2, 3},
			Parallel: true,
		},
		Ranking: RankingConfig{
			TopK:     5,
			Parallel: true,
		},
		Report: ReportConfig{
			Format: "text",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "cooccurrence-reports",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			TTL:      24 * time.Hour,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "cooccurrence",
			User:            "cooccurrence",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Publish: PublishConfig{
			Timeout: 30 * time.Second,
			Retry: RetryConfig{
				MaxAttempts:  3,
				InitialDelay: 100 * time.Millisecond,
				MaxDelay:     5 * time.Second,
			},
		},
	}
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Corpus.Root == "" {
		return apperrors.New(apperrors.ErrInvalidInput, apperrors.ExitInvalidInput, "corpus root is empty")
	}
	if c.Analysis.MaxTermLength < utf8.UTFMax {
		return apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitInvalidInput,
			"maxTermLength must be at least %d bytes, got %d", utf8.UTFMax, c.Analysis.MaxTermLength)
	}
	switch c.Analysis.Tokenizer {
	case "raw", "normalized":
	default:
		return apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitInvalidInput,
			"unknown tokenizer %q", c.Analysis.Tokenizer)
	}
	for _, order := range c.Relations.Orders {
		if order < 1 || order > 3 {
			return apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitInvalidInput,
				"relation order %d out of range 1..3", order)
		}
	}
	if c.Ranking.TopK < 0 {
		return apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitInvalidInput,
			"topK must not be negative, got %d", c.Ranking.TopK)
	}
	switch c.Report.Format {
	case "text", "json":
	default:
		return apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitInvalidInput,
			"unknown report format %q", c.Report.Format)
	}
	return nil
}

// applyEnvOverrides reads CA_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CA_CORPUS_ROOT"); v != "" {
		cfg.Corpus.Root = v
	}
	if v := os.Getenv("CA_ANALYSIS_LOCALE"); v != "" {
		cfg.Analysis.Locale = v
	}
	if v := os.Getenv("CA_ANALYSIS_TOKENIZER"); v != "" {
		cfg.Analysis.Tokenizer = v
	}
	if v := os.Getenv("CA_RANKING_TOPK"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			cfg.Ranking.TopK = k
		}
	}
	if v := os.Getenv("CA_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CA_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CA_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
			cfg.Metrics.Enabled = true
		}
	}
	if v := os.Getenv("CA_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
		cfg.Kafka.Enabled = true
	}
	if v := os.Getenv("CA_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("CA_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("CA_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
		cfg.Postgres.Enabled = true
	}
	if v := os.Getenv("CA_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("CA_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("CA_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("CA_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
}
