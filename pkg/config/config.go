// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Postgres, Kafka, Redis, Analyzer, Parser, Fields, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Parser   ParserConfig   `yaml:"parser"`
	Fields   FieldsConfig   `yaml:"fields"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
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

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	RawDocuments    string `yaml:"rawDocuments"`
	ParsedDocuments string `yaml:"parsedDocuments"`
}

// RedisConfig holds Redis connection parameters and the TTL applied to
// stored document properties.
type RedisConfig struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	PoolSize    int           `yaml:"poolSize"`
	PropertyTTL time.Duration `yaml:"propertyTTL"`
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

// AnalyzerConfig controls how accumulated text is split into tokens.
type AnalyzerConfig struct {
	MinWordLen int  `yaml:"minWordLen"`
	MaxWordLen int  `yaml:"maxWordLen"`
	Lowercase  bool `yaml:"lowercase"`
	Tokenize   bool `yaml:"tokenize"`
}

// ParserConfig controls tag handling, diagnostics and parser selection.
type ParserConfig struct {
	DefaultParser      string            `yaml:"defaultParser"`
	CascadeMetaContext bool              `yaml:"cascadeMetaContext"`
	TagAliases         map[string]string `yaml:"tagAliases"`
	XMLClassAttributes []string          `yaml:"xmlClassAttributes"`
	XMLAttributes      []string          `yaml:"xmlAttributes"`
	StrictXML          bool              `yaml:"strictXML"`
	ReportWarnings     bool              `yaml:"reportWarnings"`
	ReportErrors       bool              `yaml:"reportErrors"`
	MaxFileSize        int64             `yaml:"maxFileSize"`
	Workers            int               `yaml:"workers"`
	// MIME maps file extensions (without dot) to MIME types.
	MIME map[string]string `yaml:"mime"`
	// Parsers maps MIME types to parser types (HTML, XML, TXT).
	Parsers map[string]string `yaml:"parsers"`
}

// FieldsConfig declares the MetaNames and Properties recognised in documents.
type FieldsConfig struct {
	MetaNames  []MetaNameConfig `yaml:"metaNames"`
	Properties []PropertyConfig `yaml:"properties"`
}

// MetaNameConfig declares one searchable field.
type MetaNameConfig struct {
	Name  string   `yaml:"name"`
	ID    int      `yaml:"id"`
	Bias  int      `yaml:"bias"`
	Alias []string `yaml:"alias"`
}

// PropertyConfig declares one stored field. IgnoreCase defaults to true.
type PropertyConfig struct {
	Name       string   `yaml:"name"`
	ID         int      `yaml:"id"`
	Type       string   `yaml:"type"`
	IgnoreCase *bool    `yaml:"ignoreCase"`
	Verbatim   bool     `yaml:"verbatim"`
	Sort       bool     `yaml:"sort"`
	Max        int      `yaml:"max"`
	Alias      []string `yaml:"alias"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
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

// Default returns a Config with defaults suitable for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8081,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    10 << 20,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "swish",
			User:            "swish",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "swish-indexer",
			Topics: KafkaTopics{
				RawDocuments:    "documents.raw",
				ParsedDocuments: "documents.parsed",
			},
		},
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			PoolSize:    10,
			PropertyTTL: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
		Analyzer: AnalyzerConfig{
			MinWordLen: 1,
			MaxWordLen: 256,
			Lowercase:  true,
			Tokenize:   true,
		},
		Parser: ParserConfig{
			DefaultParser:      "HTML",
			CascadeMetaContext: true,
			MaxFileSize:        64 << 20,
			Workers:            4,
		},
	}
}

// Validate rejects settings the parser cannot run with.
func (c *Config) Validate() error {
	a := c.Analyzer
	if a.MinWordLen < 1 {
		return fmt.Errorf("analyzer.minWordLen must be at least 1, got %d", a.MinWordLen)
	}
	if a.MaxWordLen < a.MinWordLen {
		return fmt.Errorf("analyzer.maxWordLen (%d) must not be less than minWordLen (%d)", a.MaxWordLen, a.MinWordLen)
	}
	if c.Parser.Workers < 1 {
		return fmt.Errorf("parser.workers must be at least 1, got %d", c.Parser.Workers)
	}
	if c.Parser.MaxFileSize < 0 {
		return fmt.Errorf("parser.maxFileSize must not be negative")
	}
	switch strings.ToUpper(c.Parser.DefaultParser) {
	case "HTML", "XML", "TXT":
	default:
		return fmt.Errorf("parser.defaultParser %q is not one of HTML, XML, TXT", c.Parser.DefaultParser)
	}
	return nil
}

// applyEnvOverrides reads SWISH_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SWISH_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SWISH_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("SWISH_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("SWISH_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("SWISH_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("SWISH_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("SWISH_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SWISH_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SWISH_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SWISH_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SWISH_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("SWISH_ANALYZER_MIN_WORD_LEN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analyzer.MinWordLen = n
		}
	}
	if v := os.Getenv("SWISH_ANALYZER_MAX_WORD_LEN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analyzer.MaxWordLen = n
		}
	}
	if v := os.Getenv("SWISH_PARSER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Parser.Workers = n
		}
	}
	// Numeric levels, any positive value enables reporting.
	if v := os.Getenv("SWISH_PARSER_WARNING"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Parser.ReportWarnings = n > 0
		}
	}
	if v := os.Getenv("SWISH_PARSER_ERROR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Parser.ReportErrors = n > 0
		}
	}
}
