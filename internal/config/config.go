// Package config defines all configuration structures for the PatentSentinel
// platform.  No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// DSN assembles a keyword/value PostgreSQL connection string from the
// configured fields.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// RedisConfig holds Redis connection parameters.  Redis backs the results
// cache and the recovery-sweep singleton lock.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Apache Kafka producer parameters for alert dispatch.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	TopicPrefix     string        `mapstructure:"topic_prefix"`
	ProducerRetries int           `mapstructure:"producer_retries"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequiredAcks    int           `mapstructure:"required_acks"`
}

// OpenSearchConfig holds OpenSearch cluster parameters.  OpenSearch is an
// optional corpus backend; when Enabled is false the relational corpus reader
// is used instead.
type OpenSearchConfig struct {
	Enabled            bool     `mapstructure:"enabled"`
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	Index              string   `mapstructure:"index"`
	ScrollSize         int      `mapstructure:"scroll_size"`
}

// ExtractionConfig holds feature-extraction (NLP) service client parameters.
type ExtractionConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
	MaxTextBytes  int           `mapstructure:"max_text_bytes"`
	MinConfidence float64       `mapstructure:"min_confidence"`
}

// AnalysisConfig holds the pipeline tunables that govern similarity scoring
// and risk classification.
type AnalysisConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	InclusionFloorRatio float64 `mapstructure:"inclusion_floor_ratio"`
	TopKeyPhrases       int     `mapstructure:"top_key_phrases"`
	TopMatches          int     `mapstructure:"top_matches"`
	HighCountThreshold  int     `mapstructure:"high_count_threshold"`
	DefaultKeywordSet   string  `mapstructure:"default_keyword_set"`
}

// AlertConfig holds alert rendering and dispatch parameters.
type AlertConfig struct {
	TemplatePath     string   `mapstructure:"template_path"`
	Channels         []string `mapstructure:"channels"` // "email" | "sms" | "in_app"
	MinRiskLevel     string   `mapstructure:"min_risk_level"`
	DashboardBaseURL string   `mapstructure:"dashboard_base_url"`
}

// WorkerConfig holds background-worker execution parameters.
type WorkerConfig struct {
	Concurrency   int           `mapstructure:"concurrency"`
	QueueDepth    int           `mapstructure:"queue_depth"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	StaleJobAge   time.Duration `mapstructure:"stale_job_age"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the entire platform.
// Every infrastructure component and application service reads its settings
// from the relevant sub-struct.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Alert      AlertConfig      `mapstructure:"alert"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Log        LogConfig        `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Database
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("config: database.max_open_conns must be ≥ 1, got %d", c.Database.MaxOpenConns)
	}

	// Redis
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}

	// OpenSearch (only when enabled)
	if c.OpenSearch.Enabled && len(c.OpenSearch.Addresses) == 0 {
		return fmt.Errorf("config: opensearch.addresses must contain at least one address when enabled")
	}

	// Extraction
	if c.Extraction.BaseURL == "" {
		return fmt.Errorf("config: extraction.base_url is required")
	}
	if c.Extraction.MaxAttempts < 1 {
		return fmt.Errorf("config: extraction.max_attempts must be ≥ 1, got %d", c.Extraction.MaxAttempts)
	}
	if c.Extraction.MinConfidence < 0 || c.Extraction.MinConfidence > 1 {
		return fmt.Errorf("config: extraction.min_confidence %.2f is out of range [0, 1]", c.Extraction.MinConfidence)
	}

	// Analysis
	if c.Analysis.SimilarityThreshold <= 0 || c.Analysis.SimilarityThreshold > 1 {
		return fmt.Errorf("config: analysis.similarity_threshold %.2f is out of range (0, 1]", c.Analysis.SimilarityThreshold)
	}
	if c.Analysis.InclusionFloorRatio < 0 || c.Analysis.InclusionFloorRatio > 1 {
		return fmt.Errorf("config: analysis.inclusion_floor_ratio %.2f is out of range [0, 1]", c.Analysis.InclusionFloorRatio)
	}
	if c.Analysis.TopKeyPhrases < 1 {
		return fmt.Errorf("config: analysis.top_key_phrases must be ≥ 1, got %d", c.Analysis.TopKeyPhrases)
	}
	if c.Analysis.TopMatches < 1 {
		return fmt.Errorf("config: analysis.top_matches must be ≥ 1, got %d", c.Analysis.TopMatches)
	}

	// Alert
	switch c.Alert.MinRiskLevel {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("config: alert.min_risk_level %q is invalid; expected low|medium|high", c.Alert.MinRiskLevel)
	}

	// Worker
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be ≥ 1, got %d", c.Worker.Concurrency)
	}
	if c.Worker.QueueDepth < 1 {
		return fmt.Errorf("config: worker.queue_depth must be ≥ 1, got %d", c.Worker.QueueDepth)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
