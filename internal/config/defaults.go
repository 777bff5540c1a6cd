package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultDBHost         = "localhost"
	DefaultDBPort         = 5432
	DefaultDBName         = "patentsentinel"
	DefaultDBMaxOpenConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisTTL       = 15 * time.Minute
	DefaultRedisKeyPrefix = "sentinel"

	DefaultKafkaBroker      = "localhost:9092"
	DefaultKafkaTopicPrefix = "alert.dispatch"

	DefaultExtractionBaseURL       = "http://localhost:8090"
	DefaultExtractionTimeout       = 30 * time.Second
	DefaultExtractionMaxAttempts   = 3
	DefaultExtractionRetryBackoff  = 1 * time.Second
	DefaultExtractionMaxTextBytes  = 5000
	DefaultExtractionMinConfidence = 0.5

	DefaultSimilarityThreshold = 0.8
	DefaultInclusionFloorRatio = 0.5
	DefaultTopKeyPhrases       = 20
	DefaultTopMatches          = 3
	DefaultHighCountThreshold  = 2
	DefaultKeywordSetName      = "artificial_intelligence"

	DefaultAlertTemplatePath = "templates/alert_template.json"
	DefaultAlertMinRiskLevel = "high"
	DefaultAlertDashboardURL = "http://localhost:3000"

	DefaultWorkerConcurrency = 4
	DefaultWorkerQueueDepth  = 64
	DefaultWorkerMaxRetries  = 3
	DefaultRetryBackoff      = 1 * time.Second
	DefaultSweepInterval     = 1 * time.Minute
	DefaultStaleJobAge       = 10 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.  It must run after
// unmarshalling raw config data and before Validate() so that
// optional-but-defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = DefaultDBMaxOpenConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "migrations"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	// DB is an int; 0 is a valid explicit value so we cannot distinguish "not
	// set" from "set to 0".  We leave it as-is (0 is also the default).

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.TopicPrefix == "" {
		cfg.Kafka.TopicPrefix = DefaultKafkaTopicPrefix
	}
	if cfg.Kafka.ProducerRetries == 0 {
		cfg.Kafka.ProducerRetries = 3
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = 50 * time.Millisecond
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = 10 * time.Second
	}

	// ── OpenSearch ────────────────────────────────────────────────────────────
	if cfg.OpenSearch.Index == "" {
		cfg.OpenSearch.Index = "patent-corpus"
	}
	if cfg.OpenSearch.ScrollSize == 0 {
		cfg.OpenSearch.ScrollSize = 200
	}

	// ── Extraction ────────────────────────────────────────────────────────────
	if cfg.Extraction.BaseURL == "" {
		cfg.Extraction.BaseURL = DefaultExtractionBaseURL
	}
	if cfg.Extraction.Timeout == 0 {
		cfg.Extraction.Timeout = DefaultExtractionTimeout
	}
	if cfg.Extraction.MaxAttempts == 0 {
		cfg.Extraction.MaxAttempts = DefaultExtractionMaxAttempts
	}
	if cfg.Extraction.RetryBackoff == 0 {
		cfg.Extraction.RetryBackoff = DefaultExtractionRetryBackoff
	}
	if cfg.Extraction.MaxTextBytes == 0 {
		cfg.Extraction.MaxTextBytes = DefaultExtractionMaxTextBytes
	}
	if cfg.Extraction.MinConfidence == 0 {
		cfg.Extraction.MinConfidence = DefaultExtractionMinConfidence
	}

	// ── Analysis ──────────────────────────────────────────────────────────────
	if cfg.Analysis.SimilarityThreshold == 0 {
		cfg.Analysis.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if cfg.Analysis.InclusionFloorRatio == 0 {
		cfg.Analysis.InclusionFloorRatio = DefaultInclusionFloorRatio
	}
	if cfg.Analysis.TopKeyPhrases == 0 {
		cfg.Analysis.TopKeyPhrases = DefaultTopKeyPhrases
	}
	if cfg.Analysis.TopMatches == 0 {
		cfg.Analysis.TopMatches = DefaultTopMatches
	}
	if cfg.Analysis.HighCountThreshold == 0 {
		cfg.Analysis.HighCountThreshold = DefaultHighCountThreshold
	}
	if cfg.Analysis.DefaultKeywordSet == "" {
		cfg.Analysis.DefaultKeywordSet = DefaultKeywordSetName
	}

	// ── Alert ─────────────────────────────────────────────────────────────────
	if cfg.Alert.TemplatePath == "" {
		cfg.Alert.TemplatePath = DefaultAlertTemplatePath
	}
	if len(cfg.Alert.Channels) == 0 {
		cfg.Alert.Channels = []string{"email", "in_app"}
	}
	if cfg.Alert.MinRiskLevel == "" {
		cfg.Alert.MinRiskLevel = DefaultAlertMinRiskLevel
	}
	if cfg.Alert.DashboardBaseURL == "" {
		cfg.Alert.DashboardBaseURL = DefaultAlertDashboardURL
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.QueueDepth == 0 {
		cfg.Worker.QueueDepth = DefaultWorkerQueueDepth
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = DefaultWorkerMaxRetries
	}
	if cfg.Worker.RetryBackoff == 0 {
		cfg.Worker.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.Worker.SweepInterval == 0 {
		cfg.Worker.SweepInterval = DefaultSweepInterval
	}
	if cfg.Worker.StaleJobAge == 0 {
		cfg.Worker.StaleJobAge = DefaultStaleJobAge
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
