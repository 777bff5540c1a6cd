// Package config provides configuration loading, defaults, and validation for
// the PatentSentinel platform.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all platform settings.
const envPrefix = "SENTINEL"

// configKeys enumerates every settable configuration key.  Viper only
// unmarshals keys it knows about, so each key is bound explicitly; without
// this, values supplied solely through environment variables would be
// silently dropped.
var configKeys = []string{
	"server.port", "server.mode", "server.read_timeout", "server.write_timeout",
	"server.shutdown_timeout",

	"database.host", "database.port", "database.user", "database.password",
	"database.db_name", "database.ssl_mode", "database.max_open_conns",
	"database.max_idle_conns", "database.conn_max_lifetime", "database.migration_path",

	"redis.addr", "redis.password", "redis.db", "redis.pool_size",
	"redis.dial_timeout", "redis.read_timeout", "redis.write_timeout",
	"redis.default_ttl", "redis.key_prefix",

	"kafka.brokers", "kafka.topic_prefix", "kafka.producer_retries",
	"kafka.batch_timeout", "kafka.write_timeout", "kafka.required_acks",

	"opensearch.enabled", "opensearch.addresses", "opensearch.user",
	"opensearch.password", "opensearch.insecure_skip_verify",
	"opensearch.index", "opensearch.scroll_size",

	"extraction.base_url", "extraction.timeout", "extraction.max_attempts",
	"extraction.retry_backoff", "extraction.max_text_bytes", "extraction.min_confidence",

	"analysis.similarity_threshold", "analysis.inclusion_floor_ratio",
	"analysis.top_key_phrases", "analysis.top_matches",
	"analysis.high_count_threshold", "analysis.default_keyword_set",

	"alert.template_path", "alert.channels", "alert.min_risk_level",
	"alert.dashboard_base_url",

	"worker.concurrency", "worker.queue_depth", "worker.max_retries",
	"worker.retry_backoff", "worker.sweep_interval", "worker.stale_job_age",

	"log.level", "log.format", "log.output",
}

// newViper builds a pre-configured Viper instance with the platform's standard
// settings: YAML file type, SENTINEL_ env prefix, automatic env binding, and a
// key replacer that maps "." → "_" so that nested keys like "database.host"
// resolve to "SENTINEL_DATABASE_HOST".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range configKeys {
		// BindEnv with a single argument derives the variable name from the
		// prefix and replacer configured above.
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads the YAML file at configPath, merges any SENTINEL_* environment
// variable overrides, applies platform defaults for unset fields, and
// validates the result.  It returns a fully-populated *Config or a
// descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from SENTINEL_* environment variables,
// with no config file required.  This is the preferred loading strategy for
// containerised (12-factor) deployments.
//
// Environment variable naming convention:
//
//	SENTINEL_<SECTION>_<FIELD>   e.g.  SENTINEL_DATABASE_HOST, SENTINEL_REDIS_ADDR
func LoadFromEnv() (*Config, error) {
	v := newViper()
	// No config file — rely solely on env vars and defaults.
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  It is intended for
// hot-reloading non-critical settings such as log level and analysis
// thresholds; callers are responsible for applying only the safe subset of
// changes at runtime.
//
// Watch is non-blocking; it starts a background goroutine managed by viper.
// If the changed file fails to parse or validate, onChange is NOT called.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read — errors are ignored here; callers should call Load first.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			// Config change produced an invalid config; skip the callback to
			// prevent the application from entering a broken state.
			return
		}
		onChange(cfg)
	})
}

// MustLoad is a convenience wrapper around Load that panics on any error.
// It is intended for use in main() where a config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
