package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  port: 8081
  mode: "release"
database:
  host: "db.internal"
  port: 5432
  user: "sentinel"
  password: "secret"
  db_name: "patentsentinel"
redis:
  addr: "redis.internal:6379"
kafka:
  brokers: ["kafka.internal:9092"]
extraction:
  base_url: "http://nlp.internal:8090"
analysis:
  similarity_threshold: 0.75
log:
  level: "debug"
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 0.75, cfg.Analysis.SimilarityThreshold)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Unset fields receive defaults.
	assert.Equal(t, DefaultTopKeyPhrases, cfg.Analysis.TopKeyPhrases)
	assert.Equal(t, DefaultWorkerConcurrency, cfg.Worker.Concurrency)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeTempConfig(t, "server: ["))
	require.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	bad := validConfigYAML + "\nworker:\n  concurrency: -2\n"
	_, err := Load(writeTempConfig(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SENTINEL_DATABASE_HOST", "env-db")
	t.Setenv("SENTINEL_SERVER_PORT", "9999")

	cfg, err := Load(writeTempConfig(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, "env-db", cfg.Database.Host)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SENTINEL_DATABASE_USER", "sentinel")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "sentinel", cfg.Database.User)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}

func TestMustLoad_PanicsOnMissingFile(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "missing.yaml"))
	})
}
