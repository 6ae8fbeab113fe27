package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paylist-tw/docsearch/pkg/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "data/index", cfg.Index.Dir)
	assert.Equal(t, 4, cfg.Extract.Workers)
	assert.Equal(t, 20, cfg.Search.DefaultLimit)
	assert.Equal(t, "reindex-request", cfg.Kafka.Topics.ReindexRequest)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
index:
  dir: /var/lib/docsearch/index
extract:
  sourceDir: /srv/documents
  workers: 8
logging:
  level: debug
  format: text
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/docsearch/index", cfg.Index.Dir)
	assert.Equal(t, "/srv/documents", cfg.Extract.SourceDir)
	assert.Equal(t, 8, cfg.Extract.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, 20, cfg.Search.DefaultLimit)
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	t.Setenv("FS_INDEX_DIR", "/env/index")
	t.Setenv("FS_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "/env/index", cfg.Index.Dir)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t,
		"host=localhost port=5432 user=docsearch password=localdev dbname=docsearch sslmode=disable",
		cfg.Postgres.DSN())
}
