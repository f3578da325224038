package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_OverridesMentionedFieldsOnly(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{
		"endpoint_addr":        ":9090",
		"database_dsn":         "postgres://mc:mc@db:5432/mc",
		"watch_dir":            "/data/incoming",
		"stable_interval":      "5s",
		"min_file_size":        1024,
		"exclude_patterns":     []string{"*.crdownload"},
		"renamer_timeout":      "90s",
		"check_similar":        false,
		"similarity_threshold": 0.8,
	})

	os.Args = []string{"testbin", "-config", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, cfg.EndpointAddr, ":9090")
	assert.Equal(t, cfg.DatabaseDSN, "postgres://mc:mc@db:5432/mc")
	assert.Equal(t, cfg.WatchDir, "/data/incoming")
	assert.Equal(t, cfg.StableInterval, 5*time.Second)
	assert.Equal(t, cfg.MinFileSize, int64(1024))
	assert.Equal(t, cfg.ExcludePatterns, []string{"*.crdownload"})
	assert.Equal(t, cfg.RenamerTimeout, 90*time.Second)
	assert.False(t, cfg.CheckSimilar)
	assert.Equal(t, cfg.SimilarityThreshold, 0.8)

	// fields absent from the file keep their defaults
	assert.Equal(t, cfg.MountPath, "/mnt/share")
	assert.Equal(t, cfg.VersionFormat, ".v{number}")
	assert.True(t, cfg.WatchRecursive)
}

func Test_parseJson_NoFileFlagIsNoop(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, cfg.EndpointAddr, ":8080")
}

func Test_parseJson_PanicsOnBrokenFile(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	os.Args = []string{"testbin", "-c", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	require.Panics(t, func() { parseJson(cfg) })
}
