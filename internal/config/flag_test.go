package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_parseFlags_OverridesConfig(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin",
		"-a", ":9999",
		"-d", "postgres://x",
		"-w", "/in",
		"-m", "/mnt/nas",
		"-f", "Films",
		"-n", "/usr/local/bin/mnamer",
		"-s", "10",
		"-j", "8",
	}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, cfg.EndpointAddr, ":9999")
	assert.Equal(t, cfg.DatabaseDSN, "postgres://x")
	assert.Equal(t, cfg.WatchDir, "/in")
	assert.Equal(t, cfg.MountPath, "/mnt/nas")
	assert.Equal(t, cfg.TargetFolder, "Films")
	assert.Equal(t, cfg.RenamerPath, "/usr/local/bin/mnamer")
	assert.Equal(t, cfg.StableInterval, 10*time.Second)
	assert.Equal(t, cfg.WorkerCount, 8)
}

func Test_parseFlags_IgnoresForeignFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin", "-c", "conf.json", "-a", ":7070"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, cfg.EndpointAddr, ":7070")
}
