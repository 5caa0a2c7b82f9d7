package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/fishai-advisor/internal/infra/config"
)

func TestNewWritesToConfiguredFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advisor.log")
	cfg := &config.Config{Log: config.LogConfig{Level: "debug", File: path}}

	log, cleanup, err := New(cfg)
	require.NoError(t, err)
	log.Debug("fanout check", "key", "value")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"fanout check"`)
	require.Contains(t, string(data), `"service":"fishai-advisor"`)
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	require.Equal(t, "INFO", parseLevel("").Level().String())
	require.Equal(t, "WARN", parseLevel("WARN").Level().String())
}
