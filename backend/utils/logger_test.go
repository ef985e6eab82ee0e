package utils

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brentedwards-nz/Benefit-sub000/backend/config"
)

func TestInitLoggerJSON(t *testing.T) {
	previous := log.Default()
	t.Cleanup(func() { log.SetDefault(previous) })

	var buf bytes.Buffer
	logger := InitLogger(LoggerConfig{Level: "warn", Format: "json", Output: &buf})

	logger.Info("hidden")
	log.Warn("shown", "client_id", 7)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"client_id":7`)
	assert.Contains(t, out, `"prefix":"benefit"`)
}

func TestInitLoggerDefaultsToInfo(t *testing.T) {
	previous := log.Default()
	t.Cleanup(func() { log.SetDefault(previous) })

	var buf bytes.Buffer
	logger := InitLogger(LoggerConfig{Level: "loud", Output: &buf})
	assert.Equal(t, log.InfoLevel, logger.GetLevel())
}

func TestInitDBRejectsUnknownDriver(t *testing.T) {
	_, err := InitDB(&config.Config{DBDriver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}
