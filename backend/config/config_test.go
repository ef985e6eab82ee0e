package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("EDIT_WINDOW_DAYS", "")
	t.Setenv("LOOKAHEAD_DAYS", "")
	t.Setenv("REQUEST_TIMEOUT", "")
	t.Setenv("MAX_RANGE_DAYS", "")
	t.Setenv("TIMEZONE", "Pacific/Auckland")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.EditWindowDays)
	assert.Equal(t, 7, cfg.LookaheadDays)
	assert.Equal(t, 366, cfg.MaxRangeDays)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "Pacific/Auckland", cfg.Location().String())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("EDIT_WINDOW_DAYS", "5")
	t.Setenv("MAX_RANGE_DAYS", "0")
	t.Setenv("REQUEST_TIMEOUT", "2s")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 5, cfg.EditWindowDays)
	assert.Zero(t, cfg.MaxRangeDays)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")

	t.Setenv("EDIT_WINDOW_DAYS", "three")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("EDIT_WINDOW_DAYS", "3")
	t.Setenv("REQUEST_TIMEOUT", "soon")
	_, err = LoadConfig()
	assert.Error(t, err)

	t.Setenv("REQUEST_TIMEOUT", "1s")
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err = LoadConfig()
	assert.Error(t, err)
}
