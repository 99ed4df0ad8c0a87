package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ACCESS_TOKEN_TTL", "")
	t.Setenv("REFRESH_TOKEN_TTL", "")
	t.Setenv("PUBLIC_DIR", "")
	t.Setenv("SEQUENCE_BACKEND", "")
	t.Setenv("ORDER_NUMBER_LOCATION", "UTC")

	cfg := FromEnv()
	assert.Equal(t, "habitta", cfg.DBName)
	assert.Equal(t, 60*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "./public", cfg.PublicDir)
	assert.Equal(t, SequenceBackendMongo, cfg.SequenceBackend)
	assert.Equal(t, time.UTC, cfg.OrderLocation)
	assert.ElementsMatch(t, []string{"MONGO_URI", "JWT_SECRET"}, cfg.Missing())
}

func TestGetDurationEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL", "-3")
	assert.Equal(t, 20*time.Minute, getDurationEnv("ACCESS_TOKEN_TTL", 20, time.Minute))

	t.Setenv("ACCESS_TOKEN_TTL", "abc")
	assert.Equal(t, 20*time.Minute, getDurationEnv("ACCESS_TOKEN_TTL", 20, time.Minute))

	t.Setenv("ACCESS_TOKEN_TTL", "15")
	assert.Equal(t, 15*time.Minute, getDurationEnv("ACCESS_TOKEN_TTL", 20, time.Minute))
}

func TestUnknownLocationFallsBackToUTC(t *testing.T) {
	t.Setenv("ORDER_NUMBER_LOCATION", "Mars/Olympus")
	loc := getLocationEnv("ORDER_NUMBER_LOCATION", "Europe/Lisbon")
	require.NotNil(t, loc)
	assert.Equal(t, time.UTC, loc)
}
