package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SIGNED_URL_TTL_HOURS", "")
	t.Setenv("REFEREE_TOKEN_TTL_HOURS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 7*24*time.Hour, cfg.SignedURLTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefereeTokenTTL)
	assert.Equal(t, "proofhire-de-resumes", cfg.S3Bucket)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_BASE_URL", "https://api.proofhire.in/")
	t.Setenv("REFEREE_TOKEN_TTL_HOURS", "48")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, ,kafka-2:9092")
	t.Setenv("RUN_MIGRATIONS", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://api.proofhire.in", cfg.AppBaseURL)
	assert.Equal(t, 48*time.Hour, cfg.RefereeTokenTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.False(t, cfg.RunMigrations)
}

func TestIsProduction(t *testing.T) {
	assert.True(t, (&Config{Environment: "Production"}).IsProduction())
	assert.False(t, (&Config{Environment: "development"}).IsProduction())
}
