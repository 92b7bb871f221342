package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "crew-events", cfg.KafkaTopic)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, time.Second, cfg.OutboxInterval)
	assert.Equal(t, 5, cfg.MaxJoinedCrews)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CREW_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CREW_MAX_APPLIED_CREWS", "2")
	t.Setenv("CREW_OUTBOX_INTERVAL", "250ms")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2, cfg.MaxAppliedCrews)
	assert.Equal(t, 250*time.Millisecond, cfg.OutboxInterval)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CREW_GCS_BUCKET=crew-icons\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CREW_GCS_BUCKET") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "crew-icons", cfg.GCSBucket)
}

func TestLoad_RejectsNonPositiveLimits(t *testing.T) {
	t.Setenv("CREW_MAX_JOINED_CREWS", "0")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
