package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, ":8080", cfg.APIAddr)
	assert.Equal(t, "papercast", cfg.TemporalTaskQueue)
	assert.Equal(t, "local", cfg.BlobStore)
	assert.Equal(t, 3, cfg.SynthesisGate)
	assert.Equal(t, 5, cfg.SynthesisAttempts)
	assert.Equal(t, 4000, cfg.ChunkTokenBudget)
	assert.Equal(t, 3, cfg.MaxScriptRetries)
	assert.Equal(t, 60, cfg.BatchTimeoutMins)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PAPERCAST_GCP_PROJECT", "papercast-prod")
	t.Setenv("PAPERCAST_GCS_BUCKET", "papercast-audio")
	t.Setenv("PAPERCAST_BLOB_STORE", "gcs")
	t.Setenv("PAPERCAST_SYNTHESIS_GATE", "5")
	t.Setenv("PAPERCAST_POSTGRES_MAX_CONNS", "16")

	cfg := Load()
	assert.Equal(t, "papercast-prod", cfg.GCSProject)
	assert.Equal(t, "papercast-audio", cfg.GCSBucket)
	assert.Equal(t, "gcs", cfg.BlobStore)
	assert.Equal(t, 5, cfg.SynthesisGate)
	assert.Equal(t, 16, cfg.PostgresMaxConns)
}

func TestLoadBadIntFallsBack(t *testing.T) {
	t.Setenv("PAPERCAST_SYNTHESIS_GATE", "many")
	cfg := Load()
	assert.Equal(t, 3, cfg.SynthesisGate)
}
