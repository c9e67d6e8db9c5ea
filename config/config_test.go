package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("LOOKUP_CACHE_TTL_MIN", "30")
	t.Setenv("ANALYTICS_TAG_ID", "tag-1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, SinkStore, cfg.Activity.Sink)
	assert.Equal(t, "tbl4SHxj7F31DhCzo", cfg.Airtable.PropertiesTable)
	assert.Equal(t, 30*time.Minute, cfg.Lookup.CacheTTL())
	assert.Equal(t, 15*time.Second, cfg.Lookup.HTTPTimeout())
	assert.Equal(t, "tag-1", cfg.Analytics.TagID)
}

func TestLoadPrefersClarityID(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("NEXT_PUBLIC_CLARITY_ID", "clarity")
	t.Setenv("ANALYTICS_TAG_ID", "tag-1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "clarity", cfg.Analytics.TagID)
}

func TestLoadRejectsBadCombinations(t *testing.T) {
	t.Run("airtable without credentials", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "airtable")
		t.Setenv("AIRTABLE_API_KEY", "")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("queue sink without redis", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "memory")
		t.Setenv("ACTIVITY_SINK", "queue")
		t.Setenv("REDIS_ADDR", "")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "sheets")
		_, err := Load()
		assert.Error(t, err)
	})
}
