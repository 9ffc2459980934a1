package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_DRIVER", "RANK_LIMIT", "KAFKA_ENABLED", "SESSION_TTL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 10, cfg.RankLimit)
	assert.Equal(t, 5, cfg.RecommendLimit)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("RANK_LIMIT", "3")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("SESSION_TTL", "30m")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 3, cfg.RankLimit)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
}

func TestGetEnvHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_DUR", "soon")
	t.Setenv("X_SECS", "45")

	assert.Equal(t, 7, GetEnvInt("X_INT", 7))
	assert.True(t, GetEnvBool("X_BOOL", true))
	assert.Equal(t, time.Second, GetEnvDuration("X_DUR", time.Second))
	assert.Equal(t, 45*time.Second, GetEnvDuration("X_SECS", time.Second))
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("X_LIST", " a, ,b ,")
	assert.Equal(t, []string{"a", "b"}, GetEnvList("X_LIST", nil))

	t.Setenv("X_LIST", " , ")
	assert.Equal(t, []string{"d"}, GetEnvList("X_LIST", []string{"d"}))

	t.Setenv("X_LIST", "")
	assert.Equal(t, []string{"d"}, GetEnvList("X_LIST", []string{"d"}))
}
