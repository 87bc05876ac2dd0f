package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, ClassifierRules, cfg.ClassifierBackend)
	assert.Equal(t, 15*time.Second, cfg.ClassifierTimeout)
	assert.Equal(t, 10, cfg.WorkerConcurrency)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.False(t, cfg.IsLocalDev)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("IS_LOCAL_DEV", "true")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CLASSIFIER_BACKEND", " Gemini ")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("CLASSIFIER_TIMEOUT", "2s")
	t.Setenv("WORKDAY_TIMEZONE", "Europe/Bucharest")
	t.Setenv("WORKER_CONCURRENCY", "4")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.True(t, cfg.IsLocalDev)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, ClassifierGemini, cfg.ClassifierBackend)
	assert.Equal(t, 2*time.Second, cfg.ClassifierTimeout)
	assert.Equal(t, 4, cfg.WorkerConcurrency)
	assert.Equal(t, "Europe/Bucharest", cfg.Location().String())
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("CLASSIFIER_BACKEND", "gemini")
	t.Setenv("WORKDAY_TIMEZONE", "Mars/Olympus")

	_, err := load(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
	assert.Contains(t, err.Error(), "WORKDAY_TIMEZONE")
}

func TestValidate_UnknownBackend(t *testing.T) {
	t.Parallel()

	cfg := Config{
		ServerPort:        "8080",
		DBHost:            "db",
		DBName:            "clockwise_db",
		DBMaxConns:        1,
		WorkerConcurrency: 1,
		ClassifierTimeout: time.Second,
		ClassifierBackend: "oracle",
		WorkdayTimezone:   "UTC",
	}
	assert.ErrorContains(t, cfg.Validate(), "CLASSIFIER_BACKEND")

	cfg.ClassifierBackend = ClassifierRules
	assert.NoError(t, cfg.Validate())
}

func TestDatabaseURL(t *testing.T) {
	t.Parallel()

	cfg := Config{DBUser: "user", DBPassword: "p@ss", DBHost: "db", DBPort: "5432", DBName: "clockwise_db", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://user:p%40ss@db:5432/clockwise_db?sslmode=disable", cfg.DatabaseURL())
}
