package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("AZURE_VISION_ENDPOINT", "https://example.cognitiveservices.azure.com/")
	t.Setenv("AZURE_VISION_KEY", "test_api_key")
	t.Setenv(APIKeyPathEnvVar, filepath.Join(t.TempDir(), "missing"))
	t.Setenv("ENABLE_FILE_LOGGING", "true")
	t.Setenv("HOTKEY", "Ctrl+Shift+T")
	t.Setenv("VISION_LANGUAGE", "EN")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendAzure, cfg.Backend)
	assert.Equal(t, "https://example.cognitiveservices.azure.com", cfg.Endpoint)
	assert.Equal(t, "test_api_key", cfg.APIKey)
	assert.True(t, cfg.EnableFileLogging)
	assert.Equal(t, "Ctrl+Shift+T", cfg.Hotkey)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, []string{"Categories", "Description", "Objects", "Tags"}, cfg.VisualFeatures)
	assert.NoError(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(APIKeyPathEnvVar, filepath.Join(t.TempDir(), "missing"))
	t.Setenv("AZURE_VISION_KEY", "")
	t.Setenv("ANALYZE_DEADLINE_SEC", "-3")
	t.Setenv("FEED_INTERVAL_MS", "10")
	t.Setenv("SOURCE", "camera")
	t.Setenv("VISION_BACKEND", "nonsense")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultDeadlineSec, cfg.AnalyzeDeadlineSec)
	assert.Equal(t, minFeedIntervalMS, cfg.FeedIntervalMS)
	assert.Equal(t, SourceWebcam, cfg.Source)
	assert.Equal(t, BackendAzure, cfg.Backend)
	assert.NotEmpty(t, cfg.GeometryFile)
}

func TestInvalidNumbersKeepDefaults(t *testing.T) {
	for _, value := range []string{"abc", "-5", "1.5x"} {
		t.Run(value, func(t *testing.T) {
			t.Setenv(APIKeyPathEnvVar, filepath.Join(t.TempDir(), "missing"))
			t.Setenv("HIDE_SETTLE_MS", value)
			t.Setenv("FEED_INTERVAL_MS", value)
			t.Setenv("ANALYZE_DEADLINE_SEC", value)
			t.Setenv("WEBCAM_DEVICE", value)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, defaultSettleMS, cfg.HideSettleMS)
			assert.Equal(t, defaultFeedIntervalMS, cfg.FeedIntervalMS)
			assert.Equal(t, defaultDeadlineSec, cfg.AnalyzeDeadlineSec)
			assert.Equal(t, 0, cfg.WebcamDevice)
		})
	}

	t.Run("zero settle is kept", func(t *testing.T) {
		t.Setenv(APIKeyPathEnvVar, filepath.Join(t.TempDir(), "missing"))
		t.Setenv("HIDE_SETTLE_MS", "0")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.HideSettleMS)
	})
}

func TestAPIKeyFileWinsOverEnv(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "azure")
	require.NoError(t, os.WriteFile(keyFile, []byte("  from-file\n"), 0600))

	t.Setenv("AZURE_VISION_KEY", "from-env")
	t.Setenv(APIKeyPathEnvVar, keyFile)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, keyFile, cfg.APIKeyPath)
}

func TestAPIKeyPathOverride(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "env-key")
	overrideFile := filepath.Join(dir, "override-key")
	require.NoError(t, os.WriteFile(envFile, []byte("env-file-key"), 0600))
	require.NoError(t, os.WriteFile(overrideFile, []byte("override-key"), 0600))

	t.Setenv(APIKeyPathEnvVar, envFile)

	cfg, err := LoadWithOptions(LoadOptions{APIKeyPathOverride: overrideFile, BackendOverride: "OLLAMA"})
	require.NoError(t, err)
	assert.Equal(t, "override-key", cfg.APIKey)
	assert.Equal(t, BackendOllama, cfg.Backend)
}

func TestYAMLSettingsFile(t *testing.T) {
	settings := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(settings, []byte("vision_backend: ollama\nollama_model: bakllava\nfeed_analyze_every: 4\n"), 0600))
	t.Setenv(ConfigPathEnvVar, settings)
	t.Setenv("OLLAMA_MODEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendOllama, cfg.Backend)
	assert.Equal(t, 4, cfg.FeedAnalyzeEvery)
	assert.Equal(t, settings, cfg.ConfigFile)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Backend: BackendAzure, APIKeyPath: DefaultAPIKeyPath}
	assert.Error(t, cfg.Validate())

	cfg.Endpoint = "https://example"
	assert.Error(t, cfg.Validate())

	cfg.APIKey = "k"
	assert.NoError(t, cfg.Validate())

	assert.Error(t, (&Config{Backend: BackendOllama}).Validate())
}
