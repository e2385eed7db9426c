package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	DefaultAPIKeyPath = "/run/secrets/api_keys/azure_vision"
	APIKeyPathEnvVar  = "AZURE_VISION_KEY_FILE"
	ConfigPathEnvVar  = "SCREEN_VISION_CONFIG"
	DotenvPathEnvVar  = "SCREEN_VISION"

	BackendAzure  = "azure"
	BackendOllama = "ollama"

	SourceScreen = "screen"
	SourceWebcam = "webcam"

	defaultHotkey         = "Ctrl+Alt+V"
	defaultLanguage       = "es"
	defaultVisualFeatures = "Categories,Description,Objects,Tags"
	defaultOllamaURL      = "http://localhost:11434"
	defaultOllamaModel    = "llava"
	defaultDeadlineSec    = 20
	defaultFeedIntervalMS = 500
	minFeedIntervalMS     = 50
	defaultSettleMS       = 200
)

type LoadOptions struct {
	APIKeyPathOverride string
	BackendOverride    string
	LanguageOverride   string
	SourceOverride     string
}

type Config struct {
	Backend        string
	Endpoint       string
	APIKey         string
	APIKeyPath     string
	OllamaURL      string
	OllamaModel    string
	Language       string
	VisualFeatures []string

	AnalyzeDeadlineSec int
	Source             string
	WebcamDevice       int
	DisplayIndex       int
	FeedIntervalMS     int
	FeedAnalyzeEvery   int
	HideSettleMS       int

	GeometryFile   string
	HistoryDSN     string
	SnapshotDir    string
	SnapshotFormat string
	TelegramToken  string
	TelegramChatID int64

	Hotkey            string
	EnableFileLogging bool

	// ConfigFile is the YAML settings file that was read, if any.
	ConfigFile string
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order (highest first):
	// 1) explicit LoadOptions
	// 2) process environment
	// 3) .env next to the executable, or the file named by SCREEN_VISION
	// 4) optional screen-vision.yaml
	// 5) defaults
	envPath := resolveEnvPath()
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	if err := readSettingsFile(v); err != nil {
		return nil, err
	}

	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)

	cfg := &Config{
		Backend:        resolveBackend(firstNonEmpty(opts.BackendOverride, v.GetString("vision_backend"))),
		Endpoint:       strings.TrimRight(strings.TrimSpace(v.GetString("azure_vision_endpoint")), "/"),
		APIKey:         resolveAPIKey(apiKeyPath, v.GetString("azure_vision_key")),
		APIKeyPath:     apiKeyPath,
		OllamaURL:      v.GetString("ollama_url"),
		OllamaModel:    v.GetString("ollama_model"),
		Language:       resolveLanguage(firstNonEmpty(opts.LanguageOverride, v.GetString("vision_language"))),
		VisualFeatures: splitList(v.GetString("visual_features")),

		AnalyzeDeadlineSec: positiveOr(intSetting(v, "analyze_deadline_sec", defaultDeadlineSec), defaultDeadlineSec),
		Source:             resolveSource(firstNonEmpty(opts.SourceOverride, v.GetString("source"))),
		WebcamDevice:       intSetting(v, "webcam_device", 0),
		DisplayIndex:       intSetting(v, "display_index", 0),
		FeedIntervalMS:     atLeast(intSetting(v, "feed_interval_ms", defaultFeedIntervalMS), minFeedIntervalMS, defaultFeedIntervalMS),
		FeedAnalyzeEvery:   intSetting(v, "feed_analyze_every", 0),
		HideSettleMS:       intSetting(v, "hide_settle_ms", defaultSettleMS),

		GeometryFile:   resolveGeometryFile(v.GetString("geometry_file")),
		HistoryDSN:     v.GetString("history_dsn"),
		SnapshotDir:    v.GetString("snapshot_dir"),
		SnapshotFormat: strings.ToLower(strings.TrimSpace(v.GetString("snapshot_format"))),
		TelegramToken:  v.GetString("telegram_token"),
		TelegramChatID: v.GetInt64("telegram_chat_id"),

		Hotkey:            v.GetString("hotkey"),
		EnableFileLogging: v.GetBool("enable_file_logging"),
		ConfigFile:        v.ConfigFileUsed(),
	}

	if len(cfg.VisualFeatures) == 0 {
		cfg.VisualFeatures = splitList(defaultVisualFeatures)
	}

	return cfg, nil
}

// Validate reports missing settings required by the selected backend.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAzure:
		if c.Endpoint == "" {
			return errors.New("AZURE_VISION_ENDPOINT is required. Please set it in your .env file")
		}
		if c.APIKey == "" {
			return errors.New("AZURE_VISION_KEY is required. Checked key file " + c.APIKeyPath + " and AZURE_VISION_KEY env var")
		}
	case BackendOllama:
		if c.OllamaModel == "" {
			return errors.New("OLLAMA_MODEL is required for the ollama backend")
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("vision_backend", BackendAzure)
	v.SetDefault("azure_vision_endpoint", "")
	v.SetDefault("azure_vision_key", "")
	v.SetDefault("ollama_url", defaultOllamaURL)
	v.SetDefault("ollama_model", defaultOllamaModel)
	v.SetDefault("vision_language", defaultLanguage)
	v.SetDefault("visual_features", defaultVisualFeatures)
	v.SetDefault("analyze_deadline_sec", defaultDeadlineSec)
	v.SetDefault("source", SourceScreen)
	v.SetDefault("webcam_device", 0)
	v.SetDefault("display_index", 0)
	v.SetDefault("feed_interval_ms", defaultFeedIntervalMS)
	v.SetDefault("feed_analyze_every", 0)
	v.SetDefault("hide_settle_ms", defaultSettleMS)
	v.SetDefault("geometry_file", "")
	v.SetDefault("history_dsn", "")
	v.SetDefault("snapshot_dir", "")
	v.SetDefault("snapshot_format", "png")
	v.SetDefault("telegram_token", "")
	v.SetDefault("telegram_chat_id", 0)
	v.SetDefault("hotkey", defaultHotkey)
	v.SetDefault("enable_file_logging", false)
}

func readSettingsFile(v *viper.Viper) error {
	if explicit := strings.TrimSpace(os.Getenv(ConfigPathEnvVar)); explicit != "" {
		v.SetConfigFile(explicit)
		return v.ReadInConfig()
	}

	v.SetConfigName("screen-vision")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if execPath, err := os.Executable(); err == nil {
		v.AddConfigPath(filepath.Dir(execPath))
	}

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return err
	}
	return nil
}

func resolveEnvPath() string {
	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(DotenvPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := DefaultAPIKeyPath

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

func resolveAPIKey(keyPath, fallback string) string {
	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey
		}
	}

	return strings.TrimSpace(fallback)
}

func resolveBackend(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case BackendOllama:
		return BackendOllama
	default:
		return BackendAzure
	}
}

func resolveSource(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case SourceWebcam, "camera", "cam":
		return SourceWebcam
	default:
		return SourceScreen
	}
}

func resolveLanguage(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return defaultLanguage
	}
	return value
}

func resolveGeometryFile(value string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "geometry.json"
	}
	return filepath.Join(dir, "screen-vision", "geometry.json")
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func positiveOr(n, def int) int {
	if n > 0 {
		return n
	}
	return def
}

func atLeast(n, min, def int) int {
	if n <= 0 {
		return def
	}
	if n < min {
		return min
	}
	return n
}

// intSetting reads a non-negative integer setting. Values that do not parse
// or are negative give def.
func intSetting(v *viper.Viper, key string, def int) int {
	n, err := cast.ToIntE(v.Get(key))
	if err != nil || n < 0 {
		return def
	}
	return n
}
