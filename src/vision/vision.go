package vision

import (
	"fmt"

	"screen-vision/src/config"
)

// New builds the analyzer selected by cfg.Backend.
func New(cfg *config.Config) (Analyzer, error) {
	if cfg == nil {
		return nil, ErrNotConfigured
	}
	switch cfg.Backend {
	case config.BackendOllama:
		return NewOllamaClient(OllamaConfig{
			URL:      cfg.OllamaURL,
			Model:    cfg.OllamaModel,
			Language: cfg.Language,
		})
	case config.BackendAzure, "":
		return NewAzureClient(AzureConfig{
			Endpoint: cfg.Endpoint,
			APIKey:   cfg.APIKey,
			Language: cfg.Language,
			Features: cfg.VisualFeatures,
		})
	default:
		return nil, fmt.Errorf("unknown vision backend %q", cfg.Backend)
	}
}
