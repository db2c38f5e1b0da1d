package llm

import (
	"fmt"
	"os"

	"tripscout/internal/domain"
)

// NewProvider builds the LLMProvider named by cfg. The anthropic provider
// reads its API key from the environment variable cfg.APIKeyEnv names; the
// key itself never lives in the config file.
func NewProvider(cfg domain.LLMConfig) (domain.LLMProvider, error) {
	switch cfg.Provider {
	case "anthropic":
		key := os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("llm: environment variable %s is not set", cfg.APIKeyEnv)
		}
		return NewAnthropicProvider(key, cfg.Model), nil
	case "scripted", "":
		return NewScriptedProvider(), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
