package generation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config controls adapter construction.
type Config struct {
	Mode          string
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	HTTPURL       string
	Timeout       time.Duration
}

// New builds the Generator for the configured mode. Auto prefers the
// OpenAI adapter when a key is present, then the HTTP collaborator, and
// falls back to the deterministic mock so the service always starts.
func New(cfg Config) (Generator, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.OpenAIKey) != "" {
			return NewOpenAIAdapter(OpenAIConfig{
				APIKey:  cfg.OpenAIKey,
				BaseURL: cfg.OpenAIBaseURL,
				Model:   cfg.OpenAIModel,
			}), nil
		}
		if strings.TrimSpace(cfg.HTTPURL) != "" {
			return NewHTTPAdapter(cfg.HTTPURL, cfg.Timeout), nil
		}
		return NewMockAdapter(), nil
	case "openai":
		if strings.TrimSpace(cfg.OpenAIKey) == "" {
			return nil, errors.New("openai generation requires OPENAI_API_KEY")
		}
		return NewOpenAIAdapter(OpenAIConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		}), nil
	case "http":
		if strings.TrimSpace(cfg.HTTPURL) == "" {
			return nil, errors.New("http generation requires GENERATION_HTTP_URL")
		}
		return NewHTTPAdapter(cfg.HTTPURL, cfg.Timeout), nil
	case "mock":
		return NewMockAdapter(), nil
	default:
		return nil, fmt.Errorf("unsupported generation provider %q", cfg.Mode)
	}
}

// Describe names the concrete adapter for startup logging.
func Describe(g Generator) string {
	switch g.(type) {
	case *OpenAIAdapter:
		return "openai"
	case *HTTPAdapter:
		return "http"
	case *MockAdapter:
		return "mock"
	default:
		return "custom"
	}
}
