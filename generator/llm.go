package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	// SystemInstruction is sent to every provider, whatever its wire format.
	SystemInstruction = "You are a comedian. Generate a single, clean, funny joke."
	// MaxOutputTokens caps the reply length uniformly across vendors.
	MaxOutputTokens = 4 * 1024

	defaultTimeout = 60 * time.Second
)

var (
	ErrMissingAPIKey       = errors.New("api key missing")
	ErrEmptyReply          = errors.New("model returned empty reply")
	ErrUnsupportedProvider = errors.New("llm provider not supported")
)

// LLMClient abstracts a vendor chat API so providers can be swapped or mocked.
type LLMClient interface {
	Name() string
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings is the per-provider configuration handed to NewLLM.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	// Timeout bounds a single request; zero means 60s.
	Timeout time.Duration
	// Temperature overrides the provider default when set.
	Temperature *float64
	HTTPClient  *http.Client
}

func (s *LLMSettings) timeout() time.Duration {
	if s.Timeout <= 0 {
		return defaultTimeout
	}
	return s.Timeout
}

func (s *LLMSettings) httpClient() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return &http.Client{Timeout: s.timeout()}
}

// UpstreamError is a non-2xx answer from a vendor API.
type UpstreamError struct {
	Provider string
	Status   int
	Message  string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream %d: %s", e.Provider, e.Status, e.Message)
}

// NewLLM builds the concrete client for settings.Provider.
func NewLLM(cfg LLMSettings) (LLMClient, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAILLMFromConfig(&cfg)
	case ProviderAnthropic:
		return NewAnthropicLLMFromConfig(&cfg)
	case ProviderGemini:
		return NewGeminiLLMFromConfig(&cfg)
	case ProviderMock:
		return MockLLM{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
}

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)
