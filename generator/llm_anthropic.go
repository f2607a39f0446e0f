package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultAnthropicModel = "claude-3-haiku-20240307"
	anthropicTemperature  = 0.9
)

// AnthropicLLM implements LLMClient on the official anthropic-sdk-go Messages API.
// The system instruction travels in the top-level system field rather than as a message.
type AnthropicLLM struct {
	Model       string
	Temperature float64
	Opts        []option.RequestOption
}

func NewAnthropicLLMFromConfig(cfg *LLMSettings) (*AnthropicLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrMissingAPIKey)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultAnthropicModel
	}
	temperature := anthropicTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(cfg.httpClient()),
		option.WithRequestTimeout(cfg.timeout()),
		option.WithMaxRetries(0),
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicLLM{Model: model, Temperature: temperature, Opts: opts}, nil
}

func (c *AnthropicLLM) Name() string { return ProviderAnthropic }

func (c *AnthropicLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	client := anthropic.NewClient(c.Opts...)

	msg, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.Model),
		MaxTokens:   MaxOutputTokens,
		Temperature: anthropic.Float(c.Temperature),
		System:      []anthropic.TextBlockParam{{Text: prompt.System}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &UpstreamError{Provider: ProviderAnthropic, Status: apiErr.StatusCode, Message: anthropicErrorMessage(apiErr)}
		}
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// anthropicErrorMessage pulls error.message out of the vendor's error envelope.
func anthropicErrorMessage(apiErr *anthropic.Error) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal([]byte(apiErr.RawJSON()), &envelope) == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return http.StatusText(apiErr.StatusCode)
}
