package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jokebot/generator"
)

var envKeys = []string{
	"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
	"ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", "ANTHROPIC_BASE_URL",
	"GEMINI_API_KEY", "GEMINI_MODEL",
	"TWITTER_BEARER_TOKEN", "TWITTER_CONSUMER_KEY", "TWITTER_CONSUMER_SECRET",
	"TWITTER_ACCESS_TOKEN", "TWITTER_ACCESS_TOKEN_SECRET",
	"JOKEBOT_DRY_RUN", "JOKEBOT_MOCK", "JOKEBOT_FLATTEN_MARKDOWN", "JOKEBOT_LOG_LEVEL", "JOKEBOT_LOG_FILE",
	"JOKEBOT_INTERVAL_MINUTES", "JOKEBOT_REQUEST_TIMEOUT_SECONDS", "JOKEBOT_SERVER_ADDR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.LLMSettings(), "no credentials means no providers")
	assert.Equal(t, generator.DefaultOpenAIModel, cfg.OpenAI.Model)
	assert.Equal(t, generator.DefaultAnthropicModel, cfg.Anthropic.Model)
	assert.Equal(t, generator.DefaultGeminiModel, cfg.Gemini.Model)
	assert.Equal(t, 60*time.Minute, cfg.Interval())
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.False(t, cfg.DryRun)
	assert.False(t, cfg.FlattenMarkdown)
	assert.Len(t, cfg.Publisher().Credentials.Missing(), 5)
}

func TestLoadEnvEnablesProvidersInOrder(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g")
	t.Setenv("OPENAI_API_KEY", "o")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("JOKEBOT_MOCK", "true")
	t.Setenv("JOKEBOT_REQUEST_TIMEOUT_SECONDS", "15")

	cfg, err := Load("")
	require.NoError(t, err)
	settings := cfg.LLMSettings()
	require.Len(t, settings, 3)

	assert.Equal(t, generator.ProviderOpenAI, settings[0].Provider)
	assert.Equal(t, "gpt-4o-mini", settings[0].Model)
	assert.Equal(t, "o", settings[0].APIKey)
	assert.Equal(t, 15*time.Second, settings[0].Timeout)

	assert.Equal(t, generator.ProviderGemini, settings[1].Provider)
	assert.Equal(t, generator.DefaultGeminiModel, settings[1].Model)

	assert.Equal(t, generator.ProviderMock, settings[2].Provider)
}

func TestLoadTwitterCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("TWITTER_BEARER_TOKEN", "b")
	t.Setenv("TWITTER_CONSUMER_KEY", "ck")
	t.Setenv("TWITTER_CONSUMER_SECRET", "cs")
	t.Setenv("TWITTER_ACCESS_TOKEN", "at")
	t.Setenv("TWITTER_ACCESS_TOKEN_SECRET", "ats")
	t.Setenv("JOKEBOT_DRY_RUN", "1")

	cfg, err := Load("")
	require.NoError(t, err)
	pub := cfg.Publisher()
	assert.Empty(t, pub.Credentials.Missing())
	assert.True(t, pub.DryRun)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "jokebot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
anthropic:
  api_key: file-key
  model: claude-3-5-haiku-latest
  temperature: 0.5
interval_minutes: 30
log_level: debug
flatten_markdown: true
twitter:
  consumer_key: file-ck
`), 0o600))
	t.Setenv("ANTHROPIC_MODEL", "claude-from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	settings := cfg.LLMSettings()
	require.Len(t, settings, 1)
	assert.Equal(t, generator.ProviderAnthropic, settings[0].Provider)
	assert.Equal(t, "file-key", settings[0].APIKey)
	assert.Equal(t, "claude-from-env", settings[0].Model)
	require.NotNil(t, settings[0].Temperature)
	assert.InDelta(t, 0.5, *settings[0].Temperature, 1e-9)
	assert.Equal(t, 30*time.Minute, cfg.Interval())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.FlattenMarkdown)
	assert.Equal(t, "file-ck", cfg.Twitter.ConsumerKey)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
	t.Run("bad yaml", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("openai: [unclosed"), 0o600))
		_, err := Load(path)
		assert.Error(t, err)
	})
	t.Run("bad bool", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("JOKEBOT_DRY_RUN", "maybe")
		_, err := Load("")
		assert.ErrorContains(t, err, "JOKEBOT_DRY_RUN")
	})
	t.Run("bad int", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("JOKEBOT_INTERVAL_MINUTES", "soon")
		_, err := Load("")
		assert.ErrorContains(t, err, "JOKEBOT_INTERVAL_MINUTES")
	})
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv only fills variables that are absent, not ones set to ""
	require.NoError(t, os.Unsetenv("ANTHROPIC_API_KEY"))
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ANTHROPIC_API_KEY=from-dotenv\nOPENAI_API_KEY=dotenv-openai\n"), 0o600))
	t.Setenv("OPENAI_API_KEY", "real-env")
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "real-env", cfg.OpenAI.APIKey, ".env never overrides the environment")
	assert.Equal(t, "from-dotenv", cfg.Anthropic.APIKey)
}
