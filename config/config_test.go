package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("MARVEL_ENDPOINT", "http://marvel.local/")
	t.Setenv("MARVEL_API_KEY", "dev")
	t.Setenv("AUTH_JWT_SECRET", "secret")
}

func TestLoadConfig_FromEnvWithDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "http://marvel.local/", cfg.Marvel.Endpoint)
	assert.Equal(t, ProviderMarvel, cfg.Marvel.Provider)
	assert.Equal(t, 100, cfg.Chat.RetentionThreshold)
	assert.Equal(t, 65, cfg.Chat.RetentionKeep)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_FileWithEnvOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CHAT_RETENTION_KEEP", "10")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
marvel:
  endpoint: http://from-file/
  timeout: 5s
chat:
  retention_threshold: 20
  retention_keep: 15
redis:
  endpoint: localhost:6379
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://marvel.local/", cfg.Marvel.Endpoint)
	assert.Equal(t, 20, cfg.Chat.RetentionThreshold)
	assert.Equal(t, 10, cfg.Chat.RetentionKeep)
	assert.Equal(t, "localhost:6379", cfg.Redis.Endpoint)
	assert.Equal(t, "5s", cfg.Marvel.Timeout.String())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Marvel: Marvel{Endpoint: "http://x/", APIKey: "k", Provider: ProviderMarvel},
			HTTP:   HTTP{JWTSecret: "s"},
			Chat:   Chat{RetentionThreshold: 100, RetentionKeep: 65},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing endpoint", mutate: func(c *Config) { c.Marvel.Endpoint = "" }, want: ErrMarvelEndpointRequired},
		{name: "missing api key", mutate: func(c *Config) { c.Marvel.APIKey = "" }, want: ErrMarvelAPIKeyRequired},
		{name: "openai without key", mutate: func(c *Config) { c.Marvel.Provider = ProviderOpenAI }, want: ErrOpenAIAPIKeyRequired},
		{name: "missing jwt secret", mutate: func(c *Config) { c.HTTP.JWTSecret = "" }, want: ErrJWTSecretRequired},
		{name: "keep above threshold", mutate: func(c *Config) { c.Chat.RetentionKeep = 101 }, want: ErrInvalidRetention},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("unknown provider", func(t *testing.T) {
		cfg := valid()
		cfg.Marvel.Provider = "gemini"
		assert.Error(t, cfg.Validate())
	})
}
