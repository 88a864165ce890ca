package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	ProviderMarvel = "marvel"
	ProviderOpenAI = "openai"
)

type Marvel struct {
	APIKey   string        `yaml:"api_key" env:"MARVEL_API_KEY"`
	Endpoint string        `yaml:"endpoint" env:"MARVEL_ENDPOINT"`
	Provider string        `yaml:"provider" env:"MARVEL_PROVIDER" env-default:"marvel"`
	Timeout  time.Duration `yaml:"timeout" env:"MARVEL_TIMEOUT"`
}

type OpenAI struct {
	OpenAIAPIKey     string  `yaml:"api_key" env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string  `yaml:"base_url" env:"OPENAI_BASE_URL"`
	OpenAIModel      string  `yaml:"model" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
	ModelTemperature float32 `yaml:"model_temperature" env:"MODEL_TEMPERATURE" env-default:"1"`
}

type Redis struct {
	Endpoint string `yaml:"endpoint" env:"REDIS_ENDPOINT"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type HTTP struct {
	Addr      string `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
}

type Chat struct {
	// Sessions longer than RetentionThreshold are cut to the last RetentionKeep
	// messages before a new message is appended.
	RetentionThreshold int `yaml:"retention_threshold" env:"CHAT_RETENTION_THRESHOLD" env-default:"100"`
	RetentionKeep      int `yaml:"retention_keep" env:"CHAT_RETENTION_KEEP" env-default:"65"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

type Config struct {
	Marvel Marvel `yaml:"marvel"`
	OpenAI OpenAI `yaml:"openai"`
	Redis  Redis  `yaml:"redis"`
	HTTP   HTTP   `yaml:"http"`
	Chat   Chat   `yaml:"chat"`
	Log    Log    `yaml:"log"`
}

// LoadConfig reads the YAML file at cfgPath, if any, and applies environment
// overrides on top of it.
func LoadConfig(cfgPath string) (*Config, error) {
	var cfg Config
	if cfgPath != "" {
		if err := cleanenv.ReadConfig(cfgPath, &cfg); err != nil {
			return nil, err
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
