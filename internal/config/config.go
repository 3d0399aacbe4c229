package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	OpenAI  OpenAIConfig
	History HistoryConfig
	Session SessionConfig
}

type ServerConfig struct {
	Port         string        `envconfig:"SERVER_PORT" default:"8000"`
	Host         string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	// RequestTimeout bounds a whole request; it must leave room for
	// the completion call governed by OPENAI_TIMEOUT.
	RequestTimeout time.Duration `envconfig:"SERVER_REQUEST_TIMEOUT" default:"100s"`
	StaticDir      string        `envconfig:"SERVER_STATIC_DIR" default:"web/static"`
}

type OpenAIConfig struct {
	Provider       string        `envconfig:"OPENAI_PROVIDER" default:"openai"`
	APIKey         string        `envconfig:"OPENAI_API_KEY"`
	APIEndpoint    string        `envconfig:"OPENAI_ENDPOINT" default:"https://api.openai.com/v1"`
	Model          string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	DeploymentName string        `envconfig:"OPENAI_DEPLOYMENT" default:"gpt-4o"`
	APIVersion     string        `envconfig:"OPENAI_API_VERSION" default:"2023-12-01-preview"`
	Timeout        time.Duration `envconfig:"OPENAI_TIMEOUT" default:"90s"`
}

type HistoryConfig struct {
	// MaxEntries bounds the per-session analysis history; the oldest
	// entry is evicted beyond this.
	MaxEntries int `envconfig:"HISTORY_MAX_ENTRIES" default:"50"`
}

type SessionConfig struct {
	IdleTimeout time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"4h"`
}

// LoadConfig builds the service configuration. An optional YAML config
// file is read first (mail-ai-mole.yaml in the working directory, or
// the path in MAILMOLE_CONFIG); environment variables override it.
func LoadConfig() (*Config, error) {
	if err := loadConfigFile(); err != nil {
		return nil, err
	}

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("configuration loaded successfully")
	return &cfg, nil
}

func loadConfigFile() error {
	v := viper.New()
	if path := os.Getenv("MAILMOLE_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mail-ai-mole")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return nil
		}
		return err
	}

	// Promote file values into the environment so the envconfig pass
	// picks them up; real environment variables still win.
	for _, key := range v.AllKeys() {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if _, set := os.LookupEnv(envKey); !set {
			os.Setenv(envKey, v.GetString(key))
		}
	}
	slog.Info("loaded config file", "path", v.ConfigFileUsed())
	return nil
}
