package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort          int    `mapstructure:"APP_PORT"`
	DatabasePath     string `mapstructure:"DATABASE_PATH"`
	AIServiceURL     string `mapstructure:"AI_SERVICE_URL"`
	AIStreamPath     string `mapstructure:"AI_STREAM_PATH"`
	AIFallbackPath   string `mapstructure:"AI_FALLBACK_PATH"`
	DefaultModel     string `mapstructure:"DEFAULT_MODEL"`
	AllowModelChange bool   `mapstructure:"ALLOW_MODEL_CHANGE"`
	LogLevel         string `mapstructure:"LOG_LEVEL"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 8000)
	viper.SetDefault("DATABASE_PATH", "/data/shopchat.db")
	viper.SetDefault("AI_SERVICE_URL", "http://localhost:5000")
	viper.SetDefault("AI_STREAM_PATH", "/gemini/chat/rag/stream")
	viper.SetDefault("AI_FALLBACK_PATH", "/gemini/chat/rag")
	viper.SetDefault("DEFAULT_MODEL", "gemini-2.0-flash")
	viper.SetDefault("ALLOW_MODEL_CHANGE", false)
	viper.SetDefault("LOG_LEVEL", "INFO")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./backend")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
