package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Rack    RackConfig    `mapstructure:"rack"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Auth    AuthConfig    `mapstructure:"auth"`
}

type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type CatalogConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	IndexPath    string        `mapstructure:"index_path"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

type RackConfig struct {
	Slots      int    `mapstructure:"slots"`
	LayoutPath string `mapstructure:"layout_path"`
}

type CacheConfig struct {
	Path string `mapstructure:"path"`
}

// Auth Configuration
type AuthConfig struct {
	JWTSecretEnv string        `mapstructure:"jwt_secret_env"`
	PasswordEnv  string        `mapstructure:"password_env"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_port", 8090)
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("catalog.base_url", "https://catalog.gearrack.io/v1")
	viper.SetDefault("catalog.index_path", "catalog.json")
	viper.SetDefault("catalog.fetch_timeout", "10s")
	viper.SetDefault("rack.slots", 16)
	viper.SetDefault("cache.path", "data/gearrack.db")
	viper.SetDefault("auth.jwt_secret_env", "GEARRACK_JWT_SECRET")
	viper.SetDefault("auth.password_env", "GEARRACK_PASSWORD")
	viper.SetDefault("auth.token_ttl", "12h")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("GEARRACK")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// JWTSecret loads the token signing secret from the configured environment
// variable, with a development fallback.
func (a *AuthConfig) JWTSecret() string {
	envVar := a.JWTSecretEnv
	if envVar == "" {
		envVar = "GEARRACK_JWT_SECRET"
	}
	if secret := os.Getenv(envVar); secret != "" {
		return secret
	}
	return "dev-secret-change-in-production-min-32-chars"
}

// OperatorPassword loads the single-operator password from the configured
// environment variable. Empty disables authentication entirely, which is
// only sensible for local development.
func (a *AuthConfig) OperatorPassword() string {
	envVar := a.PasswordEnv
	if envVar == "" {
		envVar = "GEARRACK_PASSWORD"
	}
	return os.Getenv(envVar)
}
