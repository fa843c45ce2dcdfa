// Package config loads the application settings from defaults, an optional
// YAML file, the environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. MUSTSEE_SERVER_ADDR.
const EnvPrefix = "MUSTSEE"

// DefaultConfigName is looked up in the home directory when no file is given.
const DefaultConfigName = ".mustsee"

type Config struct {
	Festival FestivalConfig `mapstructure:"festival"`
	Server   ServerConfig   `mapstructure:"server"`
	Spotify  SpotifyConfig  `mapstructure:"spotify"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Session  SessionConfig  `mapstructure:"session"`
	Log      LogConfig      `mapstructure:"log"`
}

type FestivalConfig struct {
	Name     string `mapstructure:"name" validate:"required"`
	ShareURL string `mapstructure:"share_url" validate:"omitempty,url"`

	// Market is the ISO country code used for artist top tracks.
	Market string `mapstructure:"market" validate:"required,len=2"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	RateLimit       int           `mapstructure:"rate_limit" validate:"gte=0"`
	RateWindow      time.Duration `mapstructure:"rate_window" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type SpotifyConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url" validate:"omitempty,url"`
	BaseURL      string `mapstructure:"base_url" validate:"required,url"`

	// AuthURL and TokenURL override the accounts service endpoints.
	AuthURL  string `mapstructure:"auth_url" validate:"omitempty,url"`
	TokenURL string `mapstructure:"token_url" validate:"omitempty,url"`

	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries   int           `mapstructure:"max_retries" validate:"min=1,max=10"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" validate:"gt=0"`

	// RateLimit is requests per second; zero disables client-side limiting.
	RateLimit       float64       `mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst       int           `mapstructure:"rate_burst" validate:"gte=0"`
	BreakerFailures uint32        `mapstructure:"breaker_failures" validate:"gte=1"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout" validate:"gt=0"`
}

type CatalogConfig struct {
	// Source selects where serve reads the lineup from.
	Source     string `mapstructure:"source" validate:"oneof=file sqlite"`
	Path       string `mapstructure:"path" validate:"required"`
	SQLitePath string `mapstructure:"sqlite_path" validate:"required_if=Source sqlite"`

	// EnrichInterval paces enrichment between acts.
	EnrichInterval time.Duration `mapstructure:"enrich_interval" validate:"gte=0"`
}

type WorkerConfig struct {
	Workers   int `mapstructure:"workers" validate:"min=1"`
	QueueSize int `mapstructure:"queue_size" validate:"min=1"`
}

type SessionConfig struct {
	RankingTimeout time.Duration `mapstructure:"ranking_timeout" validate:"gt=0"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout" validate:"gt=0"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=trace debug info warn error disabled"`
	Format     string `mapstructure:"format" validate:"oneof=json console"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
}

// SetDefaults registers every key with its default value. Keys without a
// default are invisible to environment overrides.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("festival.name", "Faux Fest")
	v.SetDefault("festival.share_url", "https://dullmace.lol")
	v.SetDefault("festival.market", "US")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("server.rate_window", time.Minute)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("spotify.client_id", "")
	v.SetDefault("spotify.client_secret", "")
	v.SetDefault("spotify.redirect_url", "http://localhost:8080/callback")
	v.SetDefault("spotify.base_url", "https://api.spotify.com/v1")
	v.SetDefault("spotify.auth_url", "")
	v.SetDefault("spotify.token_url", "")
	v.SetDefault("spotify.timeout", 30*time.Second)
	v.SetDefault("spotify.max_retries", 3)
	v.SetDefault("spotify.retry_backoff", 500*time.Millisecond)
	v.SetDefault("spotify.rate_limit", 10.0)
	v.SetDefault("spotify.rate_burst", 5)
	v.SetDefault("spotify.breaker_failures", 5)
	v.SetDefault("spotify.breaker_timeout", 30*time.Second)

	v.SetDefault("catalog.source", "file")
	v.SetDefault("catalog.path", "bands.json")
	v.SetDefault("catalog.sqlite_path", "")
	v.SetDefault("catalog.enrich_interval", 200*time.Millisecond)

	v.SetDefault("worker.workers", 4)
	v.SetDefault("worker.queue_size", 64)

	v.SetDefault("session.ranking_timeout", time.Minute)
	v.SetDefault("session.idle_timeout", time.Hour)
	v.SetDefault("session.sweep_interval", 5*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// the conventional unprefixed names are honored too
	_ = v.BindEnv("spotify.client_id", EnvPrefix+"_SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_ID")
	_ = v.BindEnv("spotify.client_secret", EnvPrefix+"_SPOTIFY_CLIENT_SECRET", "SPOTIFY_CLIENT_SECRET")
	_ = v.BindEnv("spotify.redirect_url", EnvPrefix+"_SPOTIFY_REDIRECT_URL", "SPOTIFY_REDIRECT_URI")
	return v
}

// ReadFile reads cfgFile into v, or $HOME/.mustsee.yaml when cfgFile is
// empty. A missing default file is not an error. It returns the file used.
func ReadFile(v *viper.Viper, cfgFile string) (string, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return "", fmt.Errorf("config: resolve home directory: %w", err)
		}
		v.AddConfigPath(home)
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("config: read %s: %w", cfgFile, err)
	}
	return v.ConfigFileUsed(), nil
}

// Load unmarshals and validates the settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}
