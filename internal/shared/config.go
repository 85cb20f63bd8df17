package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// AudioFeaturesMode selects which token the audio-feature fetch uses.
//
// "none" disables the fetch, "user" uses the user access token as primary,
// "client" uses an app-only client-credentials token as primary with the
// user token as fallback.
type AudioFeaturesMode string

const (
	FeaturesNone   AudioFeaturesMode = "none"
	FeaturesUser   AudioFeaturesMode = "user"
	FeaturesClient AudioFeaturesMode = "client"
)

// Config represents the application configuration loaded from a TOML file,
// with environment variables taking precedence for credentials.
type Config struct {
	Spotify  SpotifyConfig  `toml:"spotify"`
	Output   OutputConfig   `toml:"output"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
}

// SpotifyConfig contains Spotify API credentials and fetch settings.
type SpotifyConfig struct {
	ClientID          string `toml:"client_id"`
	ClientSecret      string `toml:"client_secret"`
	RedirectURI       string `toml:"redirect_uri"`
	RefreshToken      string `toml:"refresh_token"`
	AuthorizationCode string `toml:"authorization_code"`
	PageLimit         int    `toml:"page_limit"`
	AudioFeatures     string `toml:"audio_features"`
}

// OutputConfig contains paths for the exported data files.
type OutputConfig struct {
	Dir       string `toml:"dir"`
	TokenFile string `toml:"token_file"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path,
// then applies overrides from a .env file (if present) and the process environment.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv()
	return &config, nil
}

// DefaultConfig returns a Config with defaults loaded from the embedded example
// config, with environment overrides applied.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnv layers .env and process environment values over the TOML config.
// Environment always wins so that credentials never need to live in the file.
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	setString := func(target *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*target = v
		}
	}

	setString(&c.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	setString(&c.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	setString(&c.Spotify.RedirectURI, "SPOTIFY_REDIRECT_URI")
	setString(&c.Spotify.RefreshToken, "SPOTIFY_REFRESH_TOKEN")
	setString(&c.Spotify.AuthorizationCode, "SPOTIFY_AUTHORIZATION_CODE")
	setString(&c.Spotify.AudioFeatures, "SPOTIFY_AUDIO_FEATURES_MODE")

	if v := strings.TrimSpace(os.Getenv("SPOTIFY_PAGE_LIMIT")); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			c.Spotify.PageLimit = limit
		}
	}
}

// Validate checks the configuration for values every run requires.
func (c *Config) Validate() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET are required", ErrMissingCredentials)
	}
	if c.Spotify.RedirectURI == "" {
		return fmt.Errorf("%w: SPOTIFY_REDIRECT_URI is required", ErrMissingCredentials)
	}
	return nil
}

// FeaturesMode returns the configured audio-features mode, defaulting to "none".
func (c *Config) FeaturesMode() (AudioFeaturesMode, error) {
	switch strings.ToLower(strings.TrimSpace(c.Spotify.AudioFeatures)) {
	case "", string(FeaturesNone):
		return FeaturesNone, nil
	case string(FeaturesUser):
		return FeaturesUser, nil
	case string(FeaturesClient):
		return FeaturesClient, nil
	default:
		return FeaturesNone, fmt.Errorf("%w: audio_features must be none, user, or client", ErrInvalidConfig)
	}
}
