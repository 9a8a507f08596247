// Package config loads application configuration from the environment and
// an optional TOML file for the sorting weights.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/justestif/go-spotify-playlist-sorter/internal/sequence"
)

const defaultAddr = "127.0.0.1:8080"

// ErrMissingCredentials is returned when SPOTIFY_ID or SPOTIFY_SECRET is not set.
var ErrMissingCredentials = errors.New("missing SPOTIFY_ID or SPOTIFY_SECRET environment variable")

// Config holds everything the application reads from its environment.
type Config struct {
	// SpotifyID and SpotifySecret are the Spotify app credentials.
	SpotifyID     string
	SpotifySecret string

	// DatabaseURL is the Postgres connection string. Empty means
	// in-memory stores only.
	DatabaseURL string

	// Addr is the listen address for the web server and the OAuth
	// callback.
	Addr string

	// Sequence holds the transition cost weights, overridable through
	// a TOML file named by SORTER_CONFIG.
	Sequence sequence.Config
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present.
func Load() (*Config, error) {
	// Ignore the error: a .env file is optional.
	_ = godotenv.Load()

	cfg := &Config{
		SpotifyID:     os.Getenv("SPOTIFY_ID"),
		SpotifySecret: os.Getenv("SPOTIFY_SECRET"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Addr:          os.Getenv("ADDR"),
		Sequence:      sequence.DefaultConfig(),
	}

	if cfg.SpotifyID == "" || cfg.SpotifySecret == "" {
		return nil, ErrMissingCredentials
	}

	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}

	if path := os.Getenv("SORTER_CONFIG"); path != "" {
		seq, err := LoadSequenceConfig(path)
		if err != nil {
			return nil, err
		}
		cfg.Sequence = seq
	}

	return cfg, nil
}

// LoadSequenceConfig reads sorting weights from a TOML file. Fields not
// present in the file keep their defaults.
func LoadSequenceConfig(path string) (sequence.Config, error) {
	cfg := sequence.DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return sequence.Config{}, fmt.Errorf("loading sorter config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return sequence.Config{}, fmt.Errorf("invalid sorter config %s: %w", path, err)
	}
	return cfg, nil
}

// RedirectURI returns the OAuth callback URL for the configured address.
func (c *Config) RedirectURI() string {
	return "http://" + c.Addr + "/callback"
}
