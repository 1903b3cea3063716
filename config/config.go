package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port string `envconfig:"PORT" default:"10000"`

	SpotifyID     string `envconfig:"SPOTIFY_CLIENT_ID"`
	SpotifySecret string `envconfig:"SPOTIFY_CLIENT_SECRET"`
	SpotifyMarket string `envconfig:"SPOTIFY_MARKET" default:"US"`

	// SampleRate is the rate uploads are resampled to before analysis.
	SampleRate  int    `envconfig:"SAMPLE_RATE" default:"22050"`
	MaxUploadMB int64  `envconfig:"MAX_UPLOAD_MB" default:"50"`
	TempDir     string `envconfig:"TEMP_DIR"`

	LogLevel    string   `envconfig:"LOG_LEVEL" default:"info"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// SpotifyConfigured reports whether both Spotify credentials are set.
func (c Config) SpotifyConfigured() bool {
	return c.SpotifyID != "" && c.SpotifySecret != ""
}

// ProvideConfig loads a .env file when present, then reads the environment.
func ProvideConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var Options = ProvideConfig
