// Package config loads server configuration from a config file, the
// environment and an optional .env file.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the server needs to start.
type Config struct {
	ServerAddr  string
	DatabaseURL string
	FrontendURL string

	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURI  string

	JWTSecret string
}

// Load reads configuration with viper. Keys come from config.yaml, the
// environment (dots become underscores, e.g. SPOTIFY_CLIENT_ID) or a .env
// file in the working directory. Missing required keys fail loading.
func Load() (*Config, error) {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	viper.SetDefault("server.addr", ":4000")
	viper.SetDefault("frontend.url", "http://localhost:5173")
	viper.SetDefault("spotify.redirect_uri", "http://localhost:4000/auth/callback")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	required := []string{
		"spotify.client_id",
		"spotify.client_secret",
		"database.url",
		"jwt.secret",
	}
	var missing []string
	for _, key := range required {
		if !viper.IsSet(key) || viper.GetString(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return &Config{
		ServerAddr:          viper.GetString("server.addr"),
		DatabaseURL:         viper.GetString("database.url"),
		FrontendURL:         strings.TrimRight(viper.GetString("frontend.url"), "/"),
		SpotifyClientID:     viper.GetString("spotify.client_id"),
		SpotifyClientSecret: viper.GetString("spotify.client_secret"),
		SpotifyRedirectURI:  viper.GetString("spotify.redirect_uri"),
		JWTSecret:           viper.GetString("jwt.secret"),
	}, nil
}
