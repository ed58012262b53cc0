package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrMissingEnv = errors.New("missing-env")
	ErrInvalidEnv = errors.New("invalid-env")
)

type Config struct {
	AllowedOrigins []string
	JWTKey         string
	PostgresURL    string
	Port           string
	LogLevel       string
	Debug          bool
	PublicURL      string
	ShutdownGrace  time.Duration
	TokenAge       time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds the configuration from any env-like source.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	c := Config{
		Port:          "5000",
		LogLevel:      "info",
		ShutdownGrace: 30 * time.Second,
		TokenAge:      7 * 24 * time.Hour,
	}

	origins, ok := lookup("ALLOWED_ORIGINS")
	if !ok || strings.TrimSpace(origins) == "" {
		return Config{}, fmt.Errorf("%w: ALLOWED_ORIGINS", ErrMissingEnv)
	}
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			c.AllowedOrigins = append(c.AllowedOrigins, o)
		}
	}

	c.JWTKey, ok = lookup("JWT_KEY")
	if !ok || c.JWTKey == "" {
		return Config{}, fmt.Errorf("%w: JWT_KEY", ErrMissingEnv)
	}

	c.PostgresURL, _ = lookup("POSTGRES_URL")

	if v, ok := lookup("PORT"); ok && v != "" {
		c.Port = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup("DEBUG"); ok && v != "" {
		c.Debug = true
	}

	c.PublicURL, _ = lookup("PUBLIC_URL")
	if c.PublicURL == "" {
		c.PublicURL = c.AllowedOrigins[0]
	}
	c.PublicURL = strings.TrimRight(c.PublicURL, "/")

	if v, ok := lookup("SHUTDOWN_GRACE"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("%w: SHUTDOWN_GRACE=%q", ErrInvalidEnv, v)
		}
		c.ShutdownGrace = d
	}

	return c, nil
}
