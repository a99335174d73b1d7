// Package config loads runtime configuration from environment variables.
//
// A .env file in the working directory is read first if present (local
// development convenience); real environments set the variables directly.
// The Config is built once in main and passed down explicitly; nothing in
// the application reads the environment after startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultPort         = 8080
	DefaultDBPath       = "data/blog.db"
	DefaultAccessTTLMin = 30
	DefaultBcryptCost   = 12
)

// Config holds every runtime setting.
type Config struct {
	Port       int           // HTTP port to listen on (PORT)
	DBPath     string        // SQLite database file, ":memory:" allowed (DB_PATH)
	JWTSecret  string        // signing secret for access tokens (JWT_SECRET)
	AccessTTL  time.Duration // access token lifetime (ACCESS_TOKEN_TTL_MIN)
	BcryptCost int           // bcrypt work factor (BCRYPT_COST)

	// GitHub OAuth app credentials. Both IDs empty disables the GitHub
	// login routes; the password flow is unaffected.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// Redis settings for login rate limiting. Empty RedisAddr disables it.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads the environment (and optional .env) into a Config.
// JWT_SECRET is the only required variable.
func Load() (Config, error) {
	// Ignore a missing .env; it's only a dev convenience.
	_ = godotenv.Load()

	cfg := Config{
		Port:       DefaultPort,
		DBPath:     DefaultDBPath,
		JWTSecret:  os.Getenv("JWT_SECRET"),
		AccessTTL:  time.Duration(DefaultAccessTTLMin) * time.Minute,
		BcryptCost: DefaultBcryptCost,

		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  os.Getenv("GITHUB_CALLBACK_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: JWT_SECRET is required")
	}

	var err error
	if cfg.Port, err = intEnv("PORT", cfg.Port); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	ttlMin, err := intEnv("ACCESS_TOKEN_TTL_MIN", DefaultAccessTTLMin)
	if err != nil {
		return Config{}, err
	}
	if ttlMin <= 0 {
		return Config{}, fmt.Errorf("config: ACCESS_TOKEN_TTL_MIN must be positive, got %d", ttlMin)
	}
	cfg.AccessTTL = time.Duration(ttlMin) * time.Minute

	if cfg.BcryptCost, err = intEnv("BCRYPT_COST", cfg.BcryptCost); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = intEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}

	if cfg.GitHubClientID != "" && cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	return cfg, nil
}

// GitHubEnabled reports whether the GitHub login routes should be mounted.
func (c Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// intEnv parses an integer variable, returning def when unset.
func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid int for %s: %q", key, v)
	}
	return n, nil
}
