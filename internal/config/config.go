package config

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/google/uuid"
	"github.com/jub0bs/cors"
)

// Environment variables with defaults
type Config struct {
	Environment       string        `env:"ENVIRONMENT,default=dev"`
	Host              string        `env:"HOST,default=0.0.0.0"`
	Port              int           `env:"PORT,default=8080"`
	LogLevel          string        `env:"LOG_LEVEL,default=debug"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT,default=60s"` // must outlast a feed request with all its retries
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	APIBaseURL        string        `env:"API_BASE_URL"` // defaults to this server (see below)
	ClientTimeout     time.Duration `env:"CLIENT_TIMEOUT,default=15s"`
	ClientRetryLimit  int           `env:"CLIENT_RETRY_LIMIT,default=2"`
	AllowedOrigins    []string      `env:"ALLOWED_ORIGINS,separator=|"`
	MaxAPIRequestSize int64         `env:"MAX_API_REQUEST_SIZE,default=65536"` // 64KB
	RateLimitRPS      int32         `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst    int32         `env:"RATE_LIMIT_BURST,default=20"`
	ContentFile       string        `env:"CONTENT_FILE"` // toml content file, the built-in content is used when not set
	SiteTitle         string        `env:"SITE_TITLE,default=TechStackPH"`
	SiteAPIToken      string        `env:"SITE_API_TOKEN"` // sent by the site and exempt from API rate limits, generated in all mode when not set
	ServiceMode       string        `env:"SERVICE_MODE"` // Set by CLI flag, not env var
}

// CORSConfigs holds the CORS middleware instances for the content API
type CORSConfigs struct {
	Public    *cors.Middleware // feed endpoints
	Protected *cors.Middleware // form endpoints
}

const (
	// Operational timeouts
	ServerShutdownTimeout = 10 * time.Second
	RouterTimeout         = 60 * time.Second

	// CORS settings
	CORSMaxAgeInSeconds = 86400 // 24 hours
)

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"perf":    true,
	"prod":    true,
	"staging": true,
}

var ValidServiceModes = map[string]bool{
	"all":  true, // content API + site
	"api":  true, // content API only
	"site": true, // site only, API_BASE_URL points at a separate content API
}

// NewConfig loads environment variables and returns the config and the CORS middleware built from it
func NewConfig() (*Config, *CORSConfigs, error) {
	var cfg Config

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	// the site calls the content API served by this process unless told otherwise
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}

	// in all mode the site and the API share the process, so the token never needs to leave it
	if cfg.ServiceMode == "all" && cfg.SiteAPIToken == "" {
		cfg.SiteAPIToken = uuid.NewString()
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	corsConfigs, err := createCORSConfigs(&cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("CORS configuration failed: %w", err)
	}

	return &cfg, corsConfigs, nil
}

// validateConfig checks the env variables and fills in the defaults that depend on the environment
func validateConfig(cfg *Config) error {
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if cfg.ReadTimeout <= 0 {
		return fmt.Errorf("READ_TIMEOUT must be positive, got %v", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout <= 0 {
		return fmt.Errorf("WRITE_TIMEOUT must be positive, got %v", cfg.WriteTimeout)
	}
	if cfg.IdleTimeout <= 0 {
		return fmt.Errorf("IDLE_TIMEOUT must be positive, got %v", cfg.IdleTimeout)
	}
	if cfg.ClientTimeout <= 0 {
		return fmt.Errorf("CLIENT_TIMEOUT must be positive, got %v", cfg.ClientTimeout)
	}
	if cfg.ClientRetryLimit < 0 {
		return fmt.Errorf("CLIENT_RETRY_LIMIT must be 0 or greater")
	}
	// the site must still be able to write the error notice after the last attempt times out
	if cfg.ServiceMode != "api" {
		if budget := cfg.ClientTimeout * time.Duration(cfg.ClientRetryLimit+1); cfg.WriteTimeout <= budget {
			return fmt.Errorf("WRITE_TIMEOUT (%v) must be greater than CLIENT_TIMEOUT x (CLIENT_RETRY_LIMIT+1) (%v)", cfg.WriteTimeout, budget)
		}
	}
	if cfg.MaxAPIRequestSize <= 0 {
		return fmt.Errorf("MAX_API_REQUEST_SIZE must be positive")
	}

	if cfg.ServiceMode != "" && !ValidServiceModes[cfg.ServiceMode] {
		return fmt.Errorf("invalid service mode: %s", cfg.ServiceMode)
	}

	u, err := url.ParseRequestURI(cfg.APIBaseURL)
	if err != nil {
		return fmt.Errorf("API_BASE_URL is not a valid URL: %s", cfg.APIBaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API_BASE_URL does not include a valid scheme (http or https): %s", cfg.APIBaseURL)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("API_BASE_URL does not include a host: %s", cfg.APIBaseURL)
	}

	if cfg.Environment == "prod" || cfg.Environment == "staging" {
		if len(cfg.AllowedOrigins) == 0 {
			return fmt.Errorf("ALLOWED_ORIGINS must be set in %v", cfg.Environment)
		}
		if cfg.AllowedOrigins[0] == "*" {
			return fmt.Errorf("ALLOWED_ORIGINS must not be set to '*' in %v", cfg.Environment)
		}
	}

	// default to all origins when not in prod/staging
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	return nil
}

// createCORSConfigs creates the CORS configurations based on the server config
func createCORSConfigs(cfg *Config) (*CORSConfigs, error) {
	origins := make([]string, len(cfg.AllowedOrigins))
	for i, origin := range cfg.AllowedOrigins {
		origins[i] = strings.TrimSpace(origin)
	}

	publicConfig := cors.Config{
		Origins: []string{"*"},
		Methods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodOptions,
		},
		RequestHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Requested-With",
		},
		MaxAgeInSeconds: CORSMaxAgeInSeconds,
	}

	publicMiddleware, err := cors.NewMiddleware(publicConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create public CORS middleware: %w", err)
	}

	protectedConfig := cors.Config{
		Origins: origins,
		Methods: []string{
			http.MethodPost,
			http.MethodOptions,
		},
		RequestHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Requested-With",
		},
		MaxAgeInSeconds: CORSMaxAgeInSeconds,
	}

	protectedMiddleware, err := cors.NewMiddleware(protectedConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create protected CORS middleware: %w", err)
	}

	return &CORSConfigs{
		Public:    publicMiddleware,
		Protected: protectedMiddleware,
	}, nil
}
