package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (STORE_ prefix), flags, or YAML config files.
type Config struct {
	Addr string `default:"0.0.0.0:8080" usage:"API server listen address"`
	// DatabaseURL enables the durable order store. Empty keeps orders in
	// memory.
	DatabaseURL string `usage:"PostgreSQL connection URL (STORE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Cafe24      Cafe24Config
	Toss        TossConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// Cafe24Config configures the mall vendor client.
type Cafe24Config struct {
	MallID       string `usage:"Cafe24 mall id (STORE_CAFE24_MALL_ID)" flag:"cafe24-mall-id"`
	ClientID     string `usage:"Cafe24 OAuth client id" flag:"cafe24-client-id"`
	ClientSecret string `usage:"Cafe24 OAuth client secret" flag:"cafe24-client-secret"`
	RedirectURI  string `usage:"Cafe24 OAuth redirect URI" flag:"cafe24-redirect-uri"`
	TokenFile    string `default:"token.json" usage:"Path to the persisted OAuth token" flag:"cafe24-token-file"`
	// Seed tokens bootstrap a deployment before the OAuth flow has run.
	AccessToken  string `usage:"Seed access token" flag:"cafe24-access-token"`
	RefreshToken string `usage:"Seed refresh token" flag:"cafe24-refresh-token"`
}

// TossConfig configures the payment processor client.
type TossConfig struct {
	SecretKey string `usage:"Toss Payments secret key (STORE_TOSS_SECRET_KEY)" flag:"toss-secret-key"`
	ClientKey string `usage:"Toss Payments client key, served to browsers" flag:"toss-client-key"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (cart cookie)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STORE",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.Cafe24.MallID == "" {
		return nil, errors.New("mall id is required: set STORE_CAFE24_MALL_ID")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and PORT
// to the application's STORE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
