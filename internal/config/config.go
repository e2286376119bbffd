package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Flare row policies
const (
	FlareRowsLenient = "lenient"
	FlareRowsStrict  = "strict"
)

// Upstream endpoint names
const (
	EndpointSolarFlare  = "solar_flare"
	EndpointGeomagnetic = "geomagnetic"
)

// Config holds all configuration for the space-weather aggregator
type Config struct {
	// Server configuration
	AppName string `env:"APP_NAME,default=Solar Guardian" validate:"required"`
	Host    string `env:"HOST,default=0.0.0.0"`
	Port    string `env:"PORT,default=8000" validate:"required,numeric"`

	// Data source URLs
	SolarFlareURL  string `env:"SOLAR_FLARE_URL,default=https://services.swpc.noaa.gov/json/goes/primary/xrays-6-hour.json" validate:"required,url"`
	GeomagneticURL string `env:"GEOMAGNETIC_URL,default=https://services.swpc.noaa.gov/products/noaa-planetary-k-index.json" validate:"required,url"`

	// Caching. CacheDuration is in seconds; 0 disables the cache.
	CacheDuration     int           `env:"CACHE_DURATION,default=300" validate:"gte=0"`
	CacheWarmInterval time.Duration `env:"CACHE_WARM_INTERVAL,default=0s" validate:"gte=0"`

	// Upstream client behaviour
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT,default=30s" validate:"gt=0"`
	UpstreamRetries int           `env:"UPSTREAM_RETRIES,default=0" validate:"gte=0,lte=10"`
	BreakerFailures uint32        `env:"BREAKER_FAILURES,default=5" validate:"gte=1"`
	BreakerCooldown time.Duration `env:"BREAKER_COOLDOWN,default=1m" validate:"gt=0"`

	// Normalization
	FlareRowPolicy string `env:"FLARE_ROW_POLICY,default=lenient" validate:"oneof=lenient strict"`
	ClassifyStorms bool   `env:"CLASSIFY_STORMS,default=false"`

	// Local development
	MockupMode bool `env:"MOCKUP_MODE,default=false"`

	// Service configuration
	Environment string `env:"ENVIRONMENT,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info" validate:"oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`
	LogFormat   string `env:"LOG_FORMAT,default=json" validate:"oneof=json text"`
}

var validate = validator.New()

// Load reads an optional .env file, then environment variables.
// Variables already present in the environment win over the .env file.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith processes configuration from the given lookuper
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// CacheTTL returns the upstream cache lifetime
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheDuration) * time.Second
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// StrictFlareRows reports whether a malformed flare row fails the report
func (c *Config) StrictFlareRows() bool {
	return c.FlareRowPolicy == FlareRowsStrict
}

// Endpoints returns the named upstream URLs
func (c *Config) Endpoints() map[string]string {
	return map[string]string{
		EndpointSolarFlare:  c.SolarFlareURL,
		EndpointGeomagnetic: c.GeomagneticURL,
	}
}
