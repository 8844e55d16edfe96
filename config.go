package opennow

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config groups the SDK tunables. Values are taken from environment
// variables with the prefix "OPENNOW_" and validated on load; functional
// options override individual fields after construction.
type Config struct {
	BaseURL     string        `envconfig:"BASE_URL" validate:"omitempty,url"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s" validate:"gt=0"`

	// Open-status cache.
	StatusTTL           time.Duration `envconfig:"STATUS_TTL" default:"30s" validate:"gt=0"`
	WarmupCooldown      time.Duration `envconfig:"WARMUP_COOLDOWN" default:"4m" validate:"gt=0"`
	StatusRetryAttempts int           `envconfig:"STATUS_RETRY_ATTEMPTS" default:"3" validate:"gte=1"`
	StatusRetryDelay    time.Duration `envconfig:"STATUS_RETRY_DELAY" default:"1200ms" validate:"gt=0"`

	// 24-hour cafe session.
	CafesTTL time.Duration `envconfig:"CAFES_TTL" default:"2m" validate:"gt=0"`

	// Gateway response cache TTLs for the designated read endpoints.
	PlacesCacheTTL time.Duration `envconfig:"PLACES_CACHE_TTL" default:"30s" validate:"gte=0"`
	StatusLogTTL   time.Duration `envconfig:"STATUS_LOG_TTL" default:"15s" validate:"gte=0"`
	CafesCacheTTL  time.Duration `envconfig:"CAFES_CACHE_TTL" default:"60s" validate:"gte=0"`

	// Geolocation.
	GeoTimeout      time.Duration `envconfig:"GEO_TIMEOUT" default:"8s" validate:"gt=0"`
	GeoHighAccuracy bool          `envconfig:"GEO_HIGH_ACCURACY" default:"true"`

	// Discovery.
	SearchRadiusMeters int `envconfig:"SEARCH_RADIUS_M" default:"1000" validate:"gt=0"`
}

// LoadConfig populates Config from the environment and validates it.
func LoadConfig() (Config, error) {
	var c Config
	if err := envconfig.Process("OPENNOW", &c); err != nil {
		return c, err
	}
	if err := validator.New().Struct(c); err != nil {
		return c, err
	}
	return c, nil
}

// defaultConfig returns the compiled-in defaults, ignoring the
// environment. Used when the embedder configures everything through
// options.
func defaultConfig() Config {
	return Config{
		HTTPTimeout:         30 * time.Second,
		StatusTTL:           30 * time.Second,
		WarmupCooldown:      4 * time.Minute,
		StatusRetryAttempts: 3,
		StatusRetryDelay:    1200 * time.Millisecond,
		CafesTTL:            2 * time.Minute,
		PlacesCacheTTL:      30 * time.Second,
		StatusLogTTL:        15 * time.Second,
		CafesCacheTTL:       60 * time.Second,
		GeoTimeout:          8 * time.Second,
		GeoHighAccuracy:     true,
		SearchRadiusMeters:  1000,
	}
}
