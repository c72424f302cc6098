package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/resonance-continuum/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Refresh loop.
	RefreshInterval time.Duration
	PsiDefault      float64

	// Upstream feeds.
	FeedTimeout  time.Duration
	FeedRetries  int
	FeedTTL      time.Duration
	CMEEnabled   bool
	NASAAPIKey   string
	GeomagURL    string
	SolarWindURL string
	DONKIURL     string
	INGVURL      string

	// Synthetic seismic fallback.
	SynthProfile domain.SynthProfile
	SynthSeed    uint64

	// Snapshot sinks. Empty values disable the sink.
	KafkaBrokers []string
	KafkaTopic   string
	ArchivePath  string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	refreshSeconds, err := parseInt("REFRESH_INTERVAL", 60, 1, 24*60*60)
	if err != nil {
		return nil, err
	}

	psi, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("PSI_DEFAULT", "0.72"), 64)
	if err != nil {
		return nil, errors.New("invalid PSI_DEFAULT: must be a number")
	}
	if err := domain.ValidatePsi(psi); err != nil {
		return nil, fmt.Errorf("invalid PSI_DEFAULT: %w", err)
	}

	feedTimeout, err := parsePositiveDuration("FEED_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	feedTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("FEED_TTL", "600s"))
	if err != nil || feedTTL < 0 {
		return nil, errors.New("invalid FEED_TTL: must be a non-negative duration")
	}

	feedRetries, err := parseInt("FEED_RETRIES", 1, 0, 5)
	if err != nil {
		return nil, err
	}

	profile, err := domain.ProfileByName(sharedcfg.EnvOrDefault("SYNTH_PROFILE", domain.ProfileCalm.Name))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNTH_PROFILE: %w", err)
	}

	seed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("SYNTH_SEED", "0"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid SYNTH_SEED: must be a non-negative integer")
	}

	cmeEnabled, err := strconv.ParseBool(sharedcfg.EnvOrDefault("CME_ENABLED", "true"))
	if err != nil {
		return nil, errors.New("invalid CME_ENABLED: must be a boolean")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		RefreshInterval: time.Duration(refreshSeconds) * time.Second,
		PsiDefault:      psi,

		FeedTimeout:  feedTimeout,
		FeedRetries:  feedRetries,
		FeedTTL:      feedTTL,
		CMEEnabled:   cmeEnabled,
		NASAAPIKey:   sharedcfg.EnvOrDefault("NASA_API_KEY", "DEMO_KEY"),
		GeomagURL:    os.Getenv("NOAA_GEOMAG_URL"),
		SolarWindURL: os.Getenv("NOAA_SOLAR_WIND_URL"),
		DONKIURL:     os.Getenv("NASA_DONKI_URL"),
		INGVURL:      os.Getenv("INGV_URL"),

		SynthProfile: profile,
		SynthSeed:    seed,

		KafkaBrokers: sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "continuum-snapshots"),
		ArchivePath:  os.Getenv("ARCHIVE_PATH"),
	}

	return cfg, nil
}

// KafkaEnabled reports whether snapshots should be published to Kafka.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// ArchiveEnabled reports whether snapshots should be archived to SQLite.
func (c *Config) ArchiveEnabled() bool { return c.ArchivePath != "" }

func parseInt(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be %d-%d", key, lo, hi)
	}
	return n, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}
