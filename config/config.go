package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
	Providers  struct {
		Foursquare struct {
			BaseURL string        `mapstructure:"baseURL"`
			Timeout time.Duration `mapstructure:"timeout"`
		} `mapstructure:"foursquare"`
		TripAdvisor struct {
			BaseURL string        `mapstructure:"baseURL"`
			Timeout time.Duration `mapstructure:"timeout"`
		} `mapstructure:"tripadvisor"`
	} `mapstructure:"providers"`
}

// EnrichmentConfig carries the engine tunables. It is passed explicitly to
// the enrichment service constructor so the engine stays instantiable with
// different policies in tests.
type EnrichmentConfig struct {
	CacheExpiryDays     int           `mapstructure:"cacheExpiryDays"`
	MaxParallelRequests int           `mapstructure:"maxParallelRequests"`
	InterBatchDelay     time.Duration `mapstructure:"interBatchDelay"`
	MaxPOIsPerChunk     int           `mapstructure:"maxPoisPerChunk"`
	SweeperGraceDays    int           `mapstructure:"sweeperGraceDays"`
	SweeperInterval     time.Duration `mapstructure:"sweeperInterval"`
	HotCacheTTL         time.Duration `mapstructure:"hotCacheTTL"`
}

// DefaultEnrichmentConfig returns the process-wide defaults used when the
// config file leaves the enrichment section empty.
func DefaultEnrichmentConfig() EnrichmentConfig {
	return EnrichmentConfig{
		CacheExpiryDays:     30,
		MaxParallelRequests: 5,
		InterBatchDelay:     200 * time.Millisecond,
		MaxPOIsPerChunk:     10,
		SweeperGraceDays:    7,
		SweeperInterval:     12 * time.Hour,
		HotCacheTTL:         10 * time.Minute,
	}
}

// ApplyDefaults fills zero-valued tunables with the package defaults.
func (c *EnrichmentConfig) ApplyDefaults() {
	d := DefaultEnrichmentConfig()
	if c.CacheExpiryDays <= 0 {
		c.CacheExpiryDays = d.CacheExpiryDays
	}
	if c.MaxParallelRequests <= 0 {
		c.MaxParallelRequests = d.MaxParallelRequests
	}
	if c.InterBatchDelay <= 0 {
		c.InterBatchDelay = d.InterBatchDelay
	}
	if c.MaxPOIsPerChunk <= 0 {
		c.MaxPOIsPerChunk = d.MaxPOIsPerChunk
	}
	if c.SweeperGraceDays <= 0 {
		c.SweeperGraceDays = d.SweeperGraceDays
	}
	if c.SweeperInterval <= 0 {
		c.SweeperInterval = d.SweeperInterval
	}
	if c.HotCacheTTL <= 0 {
		c.HotCacheTTL = d.HotCacheTTL
	}
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Unmarshal the config into the Config struct
	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	config.Enrichment.ApplyDefaults()
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}
