package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Gazetteer GazetteerConfig `yaml:"gazetteer" mapstructure:"gazetteer"`
	Predict   PredictConfig   `yaml:"predict" mapstructure:"predict"`
	Georef    GeorefConfig    `yaml:"georef" mapstructure:"georef"`
	Registry  RegistryConfig  `yaml:"registry" mapstructure:"registry"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// GeocodeConfig configures the Google geocoding client and its cache.
type GeocodeConfig struct {
	GoogleKey     string        `yaml:"google_key" mapstructure:"google_key"`
	BaseURL       string        `yaml:"base_url" mapstructure:"base_url"`
	RPS           float64       `yaml:"rps" mapstructure:"rps"`
	TimeoutSecs   int           `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CacheSize     int           `yaml:"cache_size" mapstructure:"cache_size"`
	CacheTTL      time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	RetryAttempts int           `yaml:"retry_attempts" mapstructure:"retry_attempts"`
}

// GazetteerConfig selects a local gazetteer consulted before the geocoder.
type GazetteerConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Table       string `yaml:"table" mapstructure:"table"`
	Shapefile   string `yaml:"shapefile" mapstructure:"shapefile"`
	NameField   string `yaml:"name_field" mapstructure:"name_field"`
}

// PredictConfig configures the locality-kind predictor.
type PredictConfig struct {
	AnthropicKey string `yaml:"anthropic_key" mapstructure:"anthropic_key"`
	Model        string `yaml:"model" mapstructure:"model"`
	MaxTokens    int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// GeorefConfig configures the georeferencing engine.
type GeorefConfig struct {
	Geodesy      string `yaml:"geodesy" mapstructure:"geodesy"`
	DefaultDatum string `yaml:"default_datum" mapstructure:"default_datum"`
}

// RegistryConfig points lookup tables at external YAML files.
type RegistryConfig struct {
	Units    string `yaml:"units" mapstructure:"units"`
	Headings string `yaml:"headings" mapstructure:"headings"`
	Datums   string `yaml:"datums" mapstructure:"datums"`
	Sources  string `yaml:"sources" mapstructure:"sources"`
}

// BatchConfig configures batch georeferencing.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOREF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("geocode.google_key", "")
	v.SetDefault("geocode.base_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("geocode.rps", 10.0)
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("geocode.cache_size", 1000)
	v.SetDefault("geocode.cache_ttl", 24*time.Hour)
	v.SetDefault("geocode.retry_attempts", 3)
	v.SetDefault("gazetteer.driver", "none")
	v.SetDefault("gazetteer.database_url", "")
	v.SetDefault("gazetteer.shapefile", "")
	v.SetDefault("gazetteer.table", "gazetteer")
	v.SetDefault("gazetteer.name_field", "NAME")
	v.SetDefault("predict.anthropic_key", "")
	v.SetDefault("predict.model", "claude-haiku-4-5-20251001")
	v.SetDefault("predict.max_tokens", 64)
	v.SetDefault("georef.geodesy", "spherical")
	v.SetDefault("georef.default_datum", "WGS84")
	v.SetDefault("registry.units", "")
	v.SetDefault("registry.headings", "")
	v.SetDefault("registry.datums", "")
	v.SetDefault("registry.sources", "")
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes: "georef",
// "geocode", "predict", "batch", "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Georef.Geodesy {
	case "spherical", "ellipsoidal":
	default:
		errs = append(errs, "georef.geodesy must be spherical or ellipsoidal")
	}

	switch mode {
	case "georef":
	case "geocode":
		errs = append(errs, c.validateGeocode()...)
	case "predict":
		if c.Predict.AnthropicKey == "" {
			errs = append(errs, "predict.anthropic_key is required")
		}
		if c.Predict.MaxTokens <= 0 {
			errs = append(errs, "predict.max_tokens must be > 0")
		}
	case "batch":
		errs = append(errs, c.validateConcurrency()...)
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		errs = append(errs, c.validateGazetteer()...)
		errs = append(errs, c.validateConcurrency()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateGeocode() []string {
	var errs []string
	if c.Geocode.GoogleKey == "" && c.Gazetteer.Driver == "none" {
		errs = append(errs, "geocode.google_key is required when no gazetteer is configured")
	}
	if c.Geocode.RPS <= 0 {
		errs = append(errs, "geocode.rps must be > 0")
	}
	return append(errs, c.validateGazetteer()...)
}

func (c *Config) validateGazetteer() []string {
	switch c.Gazetteer.Driver {
	case "", "none":
	case "postgis":
		if c.Gazetteer.DatabaseURL == "" {
			return []string{"gazetteer.database_url is required for the postgis driver"}
		}
	case "shapefile":
		if c.Gazetteer.Shapefile == "" {
			return []string{"gazetteer.shapefile is required for the shapefile driver"}
		}
	default:
		return []string{"gazetteer.driver must be none, postgis, or shapefile"}
	}
	return nil
}

func (c *Config) validateConcurrency() []string {
	if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 64 {
		return []string{"batch.concurrency must be between 1 and 64"}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
