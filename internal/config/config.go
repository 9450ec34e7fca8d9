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
	Index     IndexConfig     `yaml:"index" mapstructure:"index"`
	Resolver  ResolverConfig  `yaml:"resolver" mapstructure:"resolver"`
	Geometry  GeometryConfig  `yaml:"geometry" mapstructure:"geometry"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Nominatim NominatimConfig `yaml:"nominatim" mapstructure:"nominatim"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// IndexConfig configures the boundary index builder and loader.
type IndexConfig struct {
	// Roots are scanned in order; on a name collision the later file wins.
	Roots []string `yaml:"roots" mapstructure:"roots"`
	// DataRoot is the base directory indexed paths are stored relative to.
	// Other tools consume the persisted index, so changing it invalidates
	// every stored path.
	DataRoot       string   `yaml:"data_root" mapstructure:"data_root"`
	Path           string   `yaml:"path" mapstructure:"path"`
	Extensions     []string `yaml:"extensions" mapstructure:"extensions"`
	LevelFields    []string `yaml:"level_fields" mapstructure:"level_fields"`
	CheckFreshness bool     `yaml:"check_freshness" mapstructure:"check_freshness"`
}

// ResolverConfig configures fuzzy place-name resolution.
type ResolverConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
}

// GeometryConfig configures boundary geometry cleaning.
type GeometryConfig struct {
	SimplifyTolerance float64 `yaml:"simplify_tolerance" mapstructure:"simplify_tolerance"`
}

// OutputConfig configures GeoJSON output.
type OutputConfig struct {
	Dir    string `yaml:"dir" mapstructure:"dir"`
	Pretty bool   `yaml:"pretty" mapstructure:"pretty"`
}

// BatchConfig holds the place names processed per run. Kept in configuration
// rather than source so runs can be parameterized without a rebuild.
type BatchConfig struct {
	Places []string `yaml:"places" mapstructure:"places"`
}

// NominatimConfig configures the OSM geocoding client.
type NominatimConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// Timeout returns the per-request timeout as a duration.
func (c NominatimConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// StoreConfig configures the optional run-log database. An empty path
// disables persistence entirely.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BOUNDARYGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("index.roots", []string{"data/provinces/medres", "data/cities/medres"})
	v.SetDefault("index.data_root", "data")
	v.SetDefault("index.path", "data/boundary_index.json")
	v.SetDefault("index.extensions", []string{".json", ".geojson", ".shp"})
	v.SetDefault("index.level_fields", []string{"ADM2_EN", "ADM3_EN"})
	v.SetDefault("index.check_freshness", false)
	v.SetDefault("resolver.similarity_threshold", 0.70)
	v.SetDefault("geometry.simplify_tolerance", 0.0001)
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.pretty", false)
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.user_agent", "geo-boundary-automation")
	v.SetDefault("nominatim.timeout_secs", 30)
	v.SetDefault("nominatim.rate_limit", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
