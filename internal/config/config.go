package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all routemap settings.
type Config struct {
	Origin    OriginConfig   `mapstructure:"origin"`
	Perimeter float64        `mapstructure:"perimeter" validate:"gte=0"`
	Input     InputConfig    `mapstructure:"input"`
	Provider  ProviderConfig `mapstructure:"provider"`
	Overpass  OverpassConfig `mapstructure:"overpass"`
	MySQL     MySQLConfig    `mapstructure:"mysql"`
	Valkey    ValkeyConfig   `mapstructure:"valkey"`
	Cache     CacheConfig    `mapstructure:"cache"`
	Batch     BatchConfig    `mapstructure:"batch"`
	Render    RenderConfig   `mapstructure:"render"`
	Report    ReportConfig   `mapstructure:"report"`
	Metrics   MetricsConfig  `mapstructure:"metrics"`
	Server    ServerConfig   `mapstructure:"server"`
	Log       LogConfig      `mapstructure:"log"`
}

type OriginConfig struct {
	Lat float64 `mapstructure:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `mapstructure:"lon" validate:"gte=-180,lte=180"`
}

type InputConfig struct {
	Targets string `mapstructure:"targets" validate:"required"`
}

type ProviderConfig struct {
	Name string `mapstructure:"name" validate:"oneof=overpass mysql"`
}

type OverpassConfig struct {
	Endpoint   string        `mapstructure:"endpoint" validate:"required,url"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries int           `mapstructure:"max_retries" validate:"gte=0"`
	RetryWait  time.Duration `mapstructure:"retry_wait" validate:"gt=0"`
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type ValkeyConfig struct {
	Addr   string        `mapstructure:"addr"`
	Prefix string        `mapstructure:"prefix"`
	TTL    time.Duration `mapstructure:"ttl" validate:"gte=1s"`
}

type CacheConfig struct {
	Graphs int  `mapstructure:"graphs" validate:"gte=0"`
	Routes bool `mapstructure:"routes"`
}

type BatchConfig struct {
	SkipFailed bool `mapstructure:"skip_failed"`
}

type RenderConfig struct {
	ImagePath  string  `mapstructure:"image_path"`
	HTMLPath   string  `mapstructure:"html_path"`
	Scale      float64 `mapstructure:"scale" validate:"gt=0,lte=10"`
	Quality    int     `mapstructure:"quality" validate:"gte=1,lte=100"`
	Width      int     `mapstructure:"width" validate:"gt=0"`
	Height     int     `mapstructure:"height" validate:"gt=0"`
	Title      string  `mapstructure:"title"`
	CreateDirs bool    `mapstructure:"create_dirs"`
	Open       bool    `mapstructure:"open"`
	FitBounds  bool    `mapstructure:"fit_bounds"`
	CenterLat  float64 `mapstructure:"center_lat" validate:"gte=-90,lte=90"`
	CenterLon  float64 `mapstructure:"center_lon" validate:"gte=-180,lte=180"`
	Zoom       float64 `mapstructure:"zoom" validate:"gte=0,lte=22"`
}

type ReportConfig struct {
	Path string `mapstructure:"path"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("origin.lat", 48.1372038)
	v.SetDefault("origin.lon", 11.565651)
	v.SetDefault("perimeter", 0.10)
	v.SetDefault("input.targets", "data/geocoordinates.csv")
	v.SetDefault("provider.name", "overpass")
	v.SetDefault("overpass.endpoint", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.timeout", "180s")
	v.SetDefault("overpass.max_retries", 3)
	v.SetDefault("overpass.retry_wait", "2s")
	v.SetDefault("mysql.dsn", "")
	v.SetDefault("valkey.addr", "")
	v.SetDefault("valkey.prefix", "routemap:")
	v.SetDefault("valkey.ttl", "168h")
	v.SetDefault("cache.graphs", 8)
	v.SetDefault("cache.routes", true)
	v.SetDefault("batch.skip_failed", false)
	v.SetDefault("render.image_path", "output/dijkstra_map.jpg")
	v.SetDefault("render.html_path", "output/dijkstra_map.html")
	v.SetDefault("render.scale", 3)
	v.SetDefault("render.quality", 90)
	v.SetDefault("render.width", 1000)
	v.SetDefault("render.height", 1000)
	v.SetDefault("render.title", "The Shortest Paths Dijkstra Map")
	v.SetDefault("render.create_dirs", false)
	v.SetDefault("render.open", true)
	v.SetDefault("render.fit_bounds", true)
	v.SetDefault("render.center_lat", 48.14)
	v.SetDefault("render.center_lon", 11.57)
	v.SetDefault("render.zoom", 12.2)
	v.SetDefault("report.path", "output/routes.xlsx")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration from defaults, an optional file, ROUTEMAP_*
// environment variables and finally the explicit overrides. An empty file
// path looks for routemap.yaml in . and ./configs; a given path must exist.
func Load(file string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("routemap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// ROUTEMAP_RENDER_IMAGE_PATH → render.image_path
	v.SetEnvPrefix("ROUTEMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for k, val := range overrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks field ranges and cross-field requirements.
func (c *Config) Validate() error {
	var errs []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("config validation: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
	}

	if c.Provider.Name == "mysql" && c.MySQL.DSN == "" {
		errs = append(errs, "mysql.dsn is required when provider.name is mysql")
	}
	if c.Render.ImagePath == "" && c.Render.HTMLPath == "" {
		errs = append(errs, "render.image_path or render.html_path must be set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// FromFlags parses the command line of a routemap tool and loads the config
// with the flag values layered on top.
func FromFlags(name string, args []string) (*Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	var file, targets, provider, logLevel, addr, dsn string
	var skip bool
	fs.StringVar(&file, "config", "", "config file (yaml, json or toml)")
	fs.StringVar(&targets, "targets", "", "destination CSV or XLSX file")
	fs.StringVar(&provider, "provider", "", "road graph provider: overpass or mysql")
	fs.StringVar(&dsn, "dsn", "", "MySQL DSN for the mysql provider")
	fs.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&addr, "addr", "", "HTTP bind address")
	fs.BoolVar(&skip, "skip-failed", false, "skip destinations without a path instead of aborting")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	overrides := map[string]any{}
	set := func(key, val string) {
		if val != "" {
			overrides[key] = val
		}
	}
	set("input.targets", targets)
	set("provider.name", provider)
	set("mysql.dsn", dsn)
	set("log.level", logLevel)
	set("server.addr", addr)
	if skip {
		overrides["batch.skip_failed"] = true
	}

	return Load(file, overrides)
}
