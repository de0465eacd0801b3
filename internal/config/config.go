package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const EnvPrefix = "ROUTE_SITES"

type DistanceConfig struct {
	Default float64 `mapstructure:"default" validate:"gtefield=Min,ltefield=Max"`
	Min     float64 `mapstructure:"min" validate:"gt=0"`
	Max     float64 `mapstructure:"max" validate:"gtfield=Min"`
}

type MapConfig struct {
	CenterLat float64 `mapstructure:"center_lat" validate:"min=-90,max=90"`
	CenterLon float64 `mapstructure:"center_lon" validate:"min=-180,max=180"`
	Zoom      int     `mapstructure:"zoom" validate:"min=1,max=19"`
}

type Config struct {
	Port            int            `mapstructure:"port" validate:"gt=0,lt=65536"`
	FacilitiesPath  string         `mapstructure:"facilities_path" validate:"required"`
	FacilitiesSheet string         `mapstructure:"facilities_sheet"`
	RoutesPath      string         `mapstructure:"routes_path" validate:"required"`
	LogLevel        string         `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat       string         `mapstructure:"log_format" validate:"oneof=console json"`
	Distance        DistanceConfig `mapstructure:"distance"`
	Map             MapConfig      `mapstructure:"map"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 9595)
	v.SetDefault("facilities_path", "Etablissements_Rhone_Alpes.xlsx")
	v.SetDefault("facilities_sheet", "")
	v.SetDefault("routes_path", "calculated_routes.json")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("distance.default", 20)
	v.SetDefault("distance.min", 1)
	v.SetDefault("distance.max", 50)
	v.SetDefault("map.center_lat", 45.5)
	v.SetDefault("map.center_lon", 5.5)
	v.SetDefault("map.zoom", 8)
}

// Load reads configFile, or config.yaml from the working directory when
// configFile is empty, then applies ROUTE_SITES_* environment overrides.
// A missing config.yaml is not an error; a missing explicit file is.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// PORT is what most hosts set
	if err := v.BindEnv("port", EnvPrefix+"_PORT", "PORT"); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
