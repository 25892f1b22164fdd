package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	AppName string `mapstructure:"app_name"`

	Database struct {
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
		Query  string `mapstructure:"query"`
	} `mapstructure:"database"`

	Preview struct {
		MaxRows int `mapstructure:"max_rows"`
	} `mapstructure:"preview"`

	Log struct {
		Debug bool `mapstructure:"debug"`
	} `mapstructure:"log"`
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("preview.max_rows", 50)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Database.Driver == "" {
		return nil, fmt.Errorf("config: database.driver is required")
	}
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("config: database.dsn is required")
	}

	return &cfg, nil
}
