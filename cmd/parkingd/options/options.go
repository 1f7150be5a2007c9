package options

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"parking-iot-backend/config"
	"parking-iot-backend/internal/logger"
	"parking-iot-backend/internal/registry"
	"parking-iot-backend/internal/traffic"
)

// ConfigPathEnv names the environment variable consulted when --config is not given.
const ConfigPathEnv = "CONFIG_PATH"

// defaultConfigPath is the location used for local development.
const defaultConfigPath = "./config/config.yaml"

// Options is the state shared by all subcommands.
type Options struct {
	ConfigFile string
	Config     *config.Config
}

var Env = &Options{}

// GetConfigPath resolves the configuration file: the flag, then CONFIG_PATH, then the
// development default if it exists. An empty result means built-in defaults.
func (o *Options) GetConfigPath() string {
	if o.ConfigFile != "" {
		return o.ConfigFile
	}
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

// Load reads the configuration and initialises the logger from it.
func (o *Options) Load() error {
	path := o.GetConfigPath()
	var cfg *config.Config
	if path == "" {
		cfg = config.Default()
	} else {
		var err error
		if cfg, err = config.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("configuration file %s does not exist", path)
			}
			return fmt.Errorf("load configuration: %w", err)
		}
	}

	if err := logger.Init(cfg.Log); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if path == "" {
		logger.BgLogger().Info("no configuration file found, using defaults")
	} else {
		logger.BgLogger().Info("configuration loaded", zap.String("path", path))
	}
	o.Config = cfg
	return nil
}

// Domain builds the facility registry and traffic model described by cfg.
func Domain(cfg *config.Config) (*registry.Registry, *traffic.Model, error) {
	var (
		reg *registry.Registry
		err error
	)
	if cfg.Generator.FacilitiesFile != "" {
		reg, err = registry.LoadFile(cfg.Generator.FacilitiesFile)
	} else {
		reg, err = registry.Default()
	}
	if err != nil {
		return nil, nil, err
	}

	tm := traffic.Default(
		traffic.WithLocation(cfg.Generator.Location),
		traffic.WithHolidays(cfg.Generator.Holidays...),
	)
	logger.BgLogger().Info("facility registry ready",
		zap.Int("facilities", reg.Len()), zap.Int("total_spots", reg.TotalSpots()),
		zap.String("timezone", tm.Location().String()))
	return reg, tm, nil
}
