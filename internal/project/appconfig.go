// Package project persists the application config, the roll catalog and the
// order book as files under the user's rollplan directory.
package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/megastock/rollplan/internal/model"
)

// EnvPrefix prefixes environment overrides, e.g. ROLLPLAN_DEFAULT_SAFETY_MARGIN.
const EnvPrefix = "ROLLPLAN"

// DefaultConfigDir returns the default directory for application files.
// On all platforms this is ~/.rollplan/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".rollplan")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// SaveAppConfig persists an AppConfig to the given path as JSON.
// It creates any missing parent directories automatically.
func SaveAppConfig(path string, config model.AppConfig) error {
	return writeJSON(path, config)
}

// LoadAppConfig reads an AppConfig from a JSON or YAML file, falling back to
// DefaultAppConfig for missing keys. ROLLPLAN_* environment variables
// override both. A missing file is not an error.
func LoadAppConfig(path string) (model.AppConfig, error) {
	v := viper.New()
	setDefaults(v, model.DefaultAppConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return model.AppConfig{}, errors.Wrapf(err, "read config %s", path)
			}
		} else if !os.IsNotExist(err) {
			return model.AppConfig{}, errors.Wrapf(err, "stat config %s", path)
		}
	}

	var config model.AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return model.AppConfig{}, errors.Wrap(err, "decode config")
	}
	return config, nil
}

func setDefaults(v *viper.Viper, d model.AppConfig) {
	v.SetDefault("default_single_roll", d.DefaultSingleRoll)
	v.SetDefault("default_cavity_ceiling", d.DefaultCavityCeiling)
	v.SetDefault("default_safety_margin", d.DefaultSafetyMargin)
	v.SetDefault("default_large_shortfall", d.DefaultLargeShortfall)
	v.SetDefault("default_max_iterations", d.DefaultMaxIterations)
	v.SetDefault("default_extra_cut", d.DefaultExtraCut)
	v.SetDefault("work_order_base_speed", d.WorkOrderBaseSpeed)
	v.SetDefault("work_order_individual_speedup", d.WorkOrderIndividualSpeedup)
	v.SetDefault("orders_path", d.OrdersPath)
	v.SetDefault("catalog_path", d.CatalogPath)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
}

// writeJSON marshals data with indentation, creating parent directories.
func writeJSON(path string, data interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create directory")
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal")
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
