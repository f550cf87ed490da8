// Package config loads tool configuration from a JSON file over a set of
// defaults, exposing thin typed getters.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// CatalogConfig holds replay catalog backend settings.
type CatalogConfig struct {
	Backend string `json:"backend" mapstructure:"backend"`
	Path    string `json:"path" mapstructure:"path"`
}

// Load reads configuration from recgame.cfg.json in configDir and sets
// default values. A missing config file is not an error; the defaults apply.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./recgamelogs")

	viper.SetDefault("catalog.backend", "memory")
	viper.SetDefault("catalog.sqlitePath", "./recgame.db")

	viper.SetDefault("catalog.db.host", "localhost")
	viper.SetDefault("catalog.db.port", "5432")
	viper.SetDefault("catalog.db.username", "postgres")
	viper.SetDefault("catalog.db.password", "postgres")
	viper.SetDefault("catalog.db.database", "recgame")

	viper.SetDefault("monitor.enabled", false)
	viper.SetDefault("monitor.host", "localhost")
	viper.SetDefault("monitor.port", "8086")
	viper.SetDefault("monitor.protocol", "http")
	viper.SetDefault("monitor.token", "")
	viper.SetDefault("monitor.org", "recgame-metrics")
	viper.SetDefault("monitor.backupDir", "./recgamelogs/metrics")

	viper.SetDefault("worker.count", 4)

	viper.SetConfigName("recgame.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %v", err)
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
