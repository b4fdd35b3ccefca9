// Config loading for the engram CLI.
package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/engram/internal/paths"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyCompactOlderThanDays  = "compact.older_than_days"
	cfgKeyCompactMaxDescription = "compact.max_description_len"
	cfgKeyDaemonTimeoutSeconds  = "daemon.request_timeout_seconds"

	defaultCompactOlderThanDays = 30
	defaultDaemonTimeoutSeconds = 30
)

// config holds the loaded configuration, set by PersistentPreRunE.
var config *viper.Viper

// loadConfig reads the optional config.yaml from the platform config
// directory. A missing file is not an error; defaults apply.
func loadConfig() error {
	v := viper.New()
	v.SetDefault(cfgKeyCompactOlderThanDays, defaultCompactOlderThanDays)
	v.SetDefault(cfgKeyDaemonTimeoutSeconds, defaultDaemonTimeoutSeconds)

	configDir, err := paths.DefaultConfigDir()
	if err != nil {
		// No home directory; run on defaults.
		config = v
		return nil
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			config = v
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	config = v
	return nil
}
