package main

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/viper"
)

const configFileEnv = "SLOWLOG_MONITOR_CONFIG_FILE"

// Config carries the ambient settings of the monitor. The server address and
// the polling cadence are fixed and intentionally absent from here.
type Config struct {
	LogLevel          string `mapstructure:"logLevel"`
	MetricsAddr       string `mapstructure:"metricsAddr"`
	SeenCapacity      int    `mapstructure:"seenCapacity"`
	ArchiveMongoURI   string `mapstructure:"archiveMongoUri"`
	ArchiveDatabase   string `mapstructure:"archiveDatabase"`
	ArchiveCollection string `mapstructure:"archiveCollection"`
	GeminiAPIKey      string `mapstructure:"geminiApiKey"`
	GeminiModel       string `mapstructure:"geminiModel"`
	DigestOutputFile  string `mapstructure:"digestOutputFile"`
	DigestEvery       int    `mapstructure:"digestEvery"`
}

var (
	cfg           *Config
	once          sync.Once
	loadConfigErr error
)

func GetConfig() (*Config, error) {
	once.Do(func() {
		configPath := os.Getenv(configFileEnv)
		if configPath == "" {
			configPath = "./config.json"
		}
		cfg, loadConfigErr = LoadConfig(configPath)
	})

	return cfg, loadConfigErr
}

// LoadConfig reads configPath if it exists and layers SLOWLOG_MONITOR_*
// environment variables on top of it. A missing file yields the defaults.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetDefault("logLevel", "info")
	v.SetDefault("metricsAddr", "")
	v.SetDefault("seenCapacity", 0)
	v.SetDefault("archiveMongoUri", "")
	v.SetDefault("archiveDatabase", "slowlog_monitor")
	v.SetDefault("archiveCollection", "slowlogs")
	v.SetDefault("geminiApiKey", "")
	v.SetDefault("geminiModel", defaultModel)
	v.SetDefault("digestOutputFile", "slowlog-digest.md")
	v.SetDefault("digestEvery", 20)

	v.SetEnvPrefix("SLOWLOG_MONITOR")
	v.AutomaticEnv()

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error accessing config file %s: %w", configPath, err)
	}

	var tempCfg Config
	if err := v.Unmarshal(&tempCfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if tempCfg.SeenCapacity < 0 {
		return nil, fmt.Errorf("seenCapacity must not be negative, got %d", tempCfg.SeenCapacity)
	}
	if tempCfg.DigestEvery <= 0 {
		return nil, fmt.Errorf("digestEvery must be positive, got %d", tempCfg.DigestEvery)
	}
	return &tempCfg, nil
}
