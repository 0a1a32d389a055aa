// Package conf loads and validates gridforge settings.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/gridforge/gridforge/internal/logger"
)

// Database drivers
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Rebuild strategies for subscenario re-import
const (
	StrategyNullify = "nullify"
	StrategyDefer   = "defer"
)

// Settings is the root configuration.
type Settings struct {
	Debug     bool                 `mapstructure:"debug" yaml:"debug"`
	Database  DatabaseSettings     `mapstructure:"database" yaml:"database"`
	Scenarios ScenarioSettings     `mapstructure:"scenarios" yaml:"scenarios"`
	CSV       CSVSettings          `mapstructure:"csv" yaml:"csv"`
	Build     BuildSettings        `mapstructure:"build" yaml:"build"`
	Rebuild   RebuildSettings      `mapstructure:"rebuild" yaml:"rebuild"`
	Logging   logger.LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics   MetricsSettings      `mapstructure:"metrics" yaml:"metrics"`
}

// DatabaseSettings selects and configures the relational store.
type DatabaseSettings struct {
	Driver string         `mapstructure:"driver" yaml:"driver"`
	SQLite SQLiteSettings `mapstructure:"sqlite" yaml:"sqlite"`
	MySQL  MySQLSettings  `mapstructure:"mysql" yaml:"mysql"`
}

// SQLiteSettings holds the database file location.
type SQLiteSettings struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// MySQLSettings holds MySQL connection parameters.
type MySQLSettings struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Database string `mapstructure:"database" yaml:"database"`
}

// ScenarioSettings controls where per-scenario input and result files go.
type ScenarioSettings struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
}

// CSVSettings locates the CSV tree used for subscenario imports.
type CSVSettings struct {
	Location string `mapstructure:"location" yaml:"location"`
}

// BuildSettings tunes model assembly.
type BuildSettings struct {
	Subproblem         int    `mapstructure:"subproblem" yaml:"subproblem"`
	Stage              int    `mapstructure:"stage" yaml:"stage"`
	AssertDisjointSets bool   `mapstructure:"assert_disjoint_sets" yaml:"assert_disjoint_sets"`
	FailOn             string `mapstructure:"fail_on" yaml:"fail_on"` // none, high, mid, low
}

// RebuildSettings tunes the subscenario rebuild pipeline.
type RebuildSettings struct {
	Strategy  string `mapstructure:"strategy" yaml:"strategy"`
	AssumeYes bool   `mapstructure:"assume_yes" yaml:"assume_yes"`
}

// MetricsSettings configures the Prometheus textfile written after each command.
type MetricsSettings struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
	configFile       string
)

// SetConfigFile makes Load read path instead of searching the default
// locations. An empty path restores the search.
func SetConfigFile(path string) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	configFile = path
}

// Load reads the configuration file and environment variables into Settings.
// A missing config file is not an error; defaults apply.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper sets defaults, search paths and environment binding, then reads the config file.
func initViper() error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		for _, path := range GetDefaultConfigPaths() {
			viper.AddConfigPath(path)
		}
	}

	viper.SetEnvPrefix("GRIDFORGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			GetLogger().Debug("no config file found, using defaults")
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	GetLogger().Debug("config file loaded", logger.String("path", viper.ConfigFileUsed()))
	return nil
}

// GetDefaultConfigPaths returns the directories searched for config.yaml, in order.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "gridforge"))
	}
	return append(paths, "/etc/gridforge")
}

// GetSettings returns the settings from the last successful Load.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveYAMLConfig writes settings to configPath through a temp file and rename.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer func() { _ = os.Remove(tempFileName) }()

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}

// ScenarioDirectory returns the root directory for a scenario's files.
func (s *Settings) ScenarioDirectory(scenario string) string {
	return filepath.Join(s.Scenarios.Directory, scenario)
}
