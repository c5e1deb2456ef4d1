package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"eventcheck/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/eventcheck"
	configFileName = "config.yaml"
)

// osUserHomeDir is a package variable so tests can redirect the home directory.
var osUserHomeDir = os.UserHomeDir

// GetDefaultConfigPath returns ~/.config/eventcheck.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}

	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadConfig loads configuration from config.yaml in the specified directory.
// A missing file yields the defaults; values present in the file override them.
func LoadConfig(configPath string) (Config, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		logging.Info("ConfigLoader", "Error loading config.yaml from %s: %s", configFilePath, err)
		return Config{}, ConfigurationError{
			FilePath:  configFilePath,
			Section:   "file",
			ErrorType: ErrorTypeIO,
			Message:   err.Error(),
		}
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, ConfigurationError{
			FilePath:  configFilePath,
			Section:   "file",
			ErrorType: ErrorTypeParse,
			Message:   fmt.Sprintf("error loading config: %v", err),
		}
	}
	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration in %s: %w", configFilePath, err)
	}
	logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}
