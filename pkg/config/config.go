/*
Package config manages the TOML config for typeahead services.

Config files carry three sections: [completion] for the engine behavior,
[dict] for dictionary loading limits, and [server] for IPC request bounds.
Missing files are created with defaults, broken files fall back to partial
parsing so one bad key does not discard the rest.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/complete"
)

// Config holds the entire config structure
type Config struct {
	Completion CompletionConfig `toml:"completion"`
	Dict       DictConfig       `toml:"dict"`
	Server     ServerConfig     `toml:"server"`
}

// CompletionConfig has engine behavior options.
type CompletionConfig struct {
	ActivateOnTyping bool `toml:"activate_on_typing"`
	SelectOnOpen     bool `toml:"select_on_open"`
	AboveCursor      bool `toml:"above_cursor"`
	MaxOptions       int  `toml:"max_options"`
}

// DictConfig holds dictionary options.
type DictConfig struct {
	MaxWords           int `toml:"max_words"`
	ChunkSize          int `toml:"chunk_size"`
	MinFreqThreshold   int `toml:"min_frequency_threshold"`
	MinFreqShortPrefix int `toml:"min_frequency_short_prefix"`
}

// ServerConfig has IPC request bounds.
type ServerConfig struct {
	MaxLimit     int  `toml:"max_limit"`
	MinPrefix    int  `toml:"min_prefix"`
	MaxPrefix    int  `toml:"max_prefix"`
	EnableFilter bool `toml:"enable_filter"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Completion: CompletionConfig{
			ActivateOnTyping: true,
			SelectOnOpen:     true,
			AboveCursor:      false,
			MaxOptions:       64,
		},
		Dict: DictConfig{
			MaxWords:           50000,
			ChunkSize:          10000,
			MinFreqThreshold:   20,
			MinFreqShortPrefix: 24,
		},
		Server: ServerConfig{
			MaxLimit:     64,
			MinPrefix:    1,
			MaxPrefix:    60,
			EnableFilter: true,
		},
	}
}

// Engine translates the [completion] section into the engine's option struct.
// Sources are left for the caller to wire.
func (c *Config) Engine() *complete.Config {
	return &complete.Config{
		ActivateOnTyping: c.Completion.ActivateOnTyping,
		SelectOnOpen:     c.Completion.SelectOnOpen,
		AboveCursor:      c.Completion.AboveCursor,
		MaxOptions:       c.Completion.MaxOptions,
	}
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/typeahead
// 2. Current executable dir
// 3. builtin defaults
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		execDir, execErr := utils.GetExecutableDir()
		if execErr != nil {
			return "", execErr
		}
		return execDir, nil
	}
	primaryPath := filepath.Join(homeDir, ".config", "typeahead")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/typeahead/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	var config *Config
	var err error

	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err = LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err = InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse salvages the valid sections of a broken TOML file.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "completion"); ok {
		extractCompletionConfig(section, &config.Completion)
	}
	if section, ok := utils.ExtractSection(tempConfig, "dict"); ok {
		extractDictConfig(section, &config.Dict)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	return config, nil
}

func extractCompletionConfig(data map[string]any, completion *CompletionConfig) {
	if val, ok := utils.ExtractBool(data, "activate_on_typing"); ok {
		completion.ActivateOnTyping = val
	}
	if val, ok := utils.ExtractBool(data, "select_on_open"); ok {
		completion.SelectOnOpen = val
	}
	if val, ok := utils.ExtractBool(data, "above_cursor"); ok {
		completion.AboveCursor = val
	}
	if val, ok := utils.ExtractInt64(data, "max_options"); ok {
		completion.MaxOptions = val
	}
}

func extractDictConfig(data map[string]any, dict *DictConfig) {
	if val, ok := utils.ExtractInt64(data, "max_words"); ok {
		dict.MaxWords = val
	}
	if val, ok := utils.ExtractInt64(data, "chunk_size"); ok {
		dict.ChunkSize = val
	}
	if val, ok := utils.ExtractInt64(data, "min_frequency_threshold"); ok {
		dict.MinFreqThreshold = val
	}
	if val, ok := utils.ExtractInt64(data, "min_frequency_short_prefix"); ok {
		dict.MinFreqShortPrefix = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "min_prefix"); ok {
		server.MinPrefix = val
	}
	if val, ok := utils.ExtractInt64(data, "max_prefix"); ok {
		server.MaxPrefix = val
	}
	if val, ok := utils.ExtractBool(data, "enable_filter"); ok {
		server.EnableFilter = val
	}
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// Update changes the engine options and saves to file.
func (c *Config) Update(configPath string, maxOptions *int, activateOnTyping, selectOnOpen *bool) error {
	if maxOptions != nil {
		c.Completion.MaxOptions = *maxOptions
	}
	if activateOnTyping != nil {
		c.Completion.ActivateOnTyping = *activateOnTyping
	}
	if selectOnOpen != nil {
		c.Completion.SelectOnOpen = *selectOnOpen
	}
	return SaveConfig(c, configPath)
}
