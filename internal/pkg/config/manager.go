package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
	"github.com/spf13/viper"

	apperrors "github.com/aicommit/aicommit/internal/pkg/errors"
)

const (
	// DefaultConfigDir is the directory under $HOME holding the config file.
	DefaultConfigDir = ".aicommit"
	// DefaultConfigFileName is the config file name inside DefaultConfigDir.
	DefaultConfigFileName = "config.json"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "AICOMMIT"
)

// Keys that override the active provider's fields when set.
const (
	overrideAPIKey   = "api_key"
	overrideEndpoint = "endpoint"
	overrideModel    = "model"
)

// writeFile is replaced in tests to simulate write failures.
var writeFile = renameio.WriteFile

// ViperManager implements the Manager interface using Viper.
type ViperManager struct {
	v          *viper.Viper
	configPath string
}

// DefaultConfigPath returns ~/.aicommit/config.json.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, DefaultConfigDir, DefaultConfigFileName), nil
}

// NewManager creates a new configuration manager.
// If configPath is empty, it uses the default path (~/.aicommit/config.json).
func NewManager(configPath string) (*ViperManager, error) {
	if configPath == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	v := viper.New()
	v.SetConfigType("json")
	v.SetConfigFile(configPath)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvVars(v)

	return &ViperManager{
		v:          v,
		configPath: configPath,
	}, nil
}

// bindEnvVars explicitly binds environment variables for all config keys.
// This is needed because Viper's AutomaticEnv doesn't work well with nested keys.
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("default_provider", "AICOMMIT_DEFAULT_PROVIDER")
	_ = v.BindEnv(overrideAPIKey, "AICOMMIT_API_KEY")
	_ = v.BindEnv(overrideEndpoint, "AICOMMIT_ENDPOINT")
	_ = v.BindEnv(overrideModel, "AICOMMIT_MODEL")
	_ = v.BindEnv("ui.color_enabled", "AICOMMIT_UI_COLOR_ENABLED")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ui.color_enabled", true)
}

// GetConfigPath returns the path to the configuration file.
func (m *ViperManager) GetConfigPath() string {
	return m.configPath
}

// ConfigExists checks if the configuration file exists.
func (m *ViperManager) ConfigExists() bool {
	_, err := os.Stat(m.configPath)
	return err == nil
}

// Load reads the configuration with every override layer applied.
// Priority: flags > env > file > defaults
//
// The environment keys AICOMMIT_API_KEY, AICOMMIT_ENDPOINT and
// AICOMMIT_MODEL replace the matching fields of the active provider only.
func (m *ViperManager) Load() (*Config, error) {
	cfg, err := m.decode(m.v)
	if err != nil {
		return nil, err
	}

	if i := cfg.FindProvider(cfg.DefaultProvider); i >= 0 {
		p := &cfg.Providers[i]
		if s := m.v.GetString(overrideAPIKey); s != "" {
			p.APIKey = s
		}
		if s := m.v.GetString(overrideEndpoint); s != "" {
			p.Endpoint = s
		}
		if s := m.v.GetString(overrideModel); s != "" {
			p.Model = s
		}
	}

	return cfg, nil
}

// LoadFile reads the configuration file alone, without environment or flag
// overrides. Use it when the result is going to be written back.
func (m *ViperManager) LoadFile() (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	v.SetConfigFile(m.configPath)
	setDefaults(v)
	return m.decode(v)
}

func (m *ViperManager) decode(v *viper.Viper) (*Config, error) {
	if _, err := os.Stat(m.configPath); err != nil {
		return nil, apperrors.NewConfigMissingError(m.configPath, err)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, apperrors.NewConfigMalformedError(m.configPath, err)
	}

	if !v.InConfig("providers") {
		return nil, apperrors.NewConfigMalformedError(m.configPath, errors.New("missing required key \"providers\""))
	}
	if !v.IsSet("default_provider") {
		return nil, apperrors.NewConfigMalformedError(m.configPath, errors.New("missing required key \"default_provider\""))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.NewConfigMalformedError(m.configPath, err)
	}

	return &cfg, nil
}

// ResolveActiveProvider loads the configuration and returns it together
// with the provider named by default_provider.
func (m *ViperManager) ResolveActiveProvider() (*Config, ProviderConfig, error) {
	cfg, err := m.Load()
	if err != nil {
		return nil, ProviderConfig{}, err
	}
	p, err := cfg.ResolveActiveProvider()
	if err != nil {
		return nil, ProviderConfig{}, err
	}
	return cfg, p, nil
}

// SetOverride sets a temporary override for a configuration key.
// This is used for command-line flag overrides that shouldn't persist.
func (m *ViperManager) SetOverride(key string, value interface{}) {
	m.v.Set(key, value)
}

// OverrideProvider selects name as the active provider for this process.
func (m *ViperManager) OverrideProvider(name string) {
	m.SetOverride("default_provider", name)
}

// OverrideModel replaces the active provider's model for this process.
func (m *ViperManager) OverrideModel(model string) {
	m.SetOverride(overrideModel, model)
}

// Init writes the bundled default configuration.
// It refuses to replace an existing file.
func (m *ViperManager) Init() error {
	if m.ConfigExists() {
		return apperrors.New(apperrors.ErrInvalidArguments,
			fmt.Sprintf("config file already exists at %s", m.configPath)).
			WithSuggestion("Use 'aicommit --copy-default-config' to overwrite it")
	}
	return m.writeConfigFile(DefaultConfigJSON)
}

// CopyDefaultConfig writes the bundled default configuration, replacing any
// existing file.
func (m *ViperManager) CopyDefaultConfig() error {
	return m.writeConfigFile(DefaultConfigJSON)
}

// Save writes config to the configuration file as JSON.
func (m *ViperManager) Save(config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrSerialization, "failed to encode configuration")
	}
	return m.writeConfigFile(append(data, '\n'))
}

// UseProvider makes name the default provider in the configuration file.
func (m *ViperManager) UseProvider(name string) (string, error) {
	cfg, err := m.LoadFile()
	if err != nil {
		return "", err
	}
	i := cfg.FindProvider(name)
	if i < 0 {
		return "", apperrors.NewProviderNotFoundError(name).
			WithSuggestion(fmt.Sprintf("Configured providers: %s", strings.Join(cfg.ProviderNames(), ", ")))
	}
	cfg.DefaultProvider = cfg.Providers[i].Name
	if err := m.Save(cfg); err != nil {
		return "", err
	}
	return cfg.DefaultProvider, nil
}

// SetProviderKey stores apiKey for the named provider and, when
// makeDefault is true, selects it as the default provider.
func (m *ViperManager) SetProviderKey(name, apiKey string, makeDefault bool) error {
	cfg, err := m.LoadFile()
	if err != nil {
		return err
	}
	i := cfg.FindProvider(name)
	if i < 0 {
		return apperrors.NewProviderNotFoundError(name)
	}
	cfg.Providers[i].APIKey = apiKey
	if makeDefault {
		cfg.DefaultProvider = cfg.Providers[i].Name
	}
	return m.Save(cfg)
}

// writeConfigFile atomically replaces the config file with mode 0600.
func (m *ViperManager) writeConfigFile(data []byte) error {
	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to create config directory")
	}
	if err := writeFile(m.configPath, data, 0600); err != nil {
		return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to write config file")
	}
	return nil
}

// MaskedProviders returns a copy of the providers with API keys masked.
func MaskedProviders(cfg *Config, mask func(string) string) []ProviderConfig {
	out := make([]ProviderConfig, len(cfg.Providers))
	for i, p := range cfg.Providers {
		if p.APIKey != "" {
			p.APIKey = mask(p.APIKey)
		}
		out[i] = p
	}
	return out
}
