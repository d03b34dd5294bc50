// Package config loads the provider registry for aicommit from
// ~/.aicommit/config.json with AICOMMIT_* environment overrides.
package config

import (
	_ "embed"
	"strings"

	apperrors "github.com/aicommit/aicommit/internal/pkg/errors"
)

// DefaultConfigJSON is the template written when no configuration exists.
//
//go:embed default_config.json
var DefaultConfigJSON []byte

// Config represents the complete aicommit configuration.
type Config struct {
	Providers       []ProviderConfig `mapstructure:"providers" json:"providers"`
	DefaultProvider string           `mapstructure:"default_provider" json:"default_provider"`
	UI              UIConfig         `mapstructure:"ui" json:"ui"`
}

// ProviderConfig describes one completion endpoint.
type ProviderConfig struct {
	Name     string `mapstructure:"name" json:"name"`
	APIKey   string `mapstructure:"api_key" json:"api_key"`
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
	Model    string `mapstructure:"model" json:"model"`
	// Proxy is an optional HTTP proxy URL used for this provider only.
	Proxy string `mapstructure:"proxy" json:"proxy,omitempty"`
	// StartCommand launches a local server when nothing listens on Endpoint.
	StartCommand string `mapstructure:"start_command" json:"start_command,omitempty"`
}

// UIConfig contains UI-related settings.
type UIConfig struct {
	ColorEnabled bool `mapstructure:"color_enabled" json:"color_enabled"`
}

// HasUsableCredential reports whether the provider has an API key to send.
func (p ProviderConfig) HasUsableCredential() bool {
	return p.APIKey != ""
}

// IsLocal reports whether the provider names the local server.
func (p ProviderConfig) IsLocal() bool {
	return strings.EqualFold(p.Name, "local")
}

// FindProvider returns the index of the provider whose name matches name
// case-insensitively, or -1.
func (c *Config) FindProvider(name string) int {
	for i, p := range c.Providers {
		if strings.EqualFold(p.Name, name) {
			return i
		}
	}
	return -1
}

// ResolveActiveProvider returns the provider selected by DefaultProvider.
func (c *Config) ResolveActiveProvider() (ProviderConfig, error) {
	i := c.FindProvider(c.DefaultProvider)
	if i < 0 {
		return ProviderConfig{}, apperrors.NewProviderNotFoundError(c.DefaultProvider)
	}
	return c.Providers[i], nil
}

// ProviderNames lists the configured provider names in file order.
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.Providers))
	for _, p := range c.Providers {
		names = append(names, p.Name)
	}
	return names
}

// Manager defines the interface for configuration management.
type Manager interface {
	Load() (*Config, error)
	LoadFile() (*Config, error)
	Save(config *Config) error
	Init() error
	CopyDefaultConfig() error
	GetConfigPath() string
	ConfigExists() bool
}
