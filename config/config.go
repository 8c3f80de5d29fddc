// Package config provides configuration loading and management for intake.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/c360studio/intake/llm"
	"github.com/c360studio/intake/model"
	"gopkg.in/yaml.v3"
)

// Config represents the complete intake configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Model  ModelConfig  `yaml:"model"`
	Retry  RetryConfig  `yaml:"retry"`
	Engine EngineConfig `yaml:"engine"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	// Addr is the listen address (default: ":8080")
	Addr string `yaml:"addr"`
	// ShutdownTimeout is how long to wait for in-flight rounds on shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ModelConfig configures the capability-based model registry
type ModelConfig struct {
	// Capabilities maps capability names to model preference chains.
	// Empty means use the built-in default registry.
	Capabilities map[string]CapabilityConfig `yaml:"capabilities"`
	// Endpoints maps model names to provider endpoints
	Endpoints map[string]EndpointConfig `yaml:"endpoints"`
	// Default is the fallback model when no capability matches
	Default string `yaml:"default"`
}

// CapabilityConfig defines model preferences for one capability
type CapabilityConfig struct {
	Description string   `yaml:"description"`
	Preferred   []string `yaml:"preferred"`
	Fallback    []string `yaml:"fallback"`
}

// EndpointConfig defines one model endpoint
type EndpointConfig struct {
	// Provider is the model provider (anthropic, ollama, openai)
	Provider string `yaml:"provider"`
	// URL is the API endpoint URL (for non-Anthropic providers)
	URL string `yaml:"url"`
	// Model is the model identifier sent to the provider
	Model string `yaml:"model"`
	// MaxTokens is the context window size
	MaxTokens int `yaml:"max_tokens"`
}

// RetryConfig configures the LLM retry wrapper
type RetryConfig struct {
	MaxAttempts       int           `yaml:"max_attempts"`
	BackoffBase       time.Duration `yaml:"backoff_base"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
	MaxBackoff        time.Duration `yaml:"max_backoff"`
	// RateLimitDelay is the fixed wait after an explicit throttle response
	RateLimitDelay time.Duration `yaml:"rate_limit_delay"`
}

// EngineConfig configures the question round engine
type EngineConfig struct {
	// Capability is the model capability used for assessment calls
	Capability string `yaml:"capability"`
	// Temperature controls randomness (0.0-1.0, default: 0.2)
	Temperature float64 `yaml:"temperature"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	retry := llm.DefaultRetryConfig()
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Model: ModelConfig{
			// Empty capability/endpoint maps select the built-in registry
			Default: "qwen",
		},
		Retry: RetryConfig{
			MaxAttempts:       retry.MaxAttempts,
			BackoffBase:       retry.BackoffBase,
			BackoffMultiplier: retry.BackoffMultiplier,
			MaxBackoff:        retry.MaxBackoff,
			RateLimitDelay:    retry.RateLimitDelay,
		},
		Engine: EngineConfig{
			Capability:  string(model.CapabilityAssessment),
			Temperature: 0.2,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Engine.Temperature < 0 || c.Engine.Temperature > 1 {
		return fmt.Errorf("engine.temperature must be between 0 and 1")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	for name, cap := range c.Model.Capabilities {
		if !model.Capability(name).IsValid() {
			return fmt.Errorf("model.capabilities: unknown capability %q", name)
		}
		for _, m := range append(append([]string{}, cap.Preferred...), cap.Fallback...) {
			if _, ok := c.Model.Endpoints[m]; !ok {
				return fmt.Errorf("model.capabilities.%s references unknown endpoint %q", name, m)
			}
		}
	}
	for name, ep := range c.Model.Endpoints {
		if ep.Provider == "" {
			return fmt.Errorf("model.endpoints.%s: provider is required", name)
		}
		if ep.Model == "" {
			return fmt.Errorf("model.endpoints.%s: model is required", name)
		}
	}
	return nil
}

// BuildRegistry constructs the model registry from the configuration.
// With no capabilities or endpoints configured, the built-in default
// registry is used.
func (c *Config) BuildRegistry() *model.Registry {
	if len(c.Model.Capabilities) == 0 || len(c.Model.Endpoints) == 0 {
		return model.NewDefaultRegistry()
	}

	caps := make(map[model.Capability]*model.CapabilityConfig, len(c.Model.Capabilities))
	for name, cap := range c.Model.Capabilities {
		caps[model.Capability(name)] = &model.CapabilityConfig{
			Description: cap.Description,
			Preferred:   cap.Preferred,
			Fallback:    cap.Fallback,
		}
	}

	endpoints := make(map[string]*model.EndpointConfig, len(c.Model.Endpoints))
	for name, ep := range c.Model.Endpoints {
		endpoints[name] = &model.EndpointConfig{
			Provider:  ep.Provider,
			URL:       ep.URL,
			Model:     ep.Model,
			MaxTokens: ep.MaxTokens,
		}
	}

	registry := model.NewRegistry(caps, endpoints)
	if c.Model.Default != "" {
		registry.SetDefault(c.Model.Default)
	}
	return registry
}

// LLMRetryConfig converts the retry section to the LLM client's config.
func (c *Config) LLMRetryConfig() llm.RetryConfig {
	return llm.RetryConfig{
		MaxAttempts:       c.Retry.MaxAttempts,
		BackoffBase:       c.Retry.BackoffBase,
		BackoffMultiplier: c.Retry.BackoffMultiplier,
		MaxBackoff:        c.Retry.MaxBackoff,
		RateLimitDelay:    c.Retry.RateLimitDelay,
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Server
	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if other.Server.ShutdownTimeout != 0 {
		c.Server.ShutdownTimeout = other.Server.ShutdownTimeout
	}

	// Model: capability and endpoint maps replace wholesale so a project
	// config can pin an exact model topology
	if len(other.Model.Capabilities) > 0 {
		c.Model.Capabilities = other.Model.Capabilities
	}
	if len(other.Model.Endpoints) > 0 {
		c.Model.Endpoints = other.Model.Endpoints
	}
	if other.Model.Default != "" {
		c.Model.Default = other.Model.Default
	}

	// Retry
	if other.Retry.MaxAttempts != 0 {
		c.Retry.MaxAttempts = other.Retry.MaxAttempts
	}
	if other.Retry.BackoffBase != 0 {
		c.Retry.BackoffBase = other.Retry.BackoffBase
	}
	if other.Retry.BackoffMultiplier != 0 {
		c.Retry.BackoffMultiplier = other.Retry.BackoffMultiplier
	}
	if other.Retry.MaxBackoff != 0 {
		c.Retry.MaxBackoff = other.Retry.MaxBackoff
	}
	if other.Retry.RateLimitDelay != 0 {
		c.Retry.RateLimitDelay = other.Retry.RateLimitDelay
	}

	// Engine
	if other.Engine.Capability != "" {
		c.Engine.Capability = other.Engine.Capability
	}
	if other.Engine.Temperature != 0 {
		c.Engine.Temperature = other.Engine.Temperature
	}
}
