// Package config loads the CLI configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/stategraph/pkg/adapters/openai"
)

// DefaultPath is read when no --config flag is given. A missing file is not an error.
const DefaultPath = "stategraph.yaml"

// Config holds every setting the CLI wires into the engine and its adapters.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Store   StoreConfig   `yaml:"store"`
	Engine  EngineConfig  `yaml:"engine"`
	Model   ModelConfig   `yaml:"model"`
	Server  ServerConfig  `yaml:"server"`
	Tools   ToolsConfig   `yaml:"tools"`
	Session SessionConfig `yaml:"session"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StoreConfig selects the checkpointer: memory, file or redis.
type StoreConfig struct {
	Driver string      `yaml:"driver"`
	File   FileConfig  `yaml:"file"`
	Redis  RedisConfig `yaml:"redis"`
	// EncryptionKey, when set, is a base64 32-byte AES key sealing checkpoints at rest.
	EncryptionKey string `yaml:"encryption_key"`
	// FallbackKeys decrypt checkpoints written under rotated keys.
	FallbackKeys []string `yaml:"fallback_keys"`
	// MaskFields are masked before checkpoints are written.
	MaskFields []string `yaml:"mask_fields"`
}

type FileConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
	// Lock serializes invocations of a thread across processes.
	Lock bool `yaml:"lock"`
}

type EngineConfig struct {
	MaxSteps int `yaml:"max_steps"`
	// Tracing wraps every node in an OpenTelemetry span.
	Tracing bool `yaml:"tracing"`
	// NodeTimeout bounds each node execution. Zero disables it.
	NodeTimeout time.Duration `yaml:"node_timeout"`
}

// ModelConfig selects the chat model: openai, or scripted for offline demos.
type ModelConfig struct {
	Provider string        `yaml:"provider"`
	System   string        `yaml:"system"`
	OpenAI   openai.Config `yaml:"openai"`
}

type ServerConfig struct {
	Addr    string `yaml:"addr"`
	Metrics bool   `yaml:"metrics"`
}

type ToolsConfig struct {
	// Arithmetic registers add, multiply and divide.
	Arithmetic bool `yaml:"arithmetic"`
	// File is a tools.yaml declaring process tools.
	File string `yaml:"file"`
	// Confirm asks before every tool call in interactive chat.
	Confirm bool     `yaml:"confirm"`
	Deny    []string `yaml:"deny"`
}

type SessionConfig struct {
	LockTTL     time.Duration `yaml:"lock_ttl"`
	TurnTimeout time.Duration `yaml:"turn_timeout"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	var cfg Config
	cfg.Log = LogConfig{Level: "info", Format: "text"}
	cfg.Store.Driver = "memory"
	cfg.Store.File.Path = ".stategraph/threads"
	cfg.Store.Redis = RedisConfig{Addr: "localhost:6379", Prefix: "stategraph:"}
	cfg.Engine.MaxSteps = 25
	cfg.Model.Provider = "scripted"
	cfg.Model.System = "You are a helpful assistant tasked with performing arithmetic on a set of inputs."
	cfg.Model.OpenAI = openai.Config{
		BaseURL: openai.DefaultBaseURL,
		APIKey:  "${OPENAI_API_KEY}",
		Model:   openai.DefaultModel,
		Timeout: openai.DefaultTimeout,
	}
	cfg.Server = ServerConfig{Addr: ":8080", Metrics: true}
	cfg.Tools.Arithmetic = true
	cfg.Session.LockTTL = 30 * time.Second
	return cfg
}

// Load reads path over the defaults. ${VAR} references are expanded from the
// environment before parsing. A missing file at DefaultPath yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err) && !explicit:
		return cfg.expand(), nil
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg = cfg.expand()
	return cfg, cfg.Validate()
}

// expand resolves ${VAR} references left in defaults.
func (c Config) expand() Config {
	c.Model.OpenAI.APIKey = os.ExpandEnv(c.Model.OpenAI.APIKey)
	c.Store.EncryptionKey = os.ExpandEnv(c.Store.EncryptionKey)
	c.Store.Redis.Password = os.ExpandEnv(c.Store.Redis.Password)
	return c
}

// Validate rejects unknown drivers and providers.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("config: unknown store driver %q (memory, file, redis)", c.Store.Driver)
	}
	switch c.Model.Provider {
	case "openai", "scripted":
	default:
		return fmt.Errorf("config: unknown model provider %q (openai, scripted)", c.Model.Provider)
	}
	if c.Engine.MaxSteps < 0 {
		return fmt.Errorf("config: max_steps must not be negative")
	}
	return nil
}
