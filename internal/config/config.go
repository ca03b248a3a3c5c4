package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hyprseek/hyprseek/internal/state"
)

// Config is the top-level configuration document.
type Config struct {
	Settings Settings `yaml:"settings"`
	Keys     Keys     `yaml:"keys"`
}

// Settings holds the session timing knobs, all in milliseconds.
type Settings struct {
	OverlayDelayMs    int `yaml:"overlayDelayMs"`
	ActivationDelayMs int `yaml:"activationDelayMs"`
}

// OverlayDelay is how long the trigger modifier must be held before the
// overlay appears.
func (s Settings) OverlayDelay() time.Duration {
	return time.Duration(s.OverlayDelayMs) * time.Millisecond
}

// ActivationDelay is the grace period before an ambiguous exact hint commits.
func (s Settings) ActivationDelay() time.Duration {
	return time.Duration(s.ActivationDelayMs) * time.Millisecond
}

// Keys maps a hint letter to the applications it is pinned to.
type Keys map[byte]KeyConfig

// UnmarshalYAML enforces single-letter key names and rejects duplicates.
func (k *Keys) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		*k = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("keys must be a mapping")
	}
	result := make(map[byte]KeyConfig, len(value.Content)/2)
	for i := 0; i < len(value.Content); i += 2 {
		keyNode := value.Content[i]
		valNode := value.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("key name must be a string")
		}
		name := keyNode.Value
		if len(name) != 1 || name[0] < 'a' || name[0] > 'z' {
			return fmt.Errorf("key %q must be a single lowercase letter", name)
		}
		letter := name[0]
		if _, exists := result[letter]; exists {
			return fmt.Errorf("duplicate key %q", name)
		}
		var cfg KeyConfig
		if err := valNode.Decode(&cfg); err != nil {
			return fmt.Errorf("key %q: %w", name, err)
		}
		result[letter] = cfg
	}
	*k = result
	return nil
}

// KeyConfig pins a hint letter to one or more application classes and
// optionally names what to launch when no matching window exists.
type KeyConfig struct {
	Apps   []string      `yaml:"apps"`
	Launch *LaunchConfig `yaml:"launch"`
}

// LaunchConfig describes how to spawn an application. It decodes from either
// a bare command string or a mapping with arguments and environment.
type LaunchConfig struct {
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
}

func (l *LaunchConfig) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		l.Command = value.Value
		return nil
	}
	type rawLaunch struct {
		Command string            `yaml:"command"`
		Args    []string          `yaml:"args"`
		Env     map[string]string `yaml:"env"`
	}
	var raw rawLaunch
	if err := value.Decode(&raw); err != nil {
		return err
	}
	l.Command = raw.Command
	l.Args = raw.Args
	l.Env = raw.Env
	return nil
}

// DefaultPath returns the conventional configuration file location.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "hyprseek", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "hyprseek", "config.yaml"), nil
}

// Default returns the built-in configuration used when no file exists: no
// pinned keys and stock timing.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates a configuration file. A missing file is not an
// error; the built-in defaults apply.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes, defaults, and validates a configuration payload.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Settings.OverlayDelayMs == 0 {
		c.Settings.OverlayDelayMs = 720
	}
	if c.Settings.ActivationDelayMs == 0 {
		c.Settings.ActivationDelayMs = 200
	}
}

// Validate performs basic sanity checks.
func (c *Config) Validate() error {
	if c.Settings.OverlayDelayMs < 0 {
		return fmt.Errorf("settings.overlayDelayMs cannot be negative")
	}
	if c.Settings.ActivationDelayMs < 0 {
		return fmt.Errorf("settings.activationDelayMs cannot be negative")
	}
	claimed := map[string]byte{}
	for letter, kc := range c.Keys {
		if len(kc.Apps) == 0 && kc.Launch == nil {
			return fmt.Errorf("key %q binds neither apps nor a launch command", string(letter))
		}
		if kc.Launch != nil && kc.Launch.Command == "" {
			return fmt.Errorf("key %q: launch command cannot be empty", string(letter))
		}
		for _, app := range kc.Apps {
			if app == "" {
				return fmt.Errorf("key %q: app class cannot be empty", string(letter))
			}
			normalized := strings.ToLower(app)
			if prev, exists := claimed[normalized]; exists && prev != letter {
				return fmt.Errorf("app %q is pinned to both %q and %q", app, string(prev), string(letter))
			}
			claimed[normalized] = letter
		}
	}
	return nil
}

// KeyForApp resolves the pinned hint letter for a window class. Matching is
// case-insensitive; when no exact match exists, the last dot segment of a
// reverse-DNS name matches its bare counterpart on either side, so "ghostty"
// pins com.mitchellh.ghostty and vice versa.
func (c *Config) KeyForApp(class string) (byte, bool) {
	if len(c.Keys) == 0 {
		return 0, false
	}
	lowered := strings.ToLower(class)
	segment := strings.ToLower(state.LastSegment(class))
	var segLetter byte
	var segFound bool
	for letter, kc := range c.Keys {
		for _, app := range kc.Apps {
			target := strings.ToLower(app)
			if target == lowered {
				return letter, true
			}
			if target == segment || strings.ToLower(state.LastSegment(app)) == lowered {
				segLetter, segFound = letter, true
			}
		}
	}
	return segLetter, segFound
}

// LaunchFor returns the launch binding for a hint letter, if one exists.
func (c *Config) LaunchFor(letter byte) (*LaunchConfig, bool) {
	kc, ok := c.Keys[letter]
	if !ok || kc.Launch == nil {
		return nil, false
	}
	return kc.Launch, true
}
