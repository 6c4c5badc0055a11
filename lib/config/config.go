// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/liaisonhq/liaison/lib/ref"
	"github.com/liaisonhq/liaison/lib/roster"
)

// Config is the bridge configuration, loaded from one YAML file.
type Config struct {
	Chat        ChatConfig        `yaml:"chat"`
	Tracker     TrackerConfig     `yaml:"tracker"`
	Oracle      OracleConfig      `yaml:"oracle"`
	Webhook     WebhookConfig     `yaml:"webhook"`
	Store       StoreConfig       `yaml:"store"`
	History     HistoryConfig     `yaml:"history"`
	People      []roster.Person   `yaml:"people"`
	Credentials CredentialsConfig `yaml:"credentials"`
}

// ChatConfig configures the Matrix side of the bridge.
type ChatConfig struct {
	// HomeserverURL is the Matrix homeserver base URL. Required.
	HomeserverURL string `yaml:"homeserver"`

	// UserID is the bridge's fully-qualified Matrix user ID
	// (e.g., "@liaison:example.com"). Required.
	UserID string `yaml:"user"`
}

// TrackerConfig configures the issue tracker connection.
type TrackerConfig struct {
	// Endpoint is the tracker's GraphQL endpoint URL. Required.
	Endpoint string `yaml:"endpoint"`

	// Team is the tracker team ID or short key ("ENG") issues are
	// created in. Required.
	Team string `yaml:"team"`
}

// OracleConfig selects and configures the LLM provider that turns
// chat messages into commands.
type OracleConfig struct {
	// Provider is "anthropic" or "openai". Required.
	Provider string `yaml:"provider"`

	// Model is the model identifier passed to the provider. Required.
	Model string `yaml:"model"`

	// MaxTokens caps the completion length. Zero uses the
	// interpreter's default.
	MaxTokens int `yaml:"max_tokens"`

	// BaseURL overrides the provider's API origin. Optional; point it
	// at a gateway or a compatible local server.
	BaseURL string `yaml:"base_url"`
}

// WebhookConfig configures the tracker webhook listener.
type WebhookConfig struct {
	// Listen is the TCP listen address (e.g., ":8080"). Required.
	Listen string `yaml:"listen"`
}

// StoreConfig configures the issue store.
type StoreConfig struct {
	// Path is the SQLite database file path. Required. The parent
	// directory must exist.
	Path string `yaml:"path"`
}

// HistoryConfig bounds the per-chat history window that feeds
// interpreter context. Zero values use the store's defaults.
type HistoryConfig struct {
	Limit int      `yaml:"limit"`
	TTL   Duration `yaml:"ttl"`
}

// CredentialsConfig locates the sealed credential bundle and the age
// identity that opens it.
type CredentialsConfig struct {
	// BundlePath is the age-encrypted credential bundle. Required.
	BundlePath string `yaml:"bundle"`

	// IdentityPath is the age private key file. Required; must not be
	// group- or world-readable.
	IdentityPath string `yaml:"identity"`
}

// Duration wraps time.Duration with YAML decoding from strings like
// "6h" or "30m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Load reads the configuration from the file named by the
// LIAISON_CONFIG environment variable. There are no fallbacks: an
// unset variable is an error, not a prompt to go looking.
func Load() (*Config, error) {
	path := os.Getenv("LIAISON_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("LIAISON_CONFIG environment variable not set; " +
			"point it at the bridge configuration file or pass --config")
	}
	return LoadFile(path)
}

// LoadFile reads and validates the configuration at path. Validation
// failures name the missing or malformed field; callers do not start
// on a bad config.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var config Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	config.expandPaths()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &config, nil
}

// expandPaths expands ${VAR} and ${VAR:-default} patterns in the
// path-valued fields. Only paths are expanded: identifiers and URLs
// are taken literally.
func (c *Config) expandPaths() {
	c.Store.Path = expandVars(c.Store.Path)
	c.Credentials.BundlePath = expandVars(c.Credentials.BundlePath)
	c.Credentials.IdentityPath = expandVars(c.Credentials.IdentityPath)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}

func (c *Config) validate() error {
	if c.Chat.HomeserverURL == "" {
		return fmt.Errorf("chat.homeserver is required")
	}
	if c.Chat.UserID == "" {
		return fmt.Errorf("chat.user is required")
	}
	if _, err := ref.ParseUserID(c.Chat.UserID); err != nil {
		return fmt.Errorf("chat.user: %w", err)
	}
	if c.Tracker.Endpoint == "" {
		return fmt.Errorf("tracker.endpoint is required")
	}
	if c.Tracker.Team == "" {
		return fmt.Errorf("tracker.team is required")
	}
	switch c.Oracle.Provider {
	case "anthropic", "openai":
	case "":
		return fmt.Errorf("oracle.provider is required")
	default:
		return fmt.Errorf("oracle.provider %q is not supported (anthropic or openai)", c.Oracle.Provider)
	}
	if c.Oracle.Model == "" {
		return fmt.Errorf("oracle.model is required")
	}
	if c.Webhook.Listen == "" {
		return fmt.Errorf("webhook.listen is required")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if len(c.People) == 0 {
		return fmt.Errorf("people: at least one directory entry is required")
	}
	if c.Credentials.BundlePath == "" {
		return fmt.Errorf("credentials.bundle is required")
	}
	if c.Credentials.IdentityPath == "" {
		return fmt.Errorf("credentials.identity is required")
	}
	return nil
}

// BotUserID returns the validated bridge user ID. Only call after a
// successful load.
func (c *Config) BotUserID() ref.UserID {
	return ref.MustParseUserID(c.Chat.UserID)
}
