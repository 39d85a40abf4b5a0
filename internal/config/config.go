package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Sara3/payments-mcp/pkg/logging"
)

const (
	// DefaultPort is the port the host server listens on when neither the
	// config file nor the environment specifies one.
	DefaultPort = 3100

	// DefaultHost is the bind address used for local runs. Cloud platforms
	// that inject PORT get 0.0.0.0 instead, see ApplyEnv.
	DefaultHost = "127.0.0.1"

	// DefaultSessionSecret is only suitable for local development.
	DefaultSessionSecret = "payments-mcp-host-secret-change-in-production"
)

// ServerConfig holds the HTTP listener settings for the host server.
type ServerConfig struct {
	Port     int    `yaml:"port,omitempty"`     // Listen port (default: 3100)
	Host     string `yaml:"host,omitempty"`     // Bind address (default: 127.0.0.1)
	BasePath string `yaml:"basePath,omitempty"` // Optional path prefix, e.g. "/payments"

	// ExternalHost overrides the host used when building absolute URLs
	// (login URL in 401 bodies, MCP endpoint URL on the success page).
	// Platforms like Render provide this; empty means use the request Host.
	ExternalHost string `yaml:"externalHost,omitempty"`

	// SecureCookies marks the browser session cookie as Secure. Enabled
	// automatically when a cloud PORT is injected.
	SecureCookies bool `yaml:"secureCookies,omitempty"`
}

// AuthConfig holds settings for the session/auth bridge.
type AuthConfig struct {
	// SessionSecret seeds nothing cryptographic today (session ids are
	// random UUIDs) but is kept as the knob operators set; a non-default
	// value also silences the production warning.
	SessionSecret string `yaml:"sessionSecret,omitempty"`
}

// OAuthConfig holds the optional third-party provider settings. The
// delegated login flow is enabled when ClientID is non-empty; otherwise
// /auth/<provider> falls back to the credential form.
type OAuthConfig struct {
	ClientID     string   `yaml:"clientId,omitempty"`
	ClientSecret string   `yaml:"clientSecret,omitempty"`
	AuthURL      string   `yaml:"authUrl,omitempty"`
	TokenURL     string   `yaml:"tokenUrl,omitempty"`
	RedirectURL  string   `yaml:"redirectUrl,omitempty"`
	Scopes       []string `yaml:"scopes,omitempty"`
}

// Enabled reports whether the delegated OAuth login flow is configured.
func (o OAuthConfig) Enabled() bool {
	return o.ClientID != ""
}

// Config is the top-level configuration for the payments-mcp host server.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Auth   AuthConfig   `yaml:"auth"`
	OAuth  OAuthConfig  `yaml:"oauth"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port: DefaultPort,
			Host: DefaultHost,
		},
		Auth: AuthConfig{
			SessionSecret: DefaultSessionSecret,
		},
	}
}

// Load reads configuration from the given YAML file path, falling back to
// defaults when the file does not exist, then applies environment
// overrides. An empty path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
			}
			logging.Info("Config", "No config file at %s, using defaults", path)
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
			}
			logging.Info("Config", "Loaded configuration from %s", path)
		}
	}

	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto the configuration. getenv
// is injectable for tests. PORT (set by Render, Heroku, etc.) takes
// precedence over MCP_HOST_PORT and flips the bind address to 0.0.0.0
// with secure cookies, matching hosted deployments.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("MCP_HOST_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
			c.Server.Host = "0.0.0.0"
			c.Server.SecureCookies = true
		}
	}
	if v := getenv("MCP_HOST_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := getenv("MCP_BASE_PATH"); v != "" {
		c.Server.BasePath = v
	}
	if v := getenv("RENDER_EXTERNAL_HOSTNAME"); v != "" {
		c.Server.ExternalHost = v
	}
	if v := getenv("MCP_SESSION_SECRET"); v != "" {
		c.Auth.SessionSecret = v
	}
	if v := getenv("OAUTH_CLIENT_ID"); v != "" {
		c.OAuth.ClientID = v
	}
	if v := getenv("OAUTH_CLIENT_SECRET"); v != "" {
		c.OAuth.ClientSecret = v
	}
	if v := getenv("OAUTH_AUTH_URL"); v != "" {
		c.OAuth.AuthURL = v
	}
	if v := getenv("OAUTH_TOKEN_URL"); v != "" {
		c.OAuth.TokenURL = v
	}
	if v := getenv("OAUTH_REDIRECT_URL"); v != "" {
		c.OAuth.RedirectURL = v
	}
}

// Validate checks the configuration for values the server cannot start
// with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.OAuth.Enabled() {
		if c.OAuth.AuthURL == "" || c.OAuth.TokenURL == "" {
			return errors.New("oauth clientId set but authUrl/tokenUrl missing")
		}
	}
	if c.Auth.SessionSecret == DefaultSessionSecret && c.Server.Host == "0.0.0.0" {
		logging.Warn("Config", "Using the default session secret on a public bind address; set MCP_SESSION_SECRET")
	}
	return nil
}

// ListenAddr returns the host:port pair the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
