// Package config provides configuration loading and defaults for the
// drivesentry server.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ResourceFilter holds allowlist and denylist entries for device selection.
type ResourceFilter struct {
	Allowlist []string `yaml:"allowlist"`
	Denylist  []string `yaml:"denylist"`
}

// ServerConfig holds network and authentication settings.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// PathsConfig holds filesystem paths used by the server.
type PathsConfig struct {
	// Smartctl is the diagnostic tool binary.
	Smartctl string `yaml:"smartctl"`

	// EmhttpState is the appliance state directory holding disks.ini.
	EmhttpState string `yaml:"emhttp_state"`

	// MountRoot is the directory under which data drives are mounted.
	MountRoot string `yaml:"mount_root"`

	// DataDir holds the persisted health history.
	DataDir string `yaml:"data_dir"`
}

// MonitorConfig controls the periodic polling loop.
type MonitorConfig struct {
	// Schedule is a cron expression or descriptor such as "@every 300s".
	Schedule string `yaml:"schedule"`

	// TrendWindowDays is the history window fed to trend analysis.
	TrendWindowDays int `yaml:"trend_window_days"`

	// RetentionDays is how long diagnostic readings are retained.
	RetentionDays int `yaml:"retention_days"`

	// DiagnosticTimeoutSeconds bounds one diagnostic tool invocation.
	DiagnosticTimeoutSeconds int `yaml:"diagnostic_timeout_seconds"`

	// NotifyAtRisk is the minimum overall risk that triggers a
	// notification: "low", "medium", "high", or "critical".
	NotifyAtRisk string `yaml:"notify_at_risk"`

	// Devices filters which discovered devices are polled.
	Devices ResourceFilter `yaml:"devices"`
}

// EmailConfig holds SMTP settings for the email notification channel.
type EmailConfig struct {
	Host       string   `yaml:"host"`
	Port       int      `yaml:"port"`
	From       string   `yaml:"from"`
	Recipients []string `yaml:"recipients"`
	Username   string   `yaml:"username"`
	Password   string   `yaml:"password"`
}

// WebhookConfig holds settings for the webhook notification channel.
type WebhookConfig struct {
	URL string `yaml:"url"`
}

// NotificationsConfig holds the notification dispatcher settings.
type NotificationsConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Channels         []string      `yaml:"channels"`
	MinLevel         string        `yaml:"min_level"`
	RateLimitMinutes int           `yaml:"rate_limit_minutes"`
	Email            EmailConfig   `yaml:"email"`
	Webhook          WebhookConfig `yaml:"webhook"`
}

// AuditConfig controls audit logging behaviour.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	LogPath string `yaml:"log_path"`
}

// Config is the top-level configuration structure for the drivesentry
// server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Paths         PathsConfig         `yaml:"paths"`
	Monitor       MonitorConfig       `yaml:"monitor"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Audit         AuditConfig         `yaml:"audit"`
}

// LoadConfig reads and parses a YAML configuration file from the given
// path. On error, nil is returned for the config pointer.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a new Config populated with sensible default
// values. Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Paths: PathsConfig{
			Smartctl:    "smartctl",
			EmhttpState: "/var/local/emhttp",
			MountRoot:   "/mnt",
			DataDir:     "/config/data",
		},
		Monitor: MonitorConfig{
			Schedule:                 "@every 300s",
			TrendWindowDays:          7,
			RetentionDays:            30,
			DiagnosticTimeoutSeconds: 30,
			NotifyAtRisk:             "medium",
		},
		Notifications: NotificationsConfig{
			Enabled:          true,
			Channels:         []string{"log"},
			MinLevel:         "warning",
			RateLimitMinutes: 60,
		},
		Audit: AuditConfig{
			Enabled: true,
			LogPath: "/config/audit.log",
		},
	}
}

// ApplyEnvOverrides updates cfg in place with values from environment
// variables. Recognized variables:
//   - DRIVESENTRY_AUTH_TOKEN overrides cfg.Server.AuthToken
//   - DRIVESENTRY_WEBHOOK_URL overrides cfg.Notifications.Webhook.URL
//   - DRIVESENTRY_SMTP_PASSWORD overrides cfg.Notifications.Email.Password
func ApplyEnvOverrides(cfg *Config) {
	if token := os.Getenv("DRIVESENTRY_AUTH_TOKEN"); token != "" {
		cfg.Server.AuthToken = token
	}
	if url := os.Getenv("DRIVESENTRY_WEBHOOK_URL"); url != "" {
		cfg.Notifications.Webhook.URL = url
	}
	if pass := os.Getenv("DRIVESENTRY_SMTP_PASSWORD"); pass != "" {
		cfg.Notifications.Email.Password = pass
	}
}

// EnsureAuthToken generates a random auth token and sets it on cfg if
// cfg.Server.AuthToken is empty. It returns the token (existing or
// generated) and any error encountered during generation.
func EnsureAuthToken(cfg *Config) (string, error) {
	if cfg.Server.AuthToken != "" {
		return cfg.Server.AuthToken, nil
	}
	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	cfg.Server.AuthToken = token
	return token, nil
}

// GenerateRandomToken returns a 32-character hex-encoded
// cryptographically random token string.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
