// Package notify converts health assessments and status messages into
// alerts and delivers them across configured channels with a minimum
// severity filter and per-condition rate limiting.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkellner/drivesentry/internal/detector"
)

// Level is the severity of a notification. Levels are ordered; the
// dispatcher suppresses anything below the configured minimum.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
	LevelCritical
)

// String returns the lowercase label used in JSON output and config.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelCritical:
		return "critical"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// MarshalJSON renders the level as its string label.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// ParseLevel parses a level label as found in configuration.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "info":
		return LevelInfo, nil
	case "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	case "critical":
		return LevelCritical, nil
	default:
		return 0, fmt.Errorf("unknown notification level %q (valid: info, warning, error, critical)", s)
	}
}

// LevelForRisk maps a detector risk onto the notification severity.
func LevelForRisk(r detector.Risk) Level {
	switch r {
	case detector.RiskCritical:
		return LevelCritical
	case detector.RiskHigh:
		return LevelError
	case detector.RiskMedium:
		return LevelWarning
	default:
		return LevelInfo
	}
}

// Channel identifies a delivery channel.
type Channel string

const (
	ChannelLog     Channel = "log"
	ChannelEmail   Channel = "email"
	ChannelWebhook Channel = "webhook"
)

// ParseChannel parses a channel label as found in configuration.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelLog, ChannelEmail, ChannelWebhook:
		return Channel(s), nil
	default:
		return "", fmt.Errorf("unknown notification channel %q (valid: log, email, webhook)", s)
	}
}

// EmailSettings configures the email channel.
type EmailSettings struct {
	Host       string   `json:"host"`
	Port       int      `json:"port"`
	From       string   `json:"from"`
	Recipients []string `json:"recipients"`
	Username   string   `json:"username"`
	Password   string   `json:"-"`
}

// WebhookSettings configures the webhook channel.
type WebhookSettings struct {
	URL string `json:"url"`
}

// Config is the dispatcher's process-wide configuration. It is loaded
// once at startup and only changes through UpdateConfig; there is no
// implicit reload.
type Config struct {
	Enabled          bool            `json:"enabled"`
	Channels         []Channel       `json:"channels"`
	MinLevel         Level           `json:"min_level"`
	RateLimitMinutes int             `json:"rate_limit_minutes"`
	Email            EmailSettings   `json:"email"`
	Webhook          WebhookSettings `json:"webhook"`
}

// Validate rejects configurations that must never be applied. Channel
// completeness (e.g. a webhook channel without a URL) is deliberately
// not validated here: a half-configured channel soft-fails at delivery
// time rather than blocking the whole config.
func (c Config) Validate() error {
	if c.RateLimitMinutes < 0 {
		return fmt.Errorf("rate_limit_minutes must not be negative, got %d", c.RateLimitMinutes)
	}
	if c.MinLevel < LevelInfo || c.MinLevel > LevelCritical {
		return fmt.Errorf("min_level out of range: %d", int(c.MinLevel))
	}
	for _, ch := range c.Channels {
		if _, err := ParseChannel(string(ch)); err != nil {
			return err
		}
	}
	return nil
}

// normalized returns a copy of c with duplicate channels removed,
// keeping first-occurrence order. Channels behave as a set: a channel
// listed twice must not deliver twice.
func (c Config) normalized() Config {
	if len(c.Channels) < 2 {
		return c
	}
	seen := make(map[Channel]bool, len(c.Channels))
	channels := make([]Channel, 0, len(c.Channels))
	for _, ch := range c.Channels {
		if seen[ch] {
			continue
		}
		seen[ch] = true
		channels = append(channels, ch)
	}
	c.Channels = channels
	return c
}

// Notification is one alert instance. DeliveredChannels records only the
// channels through which delivery actually succeeded.
type Notification struct {
	ID                 string                  `json:"id"`
	Level              Level                   `json:"level"`
	Title              string                  `json:"title"`
	Message            string                  `json:"message"`
	DeviceID           string                  `json:"device_id,omitempty"`
	RelatedEvents      []detector.FailureEvent `json:"related_events,omitempty"`
	RecommendedActions []string                `json:"recommended_actions,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	DeliveredChannels  []Channel               `json:"delivered_channels"`
}
