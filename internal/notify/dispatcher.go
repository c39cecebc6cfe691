package notify

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/smtp"
	"sync"
	"time"

	"github.com/dkellner/drivesentry/internal/detector"
	"github.com/dkellner/drivesentry/internal/metrics"
	"github.com/google/uuid"
)

// historyRetention bounds the recent-notification buffer kept for audit
// and UI display. Notifications are not persisted to disk.
const historyRetention = 30 * 24 * time.Hour

// Dispatcher filters, rate-limits, and delivers notifications. It is
// safe for concurrent use; the rate-limit map and history buffer are the
// only mutable shared state and both live behind the mutex.
type Dispatcher struct {
	mu       sync.Mutex
	cfg      Config
	lastSent map[string]time.Time // rate-limit key → wall-clock send time
	history  []Notification

	now        func() time.Time
	httpClient *http.Client
	sendMail   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewDispatcher returns a Dispatcher with the given starting
// configuration, which must already be valid.
func NewDispatcher(cfg Config) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("notification config: %w", err)
	}
	return &Dispatcher{
		cfg:        cfg.normalized(),
		lastSent:   make(map[string]time.Time),
		now:        time.Now,
		httpClient: &http.Client{Timeout: webhookTimeout},
		sendMail:   sendMailWithTimeout,
	}, nil
}

// Config returns a copy of the active configuration.
func (d *Dispatcher) Config() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// UpdateConfig validates and applies a new configuration. An invalid
// configuration is rejected and the prior one stays in effect.
func (d *Dispatcher) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("update notification config: %w", err)
	}
	d.mu.Lock()
	d.cfg = cfg.normalized()
	d.mu.Unlock()
	return nil
}

// NotifyFailure converts a health assessment into an alert and delivers
// it. The return value is true when delivery was attempted (regardless
// of per-channel outcomes) and false when the notification was
// suppressed by the enabled flag, the minimum level, or the rate limit.
func (d *Dispatcher) NotifyFailure(ctx context.Context, assessment *detector.Assessment) bool {
	level := LevelForRisk(assessment.OverallRisk)

	n := &Notification{
		ID:            uuid.NewString(),
		Level:         level,
		Title:         fmt.Sprintf("Drive health %s: %s", assessment.OverallRisk, assessment.DeviceID),
		Message:       failureMessage(assessment),
		DeviceID:      assessment.DeviceID,
		RelatedEvents: assessment.Events,
		CreatedAt:     d.now().UTC(),
	}
	for _, e := range assessment.Events {
		n.RecommendedActions = append(n.RecommendedActions, e.RecommendedActions...)
	}

	return d.dispatch(ctx, "failure", n)
}

// NotifySystemStatus delivers an arbitrary status message at the given
// level, subject to the same filters as failure notifications.
func (d *Dispatcher) NotifySystemStatus(ctx context.Context, title, message string, level Level) bool {
	n := &Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Title:     title,
		Message:   message,
		CreatedAt: d.now().UTC(),
	}
	return d.dispatch(ctx, "status", n)
}

// Test delivers a test notification through a single channel, bypassing
// the severity filter and rate limit. It reports whether that channel's
// delivery succeeded.
func (d *Dispatcher) Test(ctx context.Context, ch Channel) bool {
	d.mu.Lock()
	cfg := d.cfg
	d.mu.Unlock()

	n := &Notification{
		ID:        uuid.NewString(),
		Level:     LevelInfo,
		Title:     "Test notification",
		Message:   fmt.Sprintf("Test delivery through the %s channel.", ch),
		CreatedAt: d.now().UTC(),
	}

	if err := d.deliver(ctx, ch, n, cfg); err != nil {
		log.Printf("warning: test delivery via %s failed: %v", ch, err)
		return false
	}
	n.DeliveredChannels = append(n.DeliveredChannels, ch)
	d.appendHistory(n)
	return true
}

// Recent returns notifications from the last `days` days, oldest-first.
func (d *Dispatcher) Recent(days int) []Notification {
	cutoff := d.now().Add(-time.Duration(days) * 24 * time.Hour)

	d.mu.Lock()
	defer d.mu.Unlock()

	out := []Notification{}
	for _, n := range d.history {
		if !n.CreatedAt.Before(cutoff) {
			out = append(out, n)
		}
	}
	return out
}

// dispatch applies the suppression filters and, when the notification
// passes, delivers it through every configured channel independently.
func (d *Dispatcher) dispatch(ctx context.Context, kind string, n *Notification) bool {
	key := fmt.Sprintf("%s_%s_%s", kind, n.DeviceID, n.Level)

	d.mu.Lock()
	cfg := d.cfg
	if !cfg.Enabled {
		d.mu.Unlock()
		metrics.NotificationsSuppressedTotal.WithLabelValues("disabled").Inc()
		return false
	}
	if n.Level < cfg.MinLevel {
		d.mu.Unlock()
		metrics.NotificationsSuppressedTotal.WithLabelValues("below_min_level").Inc()
		return false
	}
	if last, ok := d.lastSent[key]; ok {
		window := time.Duration(cfg.RateLimitMinutes) * time.Minute
		if d.now().Sub(last) < window {
			d.mu.Unlock()
			metrics.NotificationsSuppressedTotal.WithLabelValues("rate_limited").Inc()
			return false
		}
	}
	d.lastSent[key] = d.now()
	d.mu.Unlock()

	for _, ch := range cfg.Channels {
		if err := d.deliver(ctx, ch, n, cfg); err != nil {
			metrics.NotificationsTotal.WithLabelValues(string(ch), "failed").Inc()
			log.Printf("warning: notification delivery via %s failed: %v", ch, err)
			continue
		}
		metrics.NotificationsTotal.WithLabelValues(string(ch), "sent").Inc()
		n.DeliveredChannels = append(n.DeliveredChannels, ch)
	}

	d.appendHistory(n)
	return true
}

// deliver routes one notification through one channel.
func (d *Dispatcher) deliver(ctx context.Context, ch Channel, n *Notification, cfg Config) error {
	switch ch {
	case ChannelLog:
		return d.deliverLog(n)
	case ChannelEmail:
		return d.deliverEmail(n, cfg)
	case ChannelWebhook:
		return d.deliverWebhook(ctx, n, cfg)
	default:
		return fmt.Errorf("unknown channel %q", ch)
	}
}

// appendHistory records n in the recent buffer and prunes entries past
// the retention window.
func (d *Dispatcher) appendHistory(n *Notification) {
	cutoff := d.now().Add(-historyRetention)

	d.mu.Lock()
	defer d.mu.Unlock()

	kept := d.history[:0:0]
	for _, old := range d.history {
		if !old.CreatedAt.Before(cutoff) {
			kept = append(kept, old)
		}
	}
	d.history = append(kept, *n)
}

// failureMessage summarizes an assessment's events for human readers.
func failureMessage(a *detector.Assessment) string {
	if len(a.Events) == 0 {
		return fmt.Sprintf("Device %s assessed at risk level %s.", a.DeviceID, a.OverallRisk)
	}
	msg := fmt.Sprintf("Device %s assessed at risk level %s with %d event(s):", a.DeviceID, a.OverallRisk, len(a.Events))
	for _, e := range a.Events {
		msg += "\n  - " + e.Message
	}
	return msg
}
