package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/smtp"
	"strings"
	"time"
)

// webhookTimeout bounds a single webhook delivery attempt.
const webhookTimeout = 10 * time.Second

// smtpTimeout bounds a single email delivery attempt end to end. It is
// a var so tests can shorten it.
var smtpTimeout = 10 * time.Second

// deliverLog writes the notification to the local log. It is best-effort
// and never fails.
func (d *Dispatcher) deliverLog(n *Notification) error {
	device := n.DeviceID
	if device == "" {
		device = "-"
	}
	log.Printf("notification [%s] device=%s %s: %s", n.Level, device, n.Title, n.Message)
	return nil
}

// deliverEmail sends the notification over SMTP. Missing configuration
// is a non-fatal failure for this channel only.
func (d *Dispatcher) deliverEmail(n *Notification, cfg Config) error {
	e := cfg.Email
	if e.Host == "" || e.From == "" || len(e.Recipients) == 0 {
		return fmt.Errorf("email channel not configured (host, from, and recipients are required)")
	}

	port := e.Port
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", e.Host, port)

	var auth smtp.Auth
	if e.Username != "" {
		auth = smtp.PlainAuth("", e.Username, e.Password, e.Host)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "From: %s\r\n", e.From)
	fmt.Fprintf(&body, "To: %s\r\n", strings.Join(e.Recipients, ", "))
	fmt.Fprintf(&body, "Subject: [%s] %s\r\n", strings.ToUpper(n.Level.String()), n.Title)
	body.WriteString("\r\n")
	body.WriteString(n.Message)
	if n.DeviceID != "" {
		fmt.Fprintf(&body, "\r\n\r\nDevice: %s", n.DeviceID)
	}
	if len(n.RecommendedActions) > 0 {
		body.WriteString("\r\n\r\nRecommended actions:\r\n")
		for _, action := range n.RecommendedActions {
			fmt.Fprintf(&body, "  - %s\r\n", action)
		}
	}

	if err := d.sendMail(addr, auth, e.From, e.Recipients, []byte(body.String())); err != nil {
		return fmt.Errorf("smtp send via %s: %w", addr, err)
	}
	return nil
}

// sendMailWithTimeout mirrors smtp.SendMail but runs the whole exchange
// against a connection deadline, so a hung SMTP server cannot block a
// delivery goroutine indefinitely.
func sendMailWithTimeout(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	conn, err := net.DialTimeout("tcp", addr, smtpTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(smtpTimeout)); err != nil {
		return err
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(a); err != nil {
				return err
			}
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// webhookPayload is the outbound JSON body. DeviceID is nullable by
// contract, so it is a pointer rather than omitted.
type webhookPayload struct {
	ID                 string   `json:"id"`
	Level              string   `json:"level"`
	Title              string   `json:"title"`
	Message            string   `json:"message"`
	Timestamp          string   `json:"timestamp"`
	DeviceID           *string  `json:"device_id"`
	RecommendedActions []string `json:"recommended_actions"`
}

// deliverWebhook posts the notification as JSON to the configured URL.
// Transport errors and non-2xx responses are non-fatal failures for this
// channel only.
func (d *Dispatcher) deliverWebhook(ctx context.Context, n *Notification, cfg Config) error {
	url := cfg.Webhook.URL
	if url == "" {
		return fmt.Errorf("webhook channel not configured (url is required)")
	}

	payload := webhookPayload{
		ID:                 n.ID,
		Level:              n.Level.String(),
		Title:              n.Title,
		Message:            n.Message,
		Timestamp:          n.CreatedAt.UTC().Format(time.RFC3339),
		RecommendedActions: n.RecommendedActions,
	}
	if payload.RecommendedActions == nil {
		payload.RecommendedActions = []string{}
	}
	if n.DeviceID != "" {
		payload.DeviceID = &n.DeviceID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
