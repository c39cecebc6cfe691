// Package main is the entry point for the drivesentry server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dkellner/drivesentry/internal/auth"
	"github.com/dkellner/drivesentry/internal/config"
	"github.com/dkellner/drivesentry/internal/detector"
	"github.com/dkellner/drivesentry/internal/history"
	"github.com/dkellner/drivesentry/internal/monitor"
	"github.com/dkellner/drivesentry/internal/notify"
	"github.com/dkellner/drivesentry/internal/pool"
	"github.com/dkellner/drivesentry/internal/safety"
	"github.com/dkellner/drivesentry/internal/smart"
	"github.com/dkellner/drivesentry/internal/tools"
	"github.com/dkellner/drivesentry/internal/topology"
	"github.com/dkellner/drivesentry/internal/trend"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultConfigPath = "/config/config.yaml"

func main() {
	cfg := loadConfig()
	config.ApplyEnvOverrides(cfg)

	tokenBefore := cfg.Server.AuthToken
	token, err := config.EnsureAuthToken(cfg)
	if err != nil {
		log.Printf("warning: could not generate auth token: %v; running without authentication", err)
	} else if tokenBefore == "" {
		log.Printf("generated auth token (set DRIVESENTRY_AUTH_TOKEN to persist): %s", token)
	}

	// Open audit log writer if enabled.
	var auditLogger *safety.AuditLogger
	if cfg.Audit.Enabled {
		f, err := os.OpenFile(cfg.Audit.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			log.Printf("warning: could not open audit log %q: %v; audit logging disabled", cfg.Audit.LogPath, err)
		} else {
			auditLogger = safety.NewAuditLogger(f)
			defer f.Close()
		}
	}

	// Build safety components.
	deviceFilter := safety.NewFilter(
		cfg.Monitor.Devices.Allowlist,
		cfg.Monitor.Devices.Denylist,
	)
	notifyConfirm := safety.NewConfirmationTracker(notify.DestructiveTools)

	// Build the monitoring core.
	source := smart.NewSmartctlSource(
		cfg.Paths.Smartctl,
		time.Duration(cfg.Monitor.DiagnosticTimeoutSeconds)*time.Second,
	)
	store := history.NewStore(
		filepath.Join(cfg.Paths.DataDir, "health_history.json"),
		cfg.Monitor.RetentionDays,
	)
	analyzer := trend.NewAnalyzer()
	topo := topology.NewEmhttpProvider(cfg.Paths.EmhttpState, cfg.Paths.MountRoot)
	access := topology.NewUnixAccessChecker()
	det := detector.New(source, store, analyzer, topo, access, cfg.Monitor.TrendWindowDays)
	evaluator := pool.NewEvaluator(topo)

	notifyCfg, err := buildNotifyConfig(cfg)
	if err != nil {
		log.Fatalf("invalid notification configuration: %v", err)
	}
	dispatcher, err := notify.NewDispatcher(notifyCfg)
	if err != nil {
		log.Fatalf("failed to create notification dispatcher: %v", err)
	}

	notifyAt, err := detector.ParseRisk(cfg.Monitor.NotifyAtRisk)
	if err != nil {
		log.Fatalf("invalid monitor.notify_at_risk: %v", err)
	}
	scheduler, err := monitor.NewScheduler(det, dispatcher, topo, deviceFilter, cfg.Monitor.Schedule, notifyAt)
	if err != nil {
		log.Fatalf("failed to create monitor scheduler: %v", err)
	}

	// Build MCP server.
	mcpServer := server.NewMCPServer(
		"drivesentry",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	// Register all tools.
	var registrations []tools.Registration
	registrations = append(registrations, detector.HealthTools(det, auditLogger)...)
	registrations = append(registrations, pool.PoolTools(evaluator, det, topo, auditLogger)...)
	registrations = append(registrations, topology.TopologyTools(topo, auditLogger)...)
	registrations = append(registrations, history.HistoryTools(store, auditLogger)...)
	registrations = append(registrations, notify.NotificationTools(dispatcher, notifyConfirm, auditLogger)...)

	tools.RegisterAll(mcpServer, registrations)

	// Build Streamable HTTP server and wrap with auth middleware. The
	// metrics endpoint stays outside the auth wrapper so scrapers do not
	// need the MCP token.
	httpHandler := server.NewStreamableHTTPServer(mcpServer)
	authMiddleware := auth.NewAuthMiddleware(cfg.Server.AuthToken)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", authMiddleware(httpHandler))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	scheduler.Start(context.Background())

	// Graceful shutdown on SIGINT / SIGTERM.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("drivesentry listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-stop
	log.Println("shutting down...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := scheduler.Stop(stopCtx); err != nil {
		log.Printf("monitor stop error: %v", err)
	}
	stopCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
	log.Println("server stopped")
}

// buildNotifyConfig translates the YAML notification section into the
// dispatcher's typed configuration.
func buildNotifyConfig(cfg *config.Config) (notify.Config, error) {
	nc := cfg.Notifications

	minLevel, err := notify.ParseLevel(nc.MinLevel)
	if err != nil {
		return notify.Config{}, err
	}

	channels := make([]notify.Channel, 0, len(nc.Channels))
	for _, raw := range nc.Channels {
		ch, err := notify.ParseChannel(raw)
		if err != nil {
			return notify.Config{}, err
		}
		channels = append(channels, ch)
	}

	return notify.Config{
		Enabled:          nc.Enabled,
		Channels:         channels,
		MinLevel:         minLevel,
		RateLimitMinutes: nc.RateLimitMinutes,
		Email: notify.EmailSettings{
			Host:       nc.Email.Host,
			Port:       nc.Email.Port,
			From:       nc.Email.From,
			Recipients: nc.Email.Recipients,
			Username:   nc.Email.Username,
			Password:   nc.Email.Password,
		},
		Webhook: notify.WebhookSettings{URL: nc.Webhook.URL},
	}, nil
}

// loadConfig attempts to read the config file from the path specified by
// DRIVESENTRY_CONFIG_PATH or the default /config/config.yaml. If the
// file cannot be read, DefaultConfig is returned.
func loadConfig() *config.Config {
	path := os.Getenv("DRIVESENTRY_CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Printf("could not load config from %q (%v), using defaults", path, err)
		return config.DefaultConfig()
	}

	log.Printf("loaded config from %q", path)
	return cfg
}
