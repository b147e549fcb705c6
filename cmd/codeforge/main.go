package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/codeforge-ai/codeforge/internal/app"
	"github.com/codeforge-ai/codeforge/internal/store"
)

// version is set at build time via -ldflags.
var version = "dev"

// healthURL maps a listen address to the URL the health check requests.
// Wildcard or empty hosts are reached through localhost.
func healthURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Sprintf("http://localhost%s/healthz", addr)
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/healthz"
}

// runHealthCheck performs an HTTP health check against addr (":port" or
// "host:port").
func runHealthCheck(addr string) error {
	resp, err := http.Get(healthURL(addr))
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

func main() {
	// Built-in health check for container HEALTHCHECK.
	if len(os.Args) > 1 && os.Args[1] == "-healthcheck" {
		addr := os.Getenv("CODEFORGE_LISTEN_ADDR")
		if addr == "" {
			addr = ":8080"
		}
		if err := runHealthCheck(addr); err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	}

	log.Printf("codeforge version %s", version)
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	srv, err := app.NewServer(cfg)
	if err != nil {
		log.Fatalf("server init error: %v", err)
	}

	logBoot(slog.Default(), cfg, srv.Gateway().Router().Configured())

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		WriteTimeout:      time.Duration(cfg.ProviderTimeoutSecs+30) * time.Second,
	}

	go func() {
		log.Printf("codeforge listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	// SIGHUP reloads the settings that can change at runtime.
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for range reload {
			newCfg, err := app.LoadConfig()
			if err != nil {
				log.Printf("config reload error: %v (keeping current config)", err)
				continue
			}
			srv.Reload(newCfg)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Printf("shutting down (draining in-flight requests)...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	if err := srv.Close(); err != nil {
		log.Printf("server close error: %v", err)
	}
	log.Printf("shutdown complete")
}

// logBoot reports which providers can serve requests and where usage goes.
// With no provider the server still starts; every call then fails with a
// configuration error.
func logBoot(logger *slog.Logger, cfg app.Config, configured []string) {
	attrs := []any{
		slog.String("version", version),
		slog.String("providers", strings.Join(configured, ",")),
		slog.String("usage_store", store.Kind(cfg.UsageDSN)),
		slog.Bool("tracing", cfg.OTelEnabled),
	}
	if len(configured) == 0 {
		logger.Warn("no AI provider configured; set ANTHROPIC_API_KEY, OPENAI_API_KEY or OPENROUTER_API_KEY", attrs...)
		return
	}
	logger.Info("codeforge ready", attrs...)
}
