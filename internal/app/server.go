package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/codeforge-ai/codeforge/internal/dna"
	"github.com/codeforge-ai/codeforge/internal/events"
	"github.com/codeforge-ai/codeforge/internal/gateway"
	"github.com/codeforge-ai/codeforge/internal/httpapi"
	"github.com/codeforge-ai/codeforge/internal/logging"
	"github.com/codeforge-ai/codeforge/internal/metrics"
	"github.com/codeforge-ai/codeforge/internal/providers/anthropic"
	"github.com/codeforge-ai/codeforge/internal/providers/openai"
	"github.com/codeforge-ai/codeforge/internal/providers/openrouter"
	"github.com/codeforge-ai/codeforge/internal/router"
	"github.com/codeforge-ai/codeforge/internal/store"
	"github.com/codeforge-ai/codeforge/internal/tracing"
	"github.com/codeforge-ai/codeforge/internal/usage"
)

type Server struct {
	mu  sync.Mutex
	cfg Config

	r *chi.Mux

	gateway       *gateway.Gateway
	store         usage.Store
	bus           *events.Bus
	traceShutdown func(context.Context) error
	logger        *slog.Logger
}

func NewServer(cfg Config) (*Server, error) {
	logger := logging.Setup(cfg.LogLevel)

	traceShutdown, err := tracing.Setup(tracing.Config{
		Enabled:     cfg.OTelEnabled,
		Exporter:    cfg.OTelExporter,
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: cfg.OTelServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if cfg.OTelEnabled {
		r.Use(tracing.Middleware())
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Negotiated-Provider", "X-Negotiated-Model"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	rt := router.New()
	registerProviders(rt, cfg, logger)

	var ledgerOpts []usage.Option
	ledgerOpts = append(ledgerOpts, usage.WithBaseline(cfg.BaselineCostPerCallUSD), usage.WithLogger(logger))

	var st usage.Store
	if cfg.UsageDSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		st, err = store.Open(ctx, cfg.UsageDSN)
		if err != nil {
			_ = traceShutdown(context.Background())
			return nil, fmt.Errorf("usage store: %w", err)
		}
		ledgerOpts = append(ledgerOpts, usage.WithStore(st))
	}
	ledger := usage.NewLedger(ledgerOpts...)
	if st != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := ledger.Load(ctx); err != nil {
			_ = st.Close()
			_ = traceShutdown(context.Background())
			return nil, fmt.Errorf("load usage: %w", err)
		}
		logger.Info("usage store initialized", slog.Int("records", ledger.TotalCalls()))
	}

	gw := gateway.New(rt, ledger, logger)
	gen := dna.NewGenerator(gw, logger)
	projects, err := dna.NewProjects(cfg.ProjectCacheSize, gen, logger)
	if err != nil {
		return nil, err
	}
	bus := events.NewBus()

	httpapi.MountRoutes(r, httpapi.Dependencies{
		Gateway:   gw,
		Generator: gen,
		Projects:  projects,
		Metrics:   metrics.New(),
		EventBus:  bus,
		Logger:    logger,
	})

	configured := rt.Configured()
	if len(configured) == 0 {
		logger.Warn("no AI providers configured; calls will fail until an API key is set")
	} else {
		logger.Info("providers configured", slog.Any("providers", configured))
	}

	return &Server{
		cfg:           cfg,
		r:             r,
		gateway:       gw,
		store:         st,
		bus:           bus,
		traceShutdown: traceShutdown,
		logger:        logger,
	}, nil
}

func (s *Server) Router() http.Handler { return s.r }

// Gateway exposes the wired gateway.
func (s *Server) Gateway() *gateway.Gateway { return s.gateway }

// Reload applies the settings that can change without a restart. Today
// that is the log level; provider keys and the store need a restart.
func (s *Server) Reload(cfg Config) {
	s.mu.Lock()
	old := s.cfg
	s.cfg = cfg
	s.mu.Unlock()

	logging.SetLevel(cfg.LogLevel)
	s.logger.Info("configuration reloaded",
		slog.String("log_level", cfg.LogLevel),
		slog.Bool("restart_required", needsRestart(old, cfg)))
}

func needsRestart(old, cfg Config) bool {
	return old.ListenAddr != cfg.ListenAddr ||
		old.AnthropicAPIKey != cfg.AnthropicAPIKey ||
		old.OpenAIAPIKey != cfg.OpenAIAPIKey ||
		old.OpenRouterAPIKey != cfg.OpenRouterAPIKey ||
		old.UsageDSN != cfg.UsageDSN
}

// Close releases the usage store and flushes pending spans.
func (s *Server) Close() error {
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	if s.traceShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, s.traceShutdown(ctx))
	}
	return errors.Join(errs...)
}

// registerProviders registers the three adapters in fixed order. Adapters
// without a key are registered too; the router skips them.
func registerProviders(rt *router.Router, cfg Config, logger *slog.Logger) {
	client := providerClient(cfg)

	rt.Register(anthropic.New(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL,
		anthropic.WithHTTPClient(client), anthropic.WithLogger(logger)))
	rt.Register(openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL,
		openai.WithHTTPClient(client), openai.WithLogger(logger)))
	rt.Register(openrouter.New(cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL,
		openrouter.WithHTTPClient(client), openrouter.WithLogger(logger),
		openrouter.WithAttribution(cfg.OpenRouterReferer, cfg.OpenRouterTitle)))

	for _, id := range []string{router.ProviderClaude, router.ProviderOpenAI, router.ProviderOpenRouter} {
		p, _ := rt.Provider(id)
		logger.Debug("registered provider",
			slog.String("provider", id),
			slog.Bool("configured", p.IsConfigured()))
	}
}

func providerClient(cfg Config) *http.Client {
	var transport http.RoundTripper = http.DefaultTransport
	if cfg.OTelEnabled {
		transport = tracing.HTTPTransport(transport)
	}
	return &http.Client{
		Timeout:   time.Duration(cfg.ProviderTimeoutSecs) * time.Second,
		Transport: transport,
	}
}
