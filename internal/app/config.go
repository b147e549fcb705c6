package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/codeforge-ai/codeforge/internal/providers/anthropic"
	"github.com/codeforge-ai/codeforge/internal/providers/openai"
	"github.com/codeforge-ai/codeforge/internal/providers/openrouter"
	"github.com/codeforge-ai/codeforge/internal/tracing"
	"github.com/codeforge-ai/codeforge/internal/usage"
)

type Config struct {
	ListenAddr string
	LogLevel   string

	ProviderTimeoutSecs int

	AnthropicAPIKey  string
	OpenAIAPIKey     string
	OpenRouterAPIKey string

	AnthropicBaseURL  string
	OpenAIBaseURL     string
	OpenRouterBaseURL string
	OpenRouterReferer string
	OpenRouterTitle   string

	// UsageDSN selects the usage store: postgres:// URLs use Postgres,
	// anything else is a SQLite path. Empty keeps usage in memory only.
	UsageDSN string

	BaselineCostPerCallUSD float64
	ProjectCacheSize       int
	CORSOrigins            []string

	OTelEnabled     bool
	OTelExporter    string
	OTelEndpoint    string
	OTelServiceName string
}

// LoadConfig reads .env (if present) and the environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr: getEnv("CODEFORGE_LISTEN_ADDR", ":8080"),
		LogLevel:   getEnv("CODEFORGE_LOG_LEVEL", "info"),

		ProviderTimeoutSecs: getEnvInt("CODEFORGE_PROVIDER_TIMEOUT_SECS", 120),

		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),

		AnthropicBaseURL:  getEnv("CODEFORGE_ANTHROPIC_BASE_URL", anthropic.DefaultBaseURL),
		OpenAIBaseURL:     getEnv("CODEFORGE_OPENAI_BASE_URL", openai.DefaultBaseURL),
		OpenRouterBaseURL: getEnv("CODEFORGE_OPENROUTER_BASE_URL", openrouter.DefaultBaseURL),
		OpenRouterReferer: getEnv("CODEFORGE_OPENROUTER_REFERER", openrouter.DefaultReferer),
		OpenRouterTitle:   getEnv("CODEFORGE_OPENROUTER_TITLE", openrouter.DefaultTitle),

		UsageDSN: os.Getenv("CODEFORGE_USAGE_DSN"),

		BaselineCostPerCallUSD: getEnvFloat("CODEFORGE_BASELINE_COST_PER_CALL_USD", usage.DefaultBaselinePerCallUSD),
		ProjectCacheSize:       getEnvInt("CODEFORGE_PROJECT_CACHE_SIZE", 256),
		CORSOrigins:            getEnvStringSlice("CODEFORGE_CORS_ORIGINS", []string{"*"}),

		OTelEnabled:     getEnvBool("CODEFORGE_OTEL_ENABLED", false),
		OTelExporter:    getEnv("CODEFORGE_OTEL_EXPORTER", tracing.ExporterOTLP),
		OTelEndpoint:    getEnv("CODEFORGE_OTEL_ENDPOINT", "localhost:4318"),
		OTelServiceName: getEnv("CODEFORGE_OTEL_SERVICE_NAME", "codeforge"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks config values for obviously invalid settings. Missing
// API keys are not an error; the router reports them per request.
func (c Config) Validate() error {
	if c.ProviderTimeoutSecs <= 0 {
		return fmt.Errorf("CODEFORGE_PROVIDER_TIMEOUT_SECS must be > 0, got %d", c.ProviderTimeoutSecs)
	}
	if c.ProjectCacheSize <= 0 {
		return fmt.Errorf("CODEFORGE_PROJECT_CACHE_SIZE must be > 0, got %d", c.ProjectCacheSize)
	}
	if c.BaselineCostPerCallUSD < 0 {
		return fmt.Errorf("CODEFORGE_BASELINE_COST_PER_CALL_USD must be >= 0, got %f", c.BaselineCostPerCallUSD)
	}
	switch c.OTelExporter {
	case tracing.ExporterOTLP, tracing.ExporterStdout:
	default:
		return fmt.Errorf("CODEFORGE_OTEL_EXPORTER must be %q or %q, got %q", tracing.ExporterOTLP, tracing.ExporterStdout, c.OTelExporter)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getEnvStringSlice(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		var result []string
		for _, s := range strings.Split(v, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				result = append(result, s)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return def
}
