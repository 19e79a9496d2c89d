package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

type Config struct {
	HTTPPort           int
	CORSAllowedOrigins []string

	DatabaseURL string
	DBMaxConns  int

	RedisURL               string
	RecommendationCacheTTL int

	SentimentProvider    string
	GeminiAPIKey         string
	GeminiModel          string
	OpenAIAPIKey         string
	OpenAIModel          string
	SentimentTimeoutSecs int
	ScoringWorkers       int
	PriceLookbackDays    int

	RefreshPollMins  int
	TelegramBotToken string

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int

	DashboardSSHEnabled bool
	DashboardSSHHost    string
	DashboardSSHPort    int
	DashboardSSHHostKey string
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		MCPAuthToken:     os.Getenv("MCP_AUTH_TOKEN"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
	}

	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.TelegramBotToken == "" {
		log.Warn("TELEGRAM_BOT_TOKEN not set")
	}

	cfg.HTTPPort = positiveInt("HTTP_PORT", 8080)
	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// The scoring pool writes back through the same pool, so it needs headroom.
	cfg.ScoringWorkers = positiveInt("SCORING_WORKERS", 5)
	cfg.DBMaxConns = positiveInt("DB_MAX_CONNS", 10)
	if floor := cfg.ScoringWorkers + 2; cfg.DBMaxConns < floor {
		log.Warn("DB_MAX_CONNS below scoring pool width, raising", "requested", cfg.DBMaxConns, "max_conns", floor)
		cfg.DBMaxConns = floor
	}

	cfg.RecommendationCacheTTL = positiveInt("RECOMMENDATION_CACHE_TTL_SECS", 300)

	cfg.SentimentProvider = strings.ToLower(strings.TrimSpace(os.Getenv("SENTIMENT_PROVIDER")))
	if cfg.SentimentProvider == "" {
		cfg.SentimentProvider = "gemini"
	}
	if cfg.SentimentProvider != "gemini" && cfg.SentimentProvider != "openai" {
		log.Warnf("unsupported SENTIMENT_PROVIDER=%q, defaulting to gemini", cfg.SentimentProvider)
		cfg.SentimentProvider = "gemini"
	}

	cfg.GeminiModel = strings.TrimSpace(os.Getenv("GEMINI_MODEL"))
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = "gemini-1.5-pro"
	}
	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	switch {
	case cfg.SentimentProvider == "gemini" && cfg.GeminiAPIKey == "":
		log.Warn("GEMINI_API_KEY not set, sentiment scoring will return neutral scores")
	case cfg.SentimentProvider == "openai" && cfg.OpenAIAPIKey == "":
		log.Warn("OPENAI_API_KEY not set, sentiment scoring will return neutral scores")
	}

	cfg.SentimentTimeoutSecs = positiveInt("SENTIMENT_TIMEOUT_SECS", 30)
	cfg.PriceLookbackDays = positiveInt("PRICE_LOOKBACK_DAYS", 365)

	cfg.RefreshPollMins = 0
	if v := strings.TrimSpace(os.Getenv("REFRESH_POLL_MINS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RefreshPollMins = n
		}
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Warnf("unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_HTTP_ENABLED")), "true")

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}
	cfg.MCPHTTPPort = positiveInt("MCP_HTTP_PORT", 8090)
	cfg.MCPRequestTimeoutSecs = positiveInt("MCP_REQUEST_TIMEOUT_SECS", 60)
	cfg.MCPRateLimitPerMin = positiveInt("MCP_RATE_LIMIT_PER_MIN", 60)

	cfg.DashboardSSHEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("DASHBOARD_SSH_ENABLED")), "true")
	cfg.DashboardSSHHost = strings.TrimSpace(os.Getenv("DASHBOARD_SSH_HOST"))
	if cfg.DashboardSSHHost == "" {
		cfg.DashboardSSHHost = "0.0.0.0"
	}
	cfg.DashboardSSHPort = positiveInt("DASHBOARD_SSH_PORT", 23234)
	cfg.DashboardSSHHostKey = strings.TrimSpace(os.Getenv("DASHBOARD_SSH_HOST_KEY_PATH"))
	if cfg.DashboardSSHHostKey == "" {
		cfg.DashboardSSHHostKey = ".ssh/dashboard_ed25519"
	}

	return cfg
}

func positiveInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warnf("invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
