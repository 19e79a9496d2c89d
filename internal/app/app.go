// Package app assembles the repositories, sentiment pipeline and services
// shared by every binary.
package app

import (
	"context"
	"time"

	"stock-advisor/internal/cache"
	"stock-advisor/internal/config"
	"stock-advisor/internal/repository"
	"stock-advisor/internal/sentiment"
	"stock-advisor/internal/service"
	signalengine "stock-advisor/internal/signal"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

type Deps struct {
	Pool   repository.PgxPool
	Redis  *redis.Client
	Tracer trace.Tracer
	LLM    sentiment.Client
}

type Services struct {
	Analysis        *service.AnalysisService
	Recommendations *service.RecommendationService
	Market          *service.MarketService
}

// ProviderConfig maps the loaded configuration onto the sentiment client options.
func ProviderConfig(cfg *config.Config) sentiment.ProviderConfig {
	return sentiment.ProviderConfig{
		Provider:     cfg.SentimentProvider,
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		OpenAIModel:  cfg.OpenAIModel,
	}
}

// NewLLMClient builds the configured sentiment client. Construction failures
// are logged and degrade to neutral scoring.
func NewLLMClient(ctx context.Context, cfg *config.Config) sentiment.Client {
	client, err := sentiment.NewClient(ctx, ProviderConfig(cfg))
	if err != nil {
		log.Error("failed to create sentiment client, scores will be neutral", "provider", cfg.SentimentProvider, "err", err)
		return nil
	}
	if client == nil {
		log.Warn("no sentiment API key configured, scores will be neutral", "provider", cfg.SentimentProvider)
		return nil
	}
	log.Info("Sentiment client ready", "provider", cfg.SentimentProvider)
	return client
}

func NewServices(cfg *config.Config, deps Deps) *Services {
	tracer := deps.Tracer

	priceRepo := repository.NewPriceRepository(deps.Pool, tracer)
	newsRepo := repository.NewNewsRepository(deps.Pool, tracer)
	recRepo := repository.NewRecommendationRepository(deps.Pool, tracer)

	recCache := cache.NewRecommendationCache(deps.Redis, time.Duration(cfg.RecommendationCacheTTL)*time.Second)

	scorer := sentiment.NewScorer(tracer, deps.LLM, time.Duration(cfg.SentimentTimeoutSecs)*time.Second)
	coordinator := sentiment.NewCoordinator(tracer, scorer, newsRepo, cfg.ScoringWorkers)
	engine := signalengine.NewEngine(nil)

	return &Services{
		Analysis: service.NewAnalysisService(
			tracer, priceRepo, newsRepo, recRepo, coordinator, engine, recCache,
			time.Duration(cfg.PriceLookbackDays)*24*time.Hour,
		),
		Recommendations: service.NewRecommendationService(tracer, recRepo, recCache),
		Market:          service.NewMarketService(tracer, newsRepo, priceRepo, recCache),
	}
}
