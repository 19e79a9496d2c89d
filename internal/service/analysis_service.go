package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/sentiment"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultPriceLookback = 365 * 24 * time.Hour

type PriceStore interface {
	ListPriceBars(ctx context.Context, symbol string, since time.Time) ([]domain.PriceBar, error)
}

type ArticleStore interface {
	ListArticles(ctx context.Context, symbol string) ([]domain.NewsArticle, error)
}

type RecommendationWriter interface {
	Save(ctx context.Context, rec domain.Recommendation) (domain.Recommendation, error)
}

type SentimentCoordinator interface {
	ScoreAll(ctx context.Context, articles []domain.NewsArticle) sentiment.BatchResult
}

type RecommendationEngine interface {
	Trend(symbol string, bars []domain.PriceBar) (domain.TrendSummary, error)
	Recommend(summary domain.TrendSummary, sentiment float64) domain.Recommendation
}

type RecommendationCache interface {
	Get(ctx context.Context, symbol string) (*domain.Recommendation, error)
	Set(ctx context.Context, rec domain.Recommendation) error
	Delete(ctx context.Context, symbol string) error
}

// PersistError reports a recommendation that was computed but could not be
// stored.
type PersistError struct {
	Recommendation domain.Recommendation
	Err            error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("store recommendation for %s: %v", e.Recommendation.Symbol, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

type AnalysisService struct {
	tracer      trace.Tracer
	prices      PriceStore
	articles    ArticleStore
	writer      RecommendationWriter
	coordinator SentimentCoordinator
	engine      RecommendationEngine
	cache       RecommendationCache
	lookback    time.Duration
	now         func() time.Time
}

func NewAnalysisService(
	tracer trace.Tracer,
	prices PriceStore,
	articles ArticleStore,
	writer RecommendationWriter,
	coordinator SentimentCoordinator,
	engine RecommendationEngine,
	cache RecommendationCache,
	lookback time.Duration,
) *AnalysisService {
	if lookback <= 0 {
		lookback = defaultPriceLookback
	}
	return &AnalysisService{
		tracer:      tracer,
		prices:      prices,
		articles:    articles,
		writer:      writer,
		coordinator: coordinator,
		engine:      engine,
		cache:       cache,
		lookback:    lookback,
		now:         time.Now,
	}
}

// Analyze runs the full pipeline for one symbol: trend, concurrent article
// scoring, fusion and persistence. No price data or no articles end the run
// before any scoring or fusion happens. When only the final write fails the
// computed recommendation is returned together with a *PersistError.
func (s *AnalysisService) Analyze(ctx context.Context, symbol string) (domain.Recommendation, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.analyze")
	defer span.End()

	if s.prices == nil || s.articles == nil || s.writer == nil || s.coordinator == nil || s.engine == nil {
		return domain.Recommendation{}, fmt.Errorf("analysis service is not fully initialized")
	}

	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return domain.Recommendation{}, domain.ErrMissingSymbol
	}
	span.SetAttributes(attribute.String("symbol", symbol))

	bars, err := s.prices.ListPriceBars(ctx, symbol, s.now().Add(-s.lookback))
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("list prices for %s: %w", symbol, err)
	}
	summary, err := s.engine.Trend(symbol, bars)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("trend for %s: %w", symbol, err)
	}

	articles, err := s.articles.ListArticles(ctx, symbol)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("list news for %s: %w", symbol, err)
	}
	if len(articles) == 0 {
		return domain.Recommendation{}, fmt.Errorf("news for %s: %w", symbol, domain.ErrNoNewsData)
	}

	batch := s.coordinator.ScoreAll(ctx, articles)
	if batch.PersistFailures > 0 {
		log.Warn("some sentiment scores were not persisted", "symbol", symbol, "failed", batch.PersistFailures, "total", len(articles))
	}

	rec := s.engine.Recommend(summary, batch.Aggregate)
	span.SetAttributes(
		attribute.Float64("recommendation.score", rec.Score),
		attribute.String("recommendation.action", string(rec.Action)),
	)

	saved, err := s.writer.Save(ctx, rec)
	if err != nil {
		span.RecordError(err)
		log.Error("failed to store recommendation", "symbol", symbol, "err", err)
		return rec, &PersistError{Recommendation: rec, Err: err}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, saved); err != nil {
			log.Warn("failed to cache recommendation", "symbol", symbol, "err", err)
		}
	}
	return saved, nil
}

// IsNotFound reports whether err means the symbol has no price or news data.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNoPriceData) || errors.Is(err, domain.ErrNoNewsData)
}
