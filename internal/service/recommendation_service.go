package service

import (
	"context"
	"fmt"

	"stock-advisor/internal/domain"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/trace"
)

type RecommendationReader interface {
	Latest(ctx context.Context, symbol string) (*domain.Recommendation, error)
	History(ctx context.Context, symbol string) ([]domain.Recommendation, error)
	ListLatest(ctx context.Context, limit int) ([]domain.Recommendation, error)
	Symbols(ctx context.Context) ([]string, error)
}

type RecommendationService struct {
	tracer trace.Tracer
	repo   RecommendationReader
	cache  RecommendationCache
}

func NewRecommendationService(tracer trace.Tracer, repo RecommendationReader, cache RecommendationCache) *RecommendationService {
	return &RecommendationService{tracer: tracer, repo: repo, cache: cache}
}

// Latest returns the newest stored recommendation, nil when the symbol was
// never analyzed. Lookups go through the cache first.
func (s *RecommendationService) Latest(ctx context.Context, symbol string) (*domain.Recommendation, error) {
	ctx, span := s.tracer.Start(ctx, "recommendation-service.latest")
	defer span.End()

	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, domain.ErrMissingSymbol
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, symbol)
		if err != nil {
			log.Warn("recommendation cache read failed", "symbol", symbol, "err", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	rec, err := s.repo.Latest(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("latest recommendation for %s: %w", symbol, err)
	}
	if rec != nil && s.cache != nil {
		if err := s.cache.Set(ctx, *rec); err != nil {
			log.Warn("recommendation cache write failed", "symbol", symbol, "err", err)
		}
	}
	return rec, nil
}

func (s *RecommendationService) History(ctx context.Context, symbol string) ([]domain.Recommendation, error) {
	ctx, span := s.tracer.Start(ctx, "recommendation-service.history")
	defer span.End()

	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, domain.ErrMissingSymbol
	}
	return s.repo.History(ctx, symbol)
}

func (s *RecommendationService) ListLatest(ctx context.Context, limit int) ([]domain.Recommendation, error) {
	ctx, span := s.tracer.Start(ctx, "recommendation-service.list-latest")
	defer span.End()

	if limit <= 0 {
		limit = 5
	}
	return s.repo.ListLatest(ctx, limit)
}

func (s *RecommendationService) Symbols(ctx context.Context) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "recommendation-service.symbols")
	defer span.End()
	return s.repo.Symbols(ctx)
}
