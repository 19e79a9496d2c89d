package service

import (
	"context"
	"fmt"

	"stock-advisor/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type NewsReader interface {
	ListRecent(ctx context.Context, symbol string, limit int) ([]domain.NewsArticle, error)
}

type MarketDataStore interface {
	LatestClose(ctx context.Context, symbol string) (*domain.PriceBar, error)
	ClearMarketData(ctx context.Context) error
}

// CachePurger drops every cached recommendation.
type CachePurger interface {
	Purge(ctx context.Context) error
}

type ScoredArticle struct {
	domain.NewsArticle
	Category domain.SentimentCategory `json:"sentiment_category"`
}

// MarketService serves the stored prices and news that feed the analysis.
type MarketService struct {
	tracer trace.Tracer
	news   NewsReader
	prices MarketDataStore
	cache  CachePurger
}

func NewMarketService(tracer trace.Tracer, news NewsReader, prices MarketDataStore, cache CachePurger) *MarketService {
	return &MarketService{tracer: tracer, news: news, prices: prices, cache: cache}
}

func (s *MarketService) News(ctx context.Context, symbol string, limit int) ([]ScoredArticle, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.news")
	defer span.End()

	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, domain.ErrMissingSymbol
	}
	articles, err := s.news.ListRecent(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ScoredArticle, 0, len(articles))
	for _, a := range articles {
		out = append(out, ScoredArticle{NewsArticle: a, Category: domain.CategorizeSentiment(a.SentimentScore)})
	}
	return out, nil
}

func (s *MarketService) LatestClose(ctx context.Context, symbol string) (*domain.PriceBar, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.latest-close")
	defer span.End()

	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, domain.ErrMissingSymbol
	}
	return s.prices.LatestClose(ctx, symbol)
}

// ClearMarketData wipes recommendations, prices and news, then empties the
// recommendation cache so nothing derived from the old data is served.
func (s *MarketService) ClearMarketData(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "market-service.clear-market-data")
	defer span.End()

	if err := s.prices.ClearMarketData(ctx); err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Purge(ctx); err != nil {
		return fmt.Errorf("purge recommendation cache: %w", err)
	}
	return nil
}
