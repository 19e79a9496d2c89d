package mcp

import (
	"context"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/service"
)

// Analyzer runs the full sentiment and trend pipeline for one symbol.
type Analyzer interface {
	Analyze(ctx context.Context, symbol string) (domain.Recommendation, error)
}

// RecommendationReader exposes stored recommendations.
type RecommendationReader interface {
	Latest(ctx context.Context, symbol string) (*domain.Recommendation, error)
	History(ctx context.Context, symbol string) ([]domain.Recommendation, error)
	ListLatest(ctx context.Context, limit int) ([]domain.Recommendation, error)
}

// NewsReader exposes scored news articles.
type NewsReader interface {
	News(ctx context.Context, symbol string, limit int) ([]service.ScoredArticle, error)
}
