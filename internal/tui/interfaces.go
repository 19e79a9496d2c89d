package tui

import (
	"context"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/service"
)

// RecommendationQuerier provides stored recommendations to the TUI.
type RecommendationQuerier interface {
	ListLatest(ctx context.Context, limit int) ([]domain.Recommendation, error)
	History(ctx context.Context, symbol string) ([]domain.Recommendation, error)
	Symbols(ctx context.Context) ([]string, error)
}

// Analyzer runs a fresh analysis from the TUI.
type Analyzer interface {
	Analyze(ctx context.Context, symbol string) (domain.Recommendation, error)
}

// NewsQuerier provides scored news to the TUI.
type NewsQuerier interface {
	News(ctx context.Context, symbol string, limit int) ([]service.ScoredArticle, error)
}

// Services bundles all service dependencies injected into the TUI.
type Services struct {
	Recommendations RecommendationQuerier
	Analyzer        Analyzer
	News            NewsQuerier
	Username        string
}
