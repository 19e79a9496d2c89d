package mcp

import (
	"fmt"

	"stock-advisor/internal/domain"
	"stock-advisor/internal/service"
)

const (
	defaultRecommendationLimit = 5
	maxRecommendationLimit     = 50
	defaultNewsLimit           = 10
	maxNewsLimit               = 100
)

type analyzeSymbolInput struct {
	Symbol string `json:"symbol" jsonschema:"stock ticker (e.g. AAPL, MSFT)"`
}

type analyzeSymbolOutput struct {
	Recommendation domain.Recommendation `json:"recommendation"`
	Saved          bool                  `json:"saved"`
}

type recommendationGetInput struct {
	Symbol         string `json:"symbol" jsonschema:"stock ticker (e.g. AAPL, MSFT)"`
	IncludeHistory bool   `json:"include_history,omitempty" jsonschema:"also return the retained recommendation history, newest first"`
}

type recommendationGetOutput struct {
	Symbol         string                  `json:"symbol"`
	Recommendation *domain.Recommendation  `json:"recommendation"`
	History        []domain.Recommendation `json:"history,omitempty"`
}

type recommendationsListInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"number of symbols to return, max 50"`
}

type recommendationsListOutput struct {
	Recommendations []domain.Recommendation `json:"recommendations"`
}

type newsListInput struct {
	Symbol string `json:"symbol" jsonschema:"stock ticker (e.g. AAPL, MSFT)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"number of articles to return, max 100"`
}

type newsListOutput struct {
	Symbol   string                  `json:"symbol"`
	Articles []service.ScoredArticle `json:"articles"`
}

func normalizeSymbol(symbol string) (string, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return "", fmt.Errorf("symbol is required")
	}
	return symbol, nil
}

func normalizeRecommendationLimit(limit int) int {
	if limit <= 0 {
		return defaultRecommendationLimit
	}
	if limit > maxRecommendationLimit {
		return maxRecommendationLimit
	}
	return limit
}

func normalizeNewsLimit(limit int) int {
	if limit <= 0 {
		return defaultNewsLimit
	}
	if limit > maxNewsLimit {
		return maxNewsLimit
	}
	return limit
}
