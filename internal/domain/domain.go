package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrMissingSymbol = errors.New("symbol is required")
	ErrNoPriceData   = errors.New("no stock data found")
	ErrNoNewsData    = errors.New("no news data found")
)

// NormalizeSymbol canonicalizes a ticker to upper case.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

type PriceBar struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   *float64  `json:"open,omitempty"`
	High   *float64  `json:"high,omitempty"`
	Low    *float64  `json:"low,omitempty"`
	Close  *float64  `json:"close,omitempty"`
	Volume int64     `json:"volume"`
}

type NewsArticle struct {
	ID             int64     `json:"id"`
	Symbol         string    `json:"symbol"`
	Title          string    `json:"title"`
	FullContent    string    `json:"full_content,omitempty"`
	PublishedAt    time.Time `json:"published_at"`
	SentimentScore float64   `json:"sentiment_score"`
}

// MaxArticleContent bounds the article text kept in storage and sent for scoring.
const MaxArticleContent = 5000

type TrendSummary struct {
	Symbol        string
	MovingAverage *float64
	OverallTrend  float64
	LastClose     float64
	LastDate      time.Time
	Bars          int
}

type Action string

const (
	ActionBuy  Action = "Buy"
	ActionHold Action = "Hold"
	ActionSell Action = "Sell"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionBuy, ActionHold, ActionSell:
		return true
	}
	return false
}

type Recommendation struct {
	ID            int64     `json:"id,omitempty"`
	Symbol        string    `json:"symbol"`
	Score         float64   `json:"recommendation_score"`
	Action        Action    `json:"final_recommendation"`
	Reasoning     string    `json:"reasoning"`
	CreatedAt     time.Time `json:"created_at"`
	ClosePrice    float64   `json:"close_price"`
	MovingAverage *float64  `json:"moving_average,omitempty"`
	Date          time.Time `json:"date"`
}

// RecommendationRetention is the number of rows kept per symbol.
const RecommendationRetention = 5

type SentimentCategory string

const (
	SentimentVeryPositive SentimentCategory = "Very Positive"
	SentimentPositive     SentimentCategory = "Positive"
	SentimentNeutral      SentimentCategory = "Neutral"
	SentimentNegative     SentimentCategory = "Negative"
	SentimentVeryNegative SentimentCategory = "Very Negative"
)

func CategorizeSentiment(score float64) SentimentCategory {
	switch {
	case score >= 0.75:
		return SentimentVeryPositive
	case score >= 0.5:
		return SentimentPositive
	case score > -0.5:
		return SentimentNeutral
	case score > -0.75:
		return SentimentNegative
	default:
		return SentimentVeryNegative
	}
}

// RecommendationChange records a symbol whose action flipped on re-analysis.
type RecommendationChange struct {
	Previous Action
	Current  Recommendation
}
