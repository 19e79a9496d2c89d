package signal

import (
	"time"

	"stock-advisor/internal/domain"
)

const (
	movingAveragePeriod = 7

	defaultSentimentWeight = 0.5
	defaultTrendWeight     = 0.5
	dominanceThreshold     = 0.5
	dominantWeight         = 0.7
	recessiveWeight        = 0.3

	buyThreshold  = 0.2
	sellThreshold = -0.2
)

// Engine turns price history and aggregate news sentiment into a recommendation.
// It holds no state besides the clock.
type Engine struct {
	now func() time.Time
}

func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// Recommend fuses the trend summary with the aggregate sentiment and stamps the
// result with the last bar's close and date.
func (e *Engine) Recommend(summary domain.TrendSummary, sentiment float64) domain.Recommendation {
	f := Fuse(sentiment, summary.OverallTrend)
	return domain.Recommendation{
		Symbol:        summary.Symbol,
		Score:         f.Score,
		Action:        f.Action,
		Reasoning:     f.Reasoning,
		CreatedAt:     e.now().UTC(),
		ClosePrice:    summary.LastClose,
		MovingAverage: summary.MovingAverage,
		Date:          summary.LastDate,
	}
}
