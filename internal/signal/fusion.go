package signal

import (
	"fmt"
	"math"
	"strings"

	"stock-advisor/internal/domain"
)

type Weights struct {
	Sentiment float64
	Trend     float64
}

type Fusion struct {
	Weights   Weights
	Score     float64
	Action    domain.Action
	Reasoning string
}

// SelectWeights escalates sentiment first, then trend.
func SelectWeights(sentiment, trend float64) Weights {
	switch {
	case math.Abs(sentiment) > dominanceThreshold:
		return Weights{Sentiment: dominantWeight, Trend: recessiveWeight}
	case math.Abs(trend) > dominanceThreshold:
		return Weights{Sentiment: recessiveWeight, Trend: dominantWeight}
	default:
		return Weights{Sentiment: defaultSentimentWeight, Trend: defaultTrendWeight}
	}
}

// Classify maps a fused score to an action. Exactly ±0.2 is Hold.
func Classify(score float64) domain.Action {
	switch {
	case score > buyThreshold:
		return domain.ActionBuy
	case score < sellThreshold:
		return domain.ActionSell
	default:
		return domain.ActionHold
	}
}

func Fuse(sentiment, trend float64) Fusion {
	w := SelectWeights(sentiment, trend)
	score := w.Sentiment*sentiment + w.Trend*trend
	action := Classify(score)
	return Fusion{
		Weights:   w,
		Score:     score,
		Action:    action,
		Reasoning: reasoning(sentiment, trend, action),
	}
}

func reasoning(sentiment, trend float64, action domain.Action) string {
	return fmt.Sprintf(
		"Based on the recent news sentiment (%.2f) and stock trend (%.2f), the recommendation is '%s'. "+
			"The overall market trend combined with the sentiment suggests that investors should %s this stock.",
		sentiment, trend, action, strings.ToLower(string(action)),
	)
}
