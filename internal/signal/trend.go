package signal

import (
	"math"
	"sort"

	"stock-advisor/internal/domain"

	"gonum.org/v1/gonum/stat"
)

// Trend summarizes an ascending price history. Bars without a close are
// dropped; an empty remainder yields domain.ErrNoPriceData.
func (e *Engine) Trend(symbol string, bars []domain.PriceBar) (domain.TrendSummary, error) {
	normalized := normalizeBars(bars)
	if len(normalized) == 0 {
		return domain.TrendSummary{}, domain.ErrNoPriceData
	}

	closes := extractCloses(normalized)
	last := normalized[len(normalized)-1]
	summary := domain.TrendSummary{
		Symbol:       domain.NormalizeSymbol(symbol),
		OverallTrend: OverallTrend(closes),
		LastClose:    closes[len(closes)-1],
		LastDate:     last.Date,
		Bars:         len(closes),
	}

	series := MovingAverages(closes, movingAveragePeriod)
	if ma := series[len(series)-1]; !math.IsNaN(ma) {
		summary.MovingAverage = &ma
	}
	return summary, nil
}

// MovingAverages returns the trailing simple moving average for every point.
// Points before the first full window are NaN.
func MovingAverages(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		if period <= 0 || i+1 < period {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.Mean(closes[i+1-period:i+1], nil)
	}
	return out
}

// PercentChanges returns (c[i]-c[i-1])/c[i-1]*100 for i >= 1.
func PercentChanges(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev == 0 {
			continue
		}
		out = append(out, (closes[i]-prev)/prev*100)
	}
	return out
}

// OverallTrend is the mean period-over-period percent change, 0 when undefined.
func OverallTrend(closes []float64) float64 {
	changes := PercentChanges(closes)
	if len(changes) == 0 {
		return 0
	}
	return stat.Mean(changes, nil)
}

func normalizeBars(in []domain.PriceBar) []domain.PriceBar {
	out := make([]domain.PriceBar, 0, len(in))
	for _, b := range in {
		if b.Close == nil || math.IsNaN(*b.Close) {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func extractCloses(bars []domain.PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = *b.Close
	}
	return closes
}
