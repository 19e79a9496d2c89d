package signal

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"stock-advisor/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

func barsFromCloses(symbol string, closes ...float64) []domain.PriceBar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.PriceBar, 0, len(closes))
	for i, c := range closes {
		bars = append(bars, domain.PriceBar{
			Symbol: symbol,
			Date:   base.AddDate(0, 0, i),
			Close:  floatPtr(c),
		})
	}
	return bars
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTrendEightBarSeries(t *testing.T) {
	engine := NewEngine(nil)
	closes := []float64{100, 102, 101, 105, 107, 103, 110, 108}

	summary, err := engine.Trend("aapl", barsFromCloses("AAPL", closes...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Symbol != "AAPL" {
		t.Fatalf("expected upper-cased symbol, got %s", summary.Symbol)
	}

	series := MovingAverages(closes, 7)
	for i := 0; i < 6; i++ {
		if !math.IsNaN(series[i]) {
			t.Fatalf("expected undefined moving average at %d, got %f", i, series[i])
		}
	}
	if !almostEqual(series[6], 728.0/7) {
		t.Fatalf("expected MA7 at 7th bar %.6f, got %.6f", 728.0/7, series[6])
	}
	if summary.MovingAverage == nil || !almostEqual(*summary.MovingAverage, 736.0/7) {
		t.Fatalf("expected latest MA7 %.6f, got %v", 736.0/7, summary.MovingAverage)
	}

	var sum float64
	for i := 1; i < len(closes); i++ {
		sum += (closes[i] - closes[i-1]) / closes[i-1] * 100
	}
	if !almostEqual(summary.OverallTrend, sum/7) {
		t.Fatalf("expected overall trend %.6f, got %.6f", sum/7, summary.OverallTrend)
	}
	if summary.LastClose != 108 || summary.Bars != 8 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestTrendDropsMissingCloses(t *testing.T) {
	engine := NewEngine(nil)
	bars := barsFromCloses("MSFT", 10, 11)
	bars = append(bars, domain.PriceBar{Symbol: "MSFT", Date: bars[1].Date.AddDate(0, 0, 1)})

	summary, err := engine.Trend("MSFT", bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Bars != 2 || summary.LastClose != 11 {
		t.Fatalf("expected nil close to be dropped, got %+v", summary)
	}
	if summary.MovingAverage != nil {
		t.Fatalf("expected undefined moving average below 7 bars, got %v", *summary.MovingAverage)
	}
	if !almostEqual(summary.OverallTrend, 10) {
		t.Fatalf("expected 10%% trend, got %f", summary.OverallTrend)
	}
}

func TestTrendNoData(t *testing.T) {
	engine := NewEngine(nil)
	_, err := engine.Trend("TSLA", []domain.PriceBar{{Symbol: "TSLA"}})
	if !errors.Is(err, domain.ErrNoPriceData) {
		t.Fatalf("expected ErrNoPriceData, got %v", err)
	}
}

func TestOverallTrendSingleBarIsZero(t *testing.T) {
	if got := OverallTrend([]float64{42}); got != 0 {
		t.Fatalf("expected 0 trend for a single bar, got %f", got)
	}
}

func TestSelectWeights(t *testing.T) {
	cases := []struct {
		name      string
		sentiment float64
		trend     float64
		want      Weights
	}{
		{"sentiment dominance", 0.6, 0.1, Weights{0.7, 0.3}},
		{"negative sentiment dominance", -0.6, 3, Weights{0.7, 0.3}},
		{"trend dominance", 0.1, 0.6, Weights{0.3, 0.7}},
		{"default", 0.5, -0.5, Weights{0.5, 0.5}},
	}
	for _, tc := range cases {
		if got := SelectWeights(tc.sentiment, tc.trend); got != tc.want {
			t.Errorf("%s: expected %+v, got %+v", tc.name, tc.want, got)
		}
	}
}

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  domain.Action
	}{
		{0.2, domain.ActionHold},
		{0.2000001, domain.ActionBuy},
		{-0.2, domain.ActionHold},
		{-0.2000001, domain.ActionSell},
		{0, domain.ActionHold},
	}
	for _, tc := range cases {
		if got := Classify(tc.score); got != tc.want {
			t.Errorf("score %v: expected %s, got %s", tc.score, tc.want, got)
		}
	}
}

func TestFuseReasoningMentionsInputs(t *testing.T) {
	f := Fuse(0.6, 0.1)
	if !almostEqual(f.Score, 0.7*0.6+0.3*0.1) {
		t.Fatalf("unexpected score %f", f.Score)
	}
	if f.Action != domain.ActionBuy {
		t.Fatalf("expected Buy, got %s", f.Action)
	}
	for _, want := range []string{"0.60", "0.10", "'Buy'", "should buy"} {
		if !strings.Contains(f.Reasoning, want) {
			t.Fatalf("expected reasoning to contain %q: %s", want, f.Reasoning)
		}
	}
}

func TestRecommendStampsSummary(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := NewEngine(func() time.Time { return now })
	ma := 101.5
	summary := domain.TrendSummary{
		Symbol:        "NVDA",
		OverallTrend:  -1.2,
		MovingAverage: &ma,
		LastClose:     99,
		LastDate:      now.AddDate(0, 0, -1),
	}

	rec := engine.Recommend(summary, -0.1)
	if rec.Symbol != "NVDA" || rec.Action != domain.ActionSell {
		t.Fatalf("unexpected recommendation: %+v", rec)
	}
	if !rec.CreatedAt.Equal(now) || rec.ClosePrice != 99 || rec.MovingAverage == nil || *rec.MovingAverage != ma {
		t.Fatalf("expected summary fields on recommendation: %+v", rec)
	}
}
