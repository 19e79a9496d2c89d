package job

import (
	"context"
	"time"

	"stock-advisor/internal/domain"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/trace"
)

type RecommendationSource interface {
	Symbols(ctx context.Context) ([]string, error)
	Latest(ctx context.Context, symbol string) (*domain.Recommendation, error)
}

type ChangeNotifier interface {
	NotifyChanges(ctx context.Context, changes []domain.RecommendationChange) error
}

type SymbolAnalyzer interface {
	Analyze(ctx context.Context, symbol string) (domain.Recommendation, error)
}

// RefreshPoller periodically re-analyzes every symbol that already has a
// recommendation and reports symbols whose action flipped.
type RefreshPoller struct {
	tracer   trace.Tracer
	source   RecommendationSource
	analyzer SymbolAnalyzer
	notifier ChangeNotifier
	interval time.Duration
}

func NewRefreshPoller(
	tracer trace.Tracer,
	source RecommendationSource,
	analyzer SymbolAnalyzer,
	notifier ChangeNotifier,
	interval time.Duration,
) *RefreshPoller {
	return &RefreshPoller{
		tracer:   tracer,
		source:   source,
		analyzer: analyzer,
		notifier: notifier,
		interval: interval,
	}
}

// Start blocks until ctx is cancelled. A non-positive interval disables polling.
func (p *RefreshPoller) Start(ctx context.Context) {
	if p.source == nil || p.analyzer == nil || p.interval <= 0 {
		log.Info("Refresh poller disabled")
		<-ctx.Done()
		return
	}

	log.Info("Refresh poller starting", "interval", p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Refresh poller stopped")
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

// refresh analyzes symbols one after another; a failing symbol does not stop
// the rest.
func (p *RefreshPoller) refresh(ctx context.Context) int {
	ctx, span := p.tracer.Start(ctx, "refresh-poller.refresh")
	defer span.End()

	symbols, err := p.source.Symbols(ctx)
	if err != nil {
		log.Error("refresh: list symbols", "err", err)
		return 0
	}

	refreshed := 0
	var changes []domain.RecommendationChange
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			break
		}
		prev, err := p.source.Latest(ctx, symbol)
		if err != nil {
			log.Warn("refresh: read previous recommendation", "symbol", symbol, "err", err)
		}
		rec, err := p.analyzer.Analyze(ctx, symbol)
		if err != nil {
			log.Warn("refresh: analysis failed", "symbol", symbol, "err", err)
			continue
		}
		refreshed++
		if prev != nil && prev.Action != rec.Action {
			changes = append(changes, domain.RecommendationChange{Previous: prev.Action, Current: rec})
		}
	}

	if len(changes) > 0 && p.notifier != nil {
		if err := p.notifier.NotifyChanges(ctx, changes); err != nil {
			log.Warn("refresh: notify changes", "err", err)
		}
	}
	return refreshed
}
