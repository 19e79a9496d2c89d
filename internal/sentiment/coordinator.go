package sentiment

import (
	"context"
	"sync"

	"stock-advisor/internal/domain"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the width of the scoring pool.
const DefaultWorkers = 5

// ArticleScorer rates a single article.
type ArticleScorer interface {
	Score(ctx context.Context, title, content string) float64
}

// ScoreWriter persists one article's score by id.
type ScoreWriter interface {
	UpdateSentiment(ctx context.Context, id int64, score float64) error
}

type Coordinator struct {
	scorer  ArticleScorer
	writer  ScoreWriter
	workers int
	tracer  trace.Tracer
}

func NewCoordinator(tracer trace.Tracer, scorer ArticleScorer, writer ScoreWriter, workers int) *Coordinator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Coordinator{scorer: scorer, writer: writer, workers: workers, tracer: tracer}
}

type BatchResult struct {
	Articles  []domain.NewsArticle
	Aggregate float64
	// PersistFailures counts articles whose score could not be written back.
	PersistFailures int
}

// ScoreAll scores every article on a bounded pool. Each score is written back
// as soon as it is known; write failures are logged and skipped. The aggregate
// is the mean of all scores, 0 for an empty batch.
func (c *Coordinator) ScoreAll(ctx context.Context, articles []domain.NewsArticle) BatchResult {
	ctx, span := c.tracer.Start(ctx, "sentiment-coordinator.score-all")
	defer span.End()
	span.SetAttributes(attribute.Int("articles", len(articles)))

	out := make([]domain.NewsArticle, len(articles))
	copy(out, articles)
	if len(out) == 0 {
		return BatchResult{Articles: out}
	}

	var (
		mu       sync.Mutex
		failures int
	)

	g := new(errgroup.Group)
	g.SetLimit(c.workers)
	for i := range out {
		g.Go(func() error {
			a := out[i]
			score := c.scorer.Score(ctx, a.Title, a.FullContent)
			out[i].SentimentScore = score

			if c.writer == nil {
				return nil
			}
			if err := c.writer.UpdateSentiment(ctx, a.ID, score); err != nil {
				log.Error("failed to persist sentiment score", "article_id", a.ID, "err", err)
				mu.Lock()
				failures++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	var sum float64
	for _, a := range out {
		sum += a.SentimentScore
	}
	aggregate := sum / float64(len(out))
	span.SetAttributes(attribute.Float64("sentiment.aggregate", aggregate))

	return BatchResult{Articles: out, Aggregate: aggregate, PersistFailures: failures}
}
