package repository

import (
	"context"
	"fmt"

	"stock-advisor/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type NewsRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewNewsRepository(pool PgxPool, tracer trace.Tracer) *NewsRepository {
	return &NewsRepository{pool: pool, tracer: tracer}
}

func (r *NewsRepository) ListArticles(ctx context.Context, symbol string) ([]domain.NewsArticle, error) {
	_, span := r.tracer.Start(ctx, "news-repo.list-articles")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, symbol, title, full_content, published_at, sentiment_score
		 FROM news_sentiment
		 WHERE LOWER(symbol) = LOWER($1)
		 ORDER BY id ASC`,
		symbol,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []domain.NewsArticle
	for rows.Next() {
		var a domain.NewsArticle
		if err := rows.Scan(&a.ID, &a.Symbol, &a.Title, &a.FullContent, &a.PublishedAt, &a.SentimentScore); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// UpdateSentiment writes a single article's score. Each call is its own
// statement so that one failure cannot affect another article.
func (r *NewsRepository) UpdateSentiment(ctx context.Context, id int64, score float64) error {
	_, span := r.tracer.Start(ctx, "news-repo.update-sentiment")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `UPDATE news_sentiment SET sentiment_score = $1 WHERE id = $2`, score, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("news article %d not found", id)
	}
	return nil
}

// ListRecent returns the newest articles for symbol without their bodies.
func (r *NewsRepository) ListRecent(ctx context.Context, symbol string, limit int) ([]domain.NewsArticle, error) {
	_, span := r.tracer.Start(ctx, "news-repo.list-recent")
	defer span.End()

	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, symbol, title, published_at, sentiment_score
		 FROM news_sentiment
		 WHERE LOWER(symbol) = LOWER($1)
		 ORDER BY published_at DESC
		 LIMIT $2`,
		symbol, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := make([]domain.NewsArticle, 0, limit)
	for rows.Next() {
		var a domain.NewsArticle
		if err := rows.Scan(&a.ID, &a.Symbol, &a.Title, &a.PublishedAt, &a.SentimentScore); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}
