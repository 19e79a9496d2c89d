package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stock-advisor/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

const recommendationColumns = `id, symbol, recommendation_score, final_recommendation, reasoning,
	created_at, close_price, moving_average, date`

type RecommendationRepository struct {
	pool   PgxPool
	tracer trace.Tracer
	keep   int
}

func NewRecommendationRepository(pool PgxPool, tracer trace.Tracer) *RecommendationRepository {
	return &RecommendationRepository{pool: pool, tracer: tracer, keep: domain.RecommendationRetention}
}

// Save evicts the oldest rows for the symbol so that at most keep-1 remain,
// then writes rec, all in one transaction. A failure rolls everything back.
// Writers for the same symbol are serialized on a transaction-scoped
// advisory lock; row locks alone do not stop two inserts racing past the
// eviction.
func (r *RecommendationRepository) Save(ctx context.Context, rec domain.Recommendation) (domain.Recommendation, error) {
	_, span := r.tracer.Start(ctx, "recommendation-repo.save")
	defer span.End()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return rec, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, symbolLockKey(rec.Symbol)); err != nil {
		return rec, fmt.Errorf("lock symbol: %w", err)
	}
	existing, err := r.lockExisting(ctx, tx, rec.Symbol)
	if err != nil {
		return rec, fmt.Errorf("select existing: %w", err)
	}
	if evict := evictionCandidates(existing, r.keep-1); len(evict) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM recommendations WHERE id = ANY($1)`, evict); err != nil {
			return rec, fmt.Errorf("evict: %w", err)
		}
	}

	var date any
	if !rec.Date.IsZero() {
		date = rec.Date
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO recommendations
		     (symbol, recommendation_score, final_recommendation, reasoning, created_at, close_price, moving_average, date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (symbol, created_at) DO UPDATE SET
		     recommendation_score = EXCLUDED.recommendation_score,
		     final_recommendation = EXCLUDED.final_recommendation,
		     reasoning = EXCLUDED.reasoning,
		     close_price = EXCLUDED.close_price,
		     moving_average = EXCLUDED.moving_average,
		     date = EXCLUDED.date
		 RETURNING id`,
		rec.Symbol, rec.Score, string(rec.Action), rec.Reasoning, rec.CreatedAt, rec.ClosePrice, rec.MovingAverage, date,
	).Scan(&rec.ID)
	if err != nil {
		return rec, fmt.Errorf("insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return rec, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

func (r *RecommendationRepository) lockExisting(ctx context.Context, tx pgx.Tx, symbol string) ([]int64, error) {
	rows, err := tx.Query(ctx,
		`SELECT id FROM recommendations
		 WHERE symbol = $1
		 ORDER BY created_at ASC, id ASC
		 FOR UPDATE`,
		symbol,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func symbolLockKey(symbol string) string {
	return "recommendations:" + symbol
}

// evictionCandidates returns the leading ids (oldest first) that must go so
// that only keep remain.
func evictionCandidates(oldestFirst []int64, keep int) []int64 {
	if keep < 0 {
		keep = 0
	}
	n := len(oldestFirst) - keep
	if n <= 0 {
		return nil
	}
	return oldestFirst[:n]
}

// Latest returns the newest recommendation for symbol, or nil when none exists.
func (r *RecommendationRepository) Latest(ctx context.Context, symbol string) (*domain.Recommendation, error) {
	_, span := r.tracer.Start(ctx, "recommendation-repo.latest")
	defer span.End()

	row := r.pool.QueryRow(ctx,
		`SELECT `+recommendationColumns+`
		 FROM recommendations
		 WHERE symbol = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		symbol,
	)
	rec, err := scanRecommendation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// History returns the retained rows for symbol, newest first.
func (r *RecommendationRepository) History(ctx context.Context, symbol string) ([]domain.Recommendation, error) {
	_, span := r.tracer.Start(ctx, "recommendation-repo.history")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT `+recommendationColumns+`
		 FROM recommendations
		 WHERE symbol = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		symbol, r.keep,
	)
	if err != nil {
		return nil, err
	}
	return collectRecommendations(rows, r.keep)
}

// ListLatest returns the newest recommendation of each symbol, most recent first.
func (r *RecommendationRepository) ListLatest(ctx context.Context, limit int) ([]domain.Recommendation, error) {
	_, span := r.tracer.Start(ctx, "recommendation-repo.list-latest")
	defer span.End()

	if limit <= 0 {
		limit = 5
	}
	if limit > 50 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+recommendationColumns+`
		 FROM (
		     SELECT DISTINCT ON (symbol) `+recommendationColumns+`
		     FROM recommendations
		     ORDER BY symbol, created_at DESC
		 ) latest
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	return collectRecommendations(rows, limit)
}

// Symbols lists every symbol with at least one stored recommendation.
func (r *RecommendationRepository) Symbols(ctx context.Context) ([]string, error) {
	_, span := r.tracer.Start(ctx, "recommendation-repo.symbols")
	defer span.End()

	rows, err := r.pool.Query(ctx, `SELECT DISTINCT symbol FROM recommendations ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

func collectRecommendations(rows pgx.Rows, capacity int) ([]domain.Recommendation, error) {
	defer rows.Close()

	out := make([]domain.Recommendation, 0, capacity)
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecommendation(row pgx.Row) (domain.Recommendation, error) {
	var (
		rec    domain.Recommendation
		action string
		date   *time.Time
	)
	if err := row.Scan(
		&rec.ID,
		&rec.Symbol,
		&rec.Score,
		&action,
		&rec.Reasoning,
		&rec.CreatedAt,
		&rec.ClosePrice,
		&rec.MovingAverage,
		&date,
	); err != nil {
		return domain.Recommendation{}, err
	}
	rec.Action = domain.Action(action)
	rec.CreatedAt = rec.CreatedAt.UTC()
	if date != nil {
		rec.Date = *date
	}
	return rec, nil
}
