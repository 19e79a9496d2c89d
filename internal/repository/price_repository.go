package repository

import (
	"context"
	"errors"
	"time"

	"stock-advisor/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

type PriceRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewPriceRepository(pool PgxPool, tracer trace.Tracer) *PriceRepository {
	return &PriceRepository{pool: pool, tracer: tracer}
}

// ListPriceBars returns bars newer than since, oldest first. An empty result is
// not an error.
func (r *PriceRepository) ListPriceBars(ctx context.Context, symbol string, since time.Time) ([]domain.PriceBar, error) {
	_, span := r.tracer.Start(ctx, "price-repo.list-price-bars")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT symbol, date, open, high, low, close, volume
		 FROM stock_data
		 WHERE LOWER(symbol) = LOWER($1) AND date > $2
		 ORDER BY date ASC`,
		symbol, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []domain.PriceBar
	for rows.Next() {
		var b domain.PriceBar
		if err := rows.Scan(&b.Symbol, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// LatestClose returns the most recent non-null close, or nil when the symbol
// has no prices.
func (r *PriceRepository) LatestClose(ctx context.Context, symbol string) (*domain.PriceBar, error) {
	_, span := r.tracer.Start(ctx, "price-repo.latest-close")
	defer span.End()

	var b domain.PriceBar
	err := r.pool.QueryRow(ctx,
		`SELECT symbol, date, close
		 FROM stock_data
		 WHERE LOWER(symbol) = LOWER($1) AND close IS NOT NULL
		 ORDER BY date DESC
		 LIMIT 1`,
		symbol,
	).Scan(&b.Symbol, &b.Date, &b.Close)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ClearMarketData removes every recommendation, price bar and news article in
// one transaction.
func (r *PriceRepository) ClearMarketData(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "price-repo.clear-market-data")
	defer span.End()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM recommendations`); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM stock_data`); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM news_sentiment`); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
