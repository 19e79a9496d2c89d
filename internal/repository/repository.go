package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS stock_data (
		symbol  TEXT NOT NULL,
		date    DATE NOT NULL,
		open    DOUBLE PRECISION,
		high    DOUBLE PRECISION,
		low     DOUBLE PRECISION,
		close   DOUBLE PRECISION,
		volume  BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (symbol, date)
	)`,
	`CREATE TABLE IF NOT EXISTS news_sentiment (
		id              BIGSERIAL PRIMARY KEY,
		symbol          TEXT NOT NULL,
		title           TEXT NOT NULL,
		full_content    TEXT NOT NULL DEFAULT '',
		published_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		sentiment_score DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_news_sentiment_symbol ON news_sentiment (LOWER(symbol), published_at DESC)`,
	`CREATE TABLE IF NOT EXISTS recommendations (
		id                   BIGSERIAL PRIMARY KEY,
		symbol               TEXT NOT NULL,
		recommendation_score DOUBLE PRECISION NOT NULL,
		final_recommendation TEXT NOT NULL,
		reasoning            TEXT NOT NULL,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		close_price          DOUBLE PRECISION NOT NULL DEFAULT 0,
		moving_average       DOUBLE PRECISION,
		date                 DATE,
		UNIQUE (symbol, created_at)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recommendations_symbol_created ON recommendations (symbol, created_at DESC)`,
}

// RunMigrations creates the tables read and written by the analysis pipeline.
func RunMigrations(ctx context.Context, pool PgxPool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
