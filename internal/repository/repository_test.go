package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func TestRunMigrationsExecutesSchema(t *testing.T) {
	pool := &stubPool{}
	if err := RunMigrations(context.Background(), pool); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pool.execSQL) != len(schema) {
		t.Fatalf("expected %d statements, got %d", len(schema), len(pool.execSQL))
	}
}

func TestRunMigrationsStopsOnError(t *testing.T) {
	pool := &stubPool{execErr: errors.New("permission denied")}
	if err := RunMigrations(context.Background(), pool); err == nil {
		t.Fatal("expected migration error")
	}
	if len(pool.execSQL) != 1 {
		t.Fatalf("expected migrations to stop at first failure, ran %d", len(pool.execSQL))
	}
}

func TestListPriceBarsScansRows(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	pool := &stubPool{rowsData: [][]any{
		{"AAPL", day, 10.0, 11.0, 9.5, 10.5, int64(1000)},
		{"AAPL", day.AddDate(0, 0, 1), nil, nil, nil, nil, int64(0)},
	}}
	repo := NewPriceRepository(pool, testTracer())

	since := day.AddDate(-1, 0, 0)
	bars, err := repo.ListPriceBars(context.Background(), "aapl", since)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Close == nil || *bars[0].Close != 10.5 || bars[0].Volume != 1000 {
		t.Fatalf("unexpected first bar: %+v", bars[0])
	}
	if bars[1].Close != nil {
		t.Fatalf("expected missing close to scan as nil, got %v", *bars[1].Close)
	}
	if pool.queryArgs[0] != "aapl" || pool.queryArgs[1] != since {
		t.Fatalf("unexpected query args: %+v", pool.queryArgs)
	}
}

func TestLatestCloseNoRows(t *testing.T) {
	repo := NewPriceRepository(&stubPool{}, testTracer())
	bar, err := repo.LatestClose(context.Background(), "AAPL")
	if err != nil || bar != nil {
		t.Fatalf("expected nil bar without rows, got %+v, %v", bar, err)
	}
}

func TestLatestCloseReturnsBar(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	pool := &stubPool{row: stubRow{values: []any{"AAPL", day, 187.2}}}
	repo := NewPriceRepository(pool, testTracer())

	bar, err := repo.LatestClose(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bar == nil || bar.Close == nil || *bar.Close != 187.2 || !bar.Date.Equal(day) {
		t.Fatalf("unexpected bar: %+v", bar)
	}
}

func TestClearMarketDataCommits(t *testing.T) {
	tx := &execTx{}
	repo := NewPriceRepository(&stubPool{beginTx: tx}, testTracer())

	if err := repo.ClearMarketData(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tx.execSQL) != 3 || !tx.committed {
		t.Fatalf("expected three deletes and a commit, got %+v", tx)
	}
	for i, table := range []string{"recommendations", "stock_data", "news_sentiment"} {
		if !strings.Contains(tx.execSQL[i], "DELETE FROM "+table) {
			t.Fatalf("statement %d: expected delete from %s, got %q", i, table, tx.execSQL[i])
		}
	}
}

func TestClearMarketDataRollsBack(t *testing.T) {
	tx := &execTx{execErr: errors.New("lock timeout")}
	repo := NewPriceRepository(&stubPool{beginTx: tx}, testTracer())

	if err := repo.ClearMarketData(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if tx.committed || !tx.rolledBack {
		t.Fatalf("expected rollback without commit, got %+v", tx)
	}
}

func TestListArticlesScansRows(t *testing.T) {
	published := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	pool := &stubPool{rowsData: [][]any{
		{int64(7), "TSLA", "Deliveries rise", "body", published, 0.0},
	}}
	repo := NewNewsRepository(pool, testTracer())

	articles, err := repo.ListArticles(context.Background(), "tsla")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 1 || articles[0].ID != 7 || articles[0].FullContent != "body" {
		t.Fatalf("unexpected articles: %+v", articles)
	}
}

func TestUpdateSentimentMissingArticle(t *testing.T) {
	pool := &stubPool{execTag: pgconn.NewCommandTag("UPDATE 0")}
	repo := NewNewsRepository(pool, testTracer())

	if err := repo.UpdateSentiment(context.Background(), 42, 0.3); err == nil {
		t.Fatal("expected error for missing article")
	}
}

func TestUpdateSentiment(t *testing.T) {
	pool := &stubPool{execTag: pgconn.NewCommandTag("UPDATE 1")}
	repo := NewNewsRepository(pool, testTracer())

	if err := repo.UpdateSentiment(context.Background(), 42, 0.3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pool.execSQL) != 1 {
		t.Fatalf("expected a single update, got %d", len(pool.execSQL))
	}
}

func TestListRecentClampsLimit(t *testing.T) {
	pool := &stubPool{}
	repo := NewNewsRepository(pool, testTracer())

	if _, err := repo.ListRecent(context.Background(), "MSFT", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.queryArgs[1] != 10 {
		t.Fatalf("expected default limit 10, got %v", pool.queryArgs[1])
	}
	if _, err := repo.ListRecent(context.Background(), "MSFT", 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.queryArgs[1] != 100 {
		t.Fatalf("expected limit clamped to 100, got %v", pool.queryArgs[1])
	}
}
