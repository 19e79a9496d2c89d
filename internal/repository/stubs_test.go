package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubPool struct {
	execSQL   []string
	execTag   pgconn.CommandTag
	execErr   error
	rowsData  [][]any
	queryArgs []any
	row       pgx.Row
	beginTx   pgx.Tx
	beginErr  error
}

func (s *stubPool) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	s.execSQL = append(s.execSQL, sql)
	return s.execTag, s.execErr
}

func (s *stubPool) Query(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
	s.queryArgs = args
	return newStubRows(s.rowsData), nil
}

func (s *stubPool) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	s.queryArgs = args
	if s.row != nil {
		return s.row
	}
	return stubRow{err: pgx.ErrNoRows}
}

func (s *stubPool) Begin(_ context.Context) (pgx.Tx, error) {
	return s.beginTx, s.beginErr
}

type stubRows struct {
	data [][]any
	idx  int
}

func newStubRows(data [][]any) *stubRows {
	dataCopy := make([][]any, len(data))
	for i := range data {
		row := make([]any, len(data[i]))
		copy(row, data[i])
		dataCopy[i] = row
	}
	return &stubRows{data: dataCopy}
}

func (r *stubRows) Close() {}

func (r *stubRows) Err() error { return nil }

func (r *stubRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *stubRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.data) {
		return fmt.Errorf("invalid scan index")
	}
	return assignAll(r.data[r.idx-1], dest)
}

func (r *stubRows) Values() ([]any, error) { return nil, nil }

func (r *stubRows) RawValues() [][]byte { return nil }

func (r *stubRows) Conn() *pgx.Conn { return nil }

type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assignAll(r.values, dest)
}

func assignAll(values []any, dest []any) error {
	if len(values) < len(dest) {
		return fmt.Errorf("expected %d values, got %d", len(dest), len(values))
	}
	for i, d := range dest {
		v := values[i]
		switch ptr := d.(type) {
		case *string:
			*ptr = v.(string)
		case *int64:
			*ptr = v.(int64)
		case *float64:
			*ptr = v.(float64)
		case **float64:
			if v == nil {
				*ptr = nil
			} else {
				f := v.(float64)
				*ptr = &f
			}
		case *time.Time:
			*ptr = v.(time.Time)
		case **time.Time:
			if v == nil {
				*ptr = nil
			} else {
				ts := v.(time.Time)
				*ptr = &ts
			}
		default:
			return fmt.Errorf("unsupported dest type %T", d)
		}
	}
	return nil
}

// execTx records statements and commits; it answers nothing else.
type execTx struct {
	execSQL    []string
	execErr    error
	committed  bool
	rolledBack bool
}

func (s *execTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	s.execSQL = append(s.execSQL, sql)
	if s.execErr != nil {
		return pgconn.CommandTag{}, s.execErr
	}
	return pgconn.NewCommandTag("DELETE 1"), nil
}

func (s *execTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return newStubRows(nil), nil
}

func (s *execTx) QueryRow(context.Context, string, ...any) pgx.Row { return stubRow{} }

func (s *execTx) Commit(context.Context) error {
	s.committed = true
	return nil
}

func (s *execTx) Rollback(context.Context) error {
	if !s.committed {
		s.rolledBack = true
	}
	return nil
}

func (s *execTx) Begin(context.Context) (pgx.Tx, error) { return nil, nil }
func (s *execTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (s *execTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (s *execTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (s *execTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (s *execTx) Conn() *pgx.Conn { return nil }

type storedRecommendation struct {
	id        int64
	symbol    string
	createdAt time.Time
}

// recommendationTable is an in-memory recommendations table that understands
// the statements issued by RecommendationRepository.Save.
type recommendationTable struct {
	rows      []storedRecommendation
	nextID    int64
	insertErr error
}

func (t *recommendationTable) seed(symbol string, n int, start time.Time) {
	for i := 0; i < n; i++ {
		t.nextID++
		t.rows = append(t.rows, storedRecommendation{
			id:        t.nextID,
			symbol:    symbol,
			createdAt: start.Add(time.Duration(i) * time.Hour),
		})
	}
}

func (t *recommendationTable) count(symbol string) int {
	n := 0
	for _, r := range t.rows {
		if r.symbol == symbol {
			n++
		}
	}
	return n
}

func (t *recommendationTable) has(id int64) bool {
	for _, r := range t.rows {
		if r.id == id {
			return true
		}
	}
	return false
}

func (t *recommendationTable) begin() *recommendationTx {
	pending := make([]storedRecommendation, len(t.rows))
	copy(pending, t.rows)
	return &recommendationTx{table: t, pending: pending, nextID: t.nextID}
}

type recommendationTx struct {
	table      *recommendationTable
	pending    []storedRecommendation
	nextID     int64
	statements []string
	lockErr    error
	committed  bool
	rolledBack bool
}

func (tx *recommendationTx) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	tx.statements = append(tx.statements, sql)
	if !strings.Contains(sql, "SELECT id FROM recommendations") {
		return nil, fmt.Errorf("unexpected query: %s", sql)
	}
	symbol := args[0].(string)
	var matched []storedRecommendation
	for _, r := range tx.pending {
		if r.symbol == symbol {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].createdAt.Before(matched[j].createdAt)
	})
	data := make([][]any, 0, len(matched))
	for _, r := range matched {
		data = append(data, []any{r.id})
	}
	return newStubRows(data), nil
}

func (tx *recommendationTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tx.statements = append(tx.statements, sql)
	if strings.Contains(sql, "pg_advisory_xact_lock") {
		if tx.lockErr != nil {
			return pgconn.CommandTag{}, tx.lockErr
		}
		return pgconn.NewCommandTag("SELECT 1"), nil
	}
	if !strings.Contains(sql, "DELETE FROM recommendations") {
		return pgconn.CommandTag{}, fmt.Errorf("unexpected exec: %s", sql)
	}
	evict := map[int64]bool{}
	for _, id := range args[0].([]int64) {
		evict[id] = true
	}
	kept := tx.pending[:0]
	for _, r := range tx.pending {
		if !evict[r.id] {
			kept = append(kept, r)
		}
	}
	tx.pending = kept
	return pgconn.NewCommandTag(fmt.Sprintf("DELETE %d", len(evict))), nil
}

func (tx *recommendationTx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	tx.statements = append(tx.statements, sql)
	if !strings.Contains(sql, "INSERT INTO recommendations") {
		return stubRow{err: fmt.Errorf("unexpected query row: %s", sql)}
	}
	if tx.table.insertErr != nil {
		return stubRow{err: tx.table.insertErr}
	}
	tx.nextID++
	tx.pending = append(tx.pending, storedRecommendation{
		id:        tx.nextID,
		symbol:    args[0].(string),
		createdAt: args[4].(time.Time),
	})
	return stubRow{values: []any{tx.nextID}}
}

func (tx *recommendationTx) Commit(context.Context) error {
	tx.committed = true
	tx.table.rows = tx.pending
	tx.table.nextID = tx.nextID
	return nil
}

func (tx *recommendationTx) Rollback(context.Context) error {
	if !tx.committed {
		tx.rolledBack = true
	}
	return nil
}

func (tx *recommendationTx) Begin(context.Context) (pgx.Tx, error) { return nil, nil }
func (tx *recommendationTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (tx *recommendationTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (tx *recommendationTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (tx *recommendationTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (tx *recommendationTx) Conn() *pgx.Conn { return nil }
