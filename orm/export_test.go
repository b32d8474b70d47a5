package orm

import (
	"context"
	"database/sql"
	"errors"
)

// TestQuerier records statements instead of running them. Queries fail;
// Execs succeed and report Affected rows.
type TestQuerier struct {
	D        Dialect
	Affected int64
	Queries  []TestQuery
}

type TestQuery struct {
	SQL  string
	Args []any
}

func NewTestQuerier(d Dialect) *TestQuerier {
	return &TestQuerier{D: d, Affected: 1}
}

var _ Querier = (*TestQuerier)(nil)

func (tq *TestQuerier) record(query string, args []any) {
	tq.Queries = append(tq.Queries, TestQuery{SQL: query, Args: args})
}

func (tq *TestQuerier) QueryContext(_ context.Context, query string, args ...any) (*sql.Rows, error) {
	tq.record(query, args)
	return nil, errors.New("test querier: no rows")
}

func (tq *TestQuerier) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	tq.record(query, args)
	return driverResult(tq.Affected), nil
}

// LastQuery panics when nothing was recorded.
func (tq *TestQuerier) LastQuery() TestQuery { return tq.Queries[len(tq.Queries)-1] }

func (tq *TestQuerier) dialect() Dialect { return tq.D }

type driverResult int64

func (driverResult) LastInsertId() (int64, error)   { return 0, nil }
func (r driverResult) RowsAffected() (int64, error) { return int64(r), nil }
