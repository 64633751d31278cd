package orm

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
)

var errMockNotImplemented = errors.New("mock: not implemented")

// TestQuerier is a mock Querier that records executed queries.
// Result sets queued with StubRows are served, in order, to QueryContext;
// without a queued result QueryContext fails.
// Exported for use in orm_test package.
type TestQuerier struct {
	D       Dialect
	Queries []TestQuery

	results  []stubResult
	execErrs []error
	pending  *stubResult
	lastID   int64
	db       *sql.DB
}

// TestQuery holds a captured query string and its args.
type TestQuery struct {
	SQL  string
	Args []any
}

type stubResult struct {
	columns []string
	rows    [][]any
	err     error
}

// NewTestQuerier creates a TestQuerier with the given Dialect.
func NewTestQuerier(d Dialect) *TestQuerier {
	tq := &TestQuerier{D: d}
	tq.db = sql.OpenDB(stubConnector{tq})
	return tq
}

// StubRows queues a result set for the next QueryContext call.
func (tq *TestQuerier) StubRows(columns []string, rows ...[]any) {
	tq.results = append(tq.results, stubResult{columns: columns, rows: rows})
}

// StubCount queues a single-cell COUNT(*) result.
func (tq *TestQuerier) StubCount(n int64) {
	tq.StubRows([]string{"count"}, []any{n})
}

// StubQueryError queues an error for the next QueryContext call.
func (tq *TestQuerier) StubQueryError(err error) {
	tq.results = append(tq.results, stubResult{err: err})
}

// StubExecError queues an error for the next ExecContext call.
func (tq *TestQuerier) StubExecError(err error) {
	tq.execErrs = append(tq.execErrs, err)
}

func (tq *TestQuerier) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	tq.Queries = append(tq.Queries, TestQuery{query, args})
	if len(tq.results) == 0 {
		return nil, errMockNotImplemented
	}
	r := tq.results[0]
	tq.results = tq.results[1:]
	if r.err != nil {
		return nil, r.err
	}
	tq.pending = &r
	return tq.db.QueryContext(ctx, "stub") //nolint:wrapcheck // test double
}

func (tq *TestQuerier) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	tq.Queries = append(tq.Queries, TestQuery{query, args})
	if len(tq.execErrs) > 0 {
		err := tq.execErrs[0]
		tq.execErrs = tq.execErrs[1:]
		return nil, err
	}
	tq.lastID++
	return testResult{id: tq.lastID}, nil
}

var _ Querier = (*TestQuerier)(nil)

// LastQuery returns the most recently captured query, or panics if empty.
func (tq *TestQuerier) LastQuery() TestQuery {
	return tq.Queries[len(tq.Queries)-1]
}

// SelectCount returns the number of captured SELECT queries.
func (tq *TestQuerier) SelectCount() int {
	n := 0
	for _, q := range tq.Queries {
		if strings.HasPrefix(q.SQL, "SELECT") {
			n++
		}
	}
	return n
}

func (tq *TestQuerier) dialect() Dialect { return tq.D }

type testResult struct{ id int64 }

func (r testResult) LastInsertId() (int64, error) { return r.id, nil }
func (testResult) RowsAffected() (int64, error)   { return 0, nil }

// --- database/sql/driver plumbing serving stubbed rows ---

type stubConnector struct{ tq *TestQuerier }

func (c stubConnector) Connect(context.Context) (driver.Conn, error) { return stubConn{tq: c.tq}, nil }
func (stubConnector) Driver() driver.Driver                          { return stubDriver{} }

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return nil, errMockNotImplemented }

type stubConn struct{ tq *TestQuerier }

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, errMockNotImplemented }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return nil, errMockNotImplemented }

func (c stubConn) QueryContext(context.Context, string, []driver.NamedValue) (driver.Rows, error) {
	r := c.tq.pending
	c.tq.pending = nil
	if r == nil {
		return nil, errMockNotImplemented
	}
	return &stubRows{columns: r.columns, rows: r.rows}, nil
}

type stubRows struct {
	columns []string
	rows    [][]any
	i       int
}

func (r *stubRows) Columns() []string { return r.columns }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.i >= len(r.rows) {
		return io.EOF
	}
	for j, v := range r.rows[r.i] {
		dv, err := driver.DefaultParameterConverter.ConvertValue(v)
		if err != nil {
			return err //nolint:wrapcheck // test double
		}
		dest[j] = dv
	}
	r.i++
	return nil
}

// Rebind exposes rebind for tests.
func Rebind(d Dialect, query string) string { return rebind(d, query) }
