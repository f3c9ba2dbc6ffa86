package repo

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra"
)

// fakeRow scans a fixed list of values into the destinations, converting where
// the destination is a named type or a pointer.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		if err := assign(d, r.values[i]); err != nil {
			return fmt.Errorf("scan column %d: %w", i, err)
		}
	}
	return nil
}

func assign(dest, value any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("destination %T is not a pointer", dest)
	}
	target := dv.Elem()
	if value == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}
	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(target.Type()):
		target.Set(v)
	case v.Type().ConvertibleTo(target.Type()):
		target.Set(v.Convert(target.Type()))
	case target.Kind() == reflect.Pointer && v.Type().ConvertibleTo(target.Type().Elem()):
		p := reflect.New(target.Type().Elem())
		p.Elem().Set(v.Convert(target.Type().Elem()))
		target.Set(p)
	default:
		return fmt.Errorf("cannot assign %T to %s", value, target.Type())
	}
	return nil
}

type fakeRows struct {
	rows [][]any
	idx  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.rows[r.idx-1], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return fakeRow{values: r.rows[r.idx-1]}.Scan(dest...)
}

type call struct {
	query string
	args  []any
}

// fakeDB answers queries through handlers keyed by the exact statement text.
// Statements without a handler fail the call so tests notice unexpected SQL.
type fakeDB struct {
	rowFns  map[string]func(args []any) fakeRow
	rowsFns map[string]func(args []any) [][]any
	execFns map[string]func(args []any) (int64, error)
	calls   []call
	txs     int
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		rowFns:  map[string]func([]any) fakeRow{},
		rowsFns: map[string]func([]any) [][]any{},
		execFns: map[string]func([]any) (int64, error){},
	}
}

func (f *fakeDB) onRow(query string, fn func(args []any) fakeRow) { f.rowFns[query] = fn }
func (f *fakeDB) onRows(query string, fn func(args []any) [][]any) {
	f.rowsFns[query] = fn
}
func (f *fakeDB) onExec(query string, fn func(args []any) (int64, error)) {
	f.execFns[query] = fn
}

func (f *fakeDB) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, call{query, args})
	fn, ok := f.execFns[query]
	if !ok {
		return pgconn.CommandTag{}, fmt.Errorf("unexpected exec: %.60s", query)
	}
	n, err := fn(args)
	return pgconn.NewCommandTag(fmt.Sprintf("UPDATE %d", n)), err
}

func (f *fakeDB) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	f.calls = append(f.calls, call{query, args})
	fn, ok := f.rowFns[query]
	if !ok {
		return fakeRow{err: fmt.Errorf("unexpected query_row: %.60s", query)}
	}
	return fn(args)
}

func (f *fakeDB) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	f.calls = append(f.calls, call{query, args})
	fn, ok := f.rowsFns[query]
	if !ok {
		return nil, fmt.Errorf("unexpected query: %.60s", query)
	}
	return &fakeRows{rows: fn(args)}, nil
}

func (f *fakeDB) InTx(ctx context.Context, fn func(q infra.SQLExecutor) error) error {
	f.txs++
	return fn(f)
}

func (f *fakeDB) called(query string) int {
	n := 0
	for _, c := range f.calls {
		if c.query == query {
			n++
		}
	}
	return n
}

func noRows(args []any) fakeRow { return fakeRow{err: pgx.ErrNoRows} }

var _ infra.TxExecutor = (*fakeDB)(nil)
