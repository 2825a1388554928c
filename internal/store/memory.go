package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Memory is an in-process Gateway. Tables must be declared up front with
// their generated key column; inserts without that column get the next id.
type Memory struct {
	mu     sync.Mutex
	tables map[string]*memTable
}

type memTable struct {
	key    string
	nextID int
	rows   []Row
}

// NewMemory takes table name -> generated key column. An empty key column
// declares a table without generated keys.
func NewMemory(tables map[string]string) *Memory {
	m := &Memory{tables: make(map[string]*memTable, len(tables))}
	for name, key := range tables {
		m.tables[name] = &memTable{key: key, nextID: 1}
	}
	return m
}

func (m *Memory) table(name string) (*memTable, error) {
	t, ok := m.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return t, nil
}

func (m *Memory) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.table(table)
	if err != nil {
		return nil, err
	}

	var out []Row
	for _, row := range t.rows {
		if matches(row, q.Filters) {
			out = append(out, copyRow(row))
		}
	}

	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			c := compare(out[i][q.OrderBy], out[j][q.OrderBy])
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *Memory) Insert(ctx context.Context, table string, fields Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.table(table)
	if err != nil {
		return err
	}

	row := copyRow(fields)
	if t.key != "" {
		if id, ok := row[t.key]; ok {
			if n, ok := toInt64(id); ok && int(n) >= t.nextID {
				t.nextID = int(n) + 1
			}
		} else {
			row[t.key] = t.nextID
			t.nextID++
		}
	}
	t.rows = append(t.rows, row)
	return nil
}

func (m *Memory) Update(ctx context.Context, table string, fields Row, filters ...Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.table(table)
	if err != nil {
		return 0, err
	}

	var n int64
	for _, row := range t.rows {
		if !matches(row, filters) {
			continue
		}
		for col, v := range fields {
			row[col] = v
		}
		n++
	}
	return n, nil
}

func (m *Memory) Delete(ctx context.Context, table string, filters ...Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.table(table)
	if err != nil {
		return 0, err
	}

	kept := t.rows[:0]
	var n int64
	for _, row := range t.rows {
		if matches(row, filters) {
			n++
			continue
		}
		kept = append(kept, row)
	}
	t.rows = kept
	return n, nil
}

// Count reports the number of rows in a table.
func (m *Memory) Count(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tables[table]; ok {
		return len(t.rows)
	}
	return 0
}

func copyRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func matches(row Row, filters []Filter) bool {
	for _, f := range filters {
		v := row[f.Column]
		switch f.Op {
		case OpIn:
			found := false
			for _, want := range f.Values {
				if equal(v, want) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			if !equal(v, f.Value) {
				return false
			}
		}
	}
	return true
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	}
	return 0, false
}

// normalize lets values written as different Go types compare equal,
// the way a SQL column would.
func normalize(v any) any {
	if n, ok := toInt64(v); ok {
		return n
	}
	switch x := v.(type) {
	case decimal.Decimal:
		return x.String()
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case string:
		return x
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	}
	return v
}

func equal(a, b any) bool {
	return normalize(a) == normalize(b)
}

func compare(a, b any) int {
	switch x := normalize(a).(type) {
	case int64:
		if y, ok := normalize(b).(int64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case string:
		if y, ok := normalize(b).(string); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	return 0
}

var _ Gateway = (*Memory)(nil)
