// Package store is a generic table-query client. It knows nothing about
// customers or orders: callers address rows by table and column name.
//
// The gateway offers single-statement operations only. Callers that need
// several writes to succeed together must arrange that themselves.
package store

import (
	"context"
	"errors"
)

var ErrUnknownTable = errors.New("unknown table")

// Row maps column names to values.
type Row map[string]any

type Op int

const (
	OpEq Op = iota
	OpIn
)

type Filter struct {
	Column string
	Op     Op
	Value  any
	Values []any
}

// Eq matches rows whose column equals value.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

// In matches rows whose column is one of values. An empty set matches nothing.
func In(column string, values ...any) Filter {
	return Filter{Column: column, Op: OpIn, Values: values}
}

type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Gateway is implemented by Postgres and Memory.
type Gateway interface {
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	// Insert does not report generated keys; re-read the row to learn them.
	Insert(ctx context.Context, table string, fields Row) error
	// Update returns the number of rows affected.
	Update(ctx context.Context, table string, fields Row, filters ...Filter) (int64, error)
	Delete(ctx context.Context, table string, filters ...Filter) (int64, error)
}
