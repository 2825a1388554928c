package db

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prudhivi99/retail-orders/internal/store"
	"github.com/shopspring/decimal"
)

// Table and column names of the retail schema.
const (
	TableCustomers  = "customers"
	TableProducts   = "products"
	TableOrders     = "orders"
	TableOrderItems = "order_items"
)

// Tables lists each table with its generated key column, the shape
// store.NewMemory expects.
var Tables = map[string]string{
	TableCustomers:  "cust_id",
	TableProducts:   "prod_id",
	TableOrders:     "order_id",
	TableOrderItems: "",
}

func asInt(row store.Row, col string) (int, error) {
	switch v := row[col].(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", col, err)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("column %s is null", col)
	default:
		return 0, fmt.Errorf("column %s: unexpected type %T", col, v)
	}
}

func asString(row store.Row, col string) string {
	switch v := row[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func asOptionalString(row store.Row, col string) *string {
	if row[col] == nil {
		return nil
	}
	s := asString(row, col)
	return &s
}

func asDecimal(row store.Row, col string) (decimal.Decimal, error) {
	switch v := row[col].(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("column %s: %w", col, err)
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case nil:
		return decimal.Zero, nil
	default:
		return decimal.Zero, fmt.Errorf("column %s: unexpected type %T", col, v)
	}
}

func asTime(row store.Row, col string) (time.Time, error) {
	switch v := row[col].(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("column %s: %w", col, err)
		}
		return t, nil
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("column %s: unexpected type %T", col, v)
	}
}

// first returns the first row or nil.
func first(rows []store.Row) store.Row {
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}
