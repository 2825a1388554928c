package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Postgres is a Gateway over a database/sql connection pool.
type Postgres struct {
	Conn *sql.DB
	log  zerolog.Logger
}

func NewPostgres(ctx context.Context, cfg PostgresConfig, log zerolog.Logger) (*Postgres, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode,
	)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Str("host", cfg.Host).Str("db", cfg.DBName).Msg("connected to postgres")
	return &Postgres{Conn: conn, log: log}, nil
}

func (p *Postgres) Close() error {
	return p.Conn.Close()
}

func (p *Postgres) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	query, args := buildSelect(table, q)

	rows, err := p.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			// numeric columns arrive as []byte
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", table, err)
	}

	return out, nil
}

func (p *Postgres) Insert(ctx context.Context, table string, fields Row) error {
	query, args := buildInsert(table, fields)
	if _, err := p.Conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func (p *Postgres) Update(ctx context.Context, table string, fields Row, filters ...Filter) (int64, error) {
	query, args := buildUpdate(table, fields, filters)
	result, err := p.Conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update %s: %w", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected on %s: %w", table, err)
	}
	return affected, nil
}

func (p *Postgres) Delete(ctx context.Context, table string, filters ...Filter) (int64, error) {
	query, args := buildDelete(table, filters)
	result, err := p.Conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected on %s: %w", table, err)
	}
	return affected, nil
}

func sortedColumns(fields Row) []string {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// buildWhere numbers placeholders starting after the first `offset` args.
func buildWhere(filters []Filter, offset int) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}

	var (
		parts []string
		args  []any
	)
	for _, f := range filters {
		col := pq.QuoteIdentifier(f.Column)
		switch f.Op {
		case OpIn:
			if len(f.Values) == 0 {
				parts = append(parts, "FALSE")
				continue
			}
			args = append(args, pq.Array(f.Values))
			parts = append(parts, fmt.Sprintf("%s = ANY($%d)", col, offset+len(args)))
		default:
			args = append(args, f.Value)
			parts = append(parts, fmt.Sprintf("%s = $%d", col, offset+len(args)))
		}
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func buildSelect(table string, q Query) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(pq.QuoteIdentifier(table))

	where, args := buildWhere(q.Filters, 0)
	sb.WriteString(where)

	if q.OrderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(pq.QuoteIdentifier(q.OrderBy))
		if q.Desc {
			sb.WriteString(" DESC")
		} else {
			sb.WriteString(" ASC")
		}
	}
	if q.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", q.Limit))
	}
	return sb.String(), args
}

func buildInsert(table string, fields Row) (string, []any) {
	cols := sortedColumns(fields)
	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = pq.QuoteIdentifier(col)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = fields[col]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	return query, args
}

func buildUpdate(table string, fields Row, filters []Filter) (string, []any) {
	cols := sortedColumns(fields)
	sets := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(col), i+1)
		args[i] = fields[col]
	}
	where, whereArgs := buildWhere(filters, len(args))
	query := fmt.Sprintf("UPDATE %s SET %s%s", pq.QuoteIdentifier(table), strings.Join(sets, ", "), where)
	return query, append(args, whereArgs...)
}

func buildDelete(table string, filters []Filter) (string, []any) {
	where, args := buildWhere(filters, 0)
	return fmt.Sprintf("DELETE FROM %s%s", pq.QuoteIdentifier(table), where), args
}

var _ Gateway = (*Postgres)(nil)
