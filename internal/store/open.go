package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Open returns the gateway for driver ("postgres" or "memory") and a close
// function. tables seeds the memory driver's key columns.
func Open(ctx context.Context, driver string, pg PostgresConfig, tables map[string]string, log zerolog.Logger) (Gateway, func() error, error) {
	switch driver {
	case "postgres":
		p, err := NewPostgres(ctx, pg, log)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	case "memory":
		log.Warn().Msg("using in-memory store, data is lost on exit")
		return NewMemory(tables), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
