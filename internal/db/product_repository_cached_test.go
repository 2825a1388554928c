package db

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/prudhivi99/retail-orders/internal/cache"
	"github.com/prudhivi99/retail-orders/internal/models"
	"github.com/prudhivi99/retail-orders/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	data map[string][]byte
	sets int
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string, dest any) error {
	b, ok := c.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(b, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.sets++
	c.data[key] = b
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func TestCachedProductRepository(t *testing.T) {
	ctx := context.Background()
	gw := store.NewMemory(Tables)
	c := newMapCache()
	repo := NewCachedProductRepository(NewProductRepository(gw), c, zerolog.Nop())

	p, err := repo.Create(ctx, models.CreateProductRequest{Name: "pen", Price: decimal.RequireFromString("1.25"), Stock: 8})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Stock)
	assert.Equal(t, 1, c.sets)

	// change the row underneath the cache; the cached copy is served
	_, err = gw.Update(ctx, TableProducts, store.Row{"stock": 2}, store.Eq("prod_id", p.ID))
	require.NoError(t, err)
	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Stock)

	repo.Invalidate(ctx, p.ID)
	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
	assert.True(t, decimal.RequireFromString("1.25").Equal(got.Price))
}

func TestCachedProductRepositoryMissingNotCached(t *testing.T) {
	ctx := context.Background()
	c := newMapCache()
	repo := NewCachedProductRepository(NewProductRepository(store.NewMemory(Tables)), c, zerolog.Nop())

	got, err := repo.GetByID(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, c.sets)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Contains(t, c.data, allProductsKey())
}
