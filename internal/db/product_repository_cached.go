package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/prudhivi99/retail-orders/internal/cache"
	"github.com/prudhivi99/retail-orders/internal/models"
	"github.com/rs/zerolog"
)

// CachedProductRepository serves catalog reads through the cache. Stock
// checks for orders must go to ProductRepository directly.
type CachedProductRepository struct {
	repo  *ProductRepository
	cache cache.Cache
	log   zerolog.Logger
}

func NewCachedProductRepository(repo *ProductRepository, c cache.Cache, log zerolog.Logger) *CachedProductRepository {
	return &CachedProductRepository{
		repo:  repo,
		cache: c,
		log:   log,
	}
}

// Cache key helpers
func productKey(id int) string {
	return fmt.Sprintf("product:%d", id)
}

func allProductsKey() string {
	return "products:all"
}

// GetAll returns all products (with caching)
func (r *CachedProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	cacheKey := allProductsKey()

	var products []models.Product
	err := r.cache.Get(ctx, cacheKey, &products)
	if err == nil {
		r.log.Debug().Msg("cache hit: all products")
		return products, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		r.log.Warn().Err(err).Msg("cache error")
	}

	r.log.Debug().Msg("cache miss: all products")
	products, err = r.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey, products); err != nil {
		r.log.Warn().Err(err).Msg("failed to cache products")
	}

	return products, nil
}

// GetByID returns a single product (with caching)
func (r *CachedProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	cacheKey := productKey(id)

	var product models.Product
	err := r.cache.Get(ctx, cacheKey, &product)
	if err == nil {
		r.log.Debug().Int("prod_id", id).Msg("cache hit: product")
		return &product, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		r.log.Warn().Err(err).Msg("cache error")
	}

	r.log.Debug().Int("prod_id", id).Msg("cache miss: product")
	p, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p == nil {
		return nil, nil
	}

	if err := r.cache.Set(ctx, cacheKey, p); err != nil {
		r.log.Warn().Err(err).Msg("failed to cache product")
	}

	return p, nil
}

// Create inserts a new product and invalidates cache
func (r *CachedProductRepository) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	product, err := r.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	r.Invalidate(ctx)
	return product, nil
}

// Delete removes a product and invalidates cache
func (r *CachedProductRepository) Delete(ctx context.Context, id int) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.Invalidate(ctx, id)
	return nil
}

// Invalidate drops the listed products and the full listing.
func (r *CachedProductRepository) Invalidate(ctx context.Context, ids ...int) {
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	keys = append(keys, allProductsKey())

	if err := r.cache.Delete(ctx, keys...); err != nil {
		r.log.Warn().Err(err).Msg("failed to invalidate cache")
		return
	}
	r.log.Debug().Ints("prod_ids", ids).Msg("cache invalidated")
}
