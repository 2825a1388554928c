package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/prudhivi99/retail-orders/internal/models"
	"github.com/prudhivi99/retail-orders/internal/store"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository struct {
	gw store.Gateway
}

func NewProductRepository(gw store.Gateway) *ProductRepository {
	return &ProductRepository{gw: gw}
}

func decodeProduct(row store.Row) (*models.Product, error) {
	id, err := asInt(row, "prod_id")
	if err != nil {
		return nil, err
	}
	price, err := asDecimal(row, "price")
	if err != nil {
		return nil, err
	}
	stock, err := asInt(row, "stock")
	if err != nil {
		return nil, err
	}
	return &models.Product{ID: id, Name: asString(row, "name"), Price: price, Stock: stock}, nil
}

func decodeProducts(rows []store.Row) ([]models.Product, error) {
	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		p, err := decodeProduct(row)
		if err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		products = append(products, *p)
	}
	return products, nil
}

// GetAll returns all products ordered by id
func (r *ProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	rows, err := r.gw.Select(ctx, TableProducts, store.Query{OrderBy: "prod_id"})
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	return decodeProducts(rows)
}

// GetByID returns nil when the product does not exist
func (r *ProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	rows, err := r.gw.Select(ctx, TableProducts, store.Query{
		Filters: []store.Filter{store.Eq("prod_id", id)},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	row := first(rows)
	if row == nil {
		return nil, nil
	}
	return decodeProduct(row)
}

// GetByIDs returns the products that exist among ids, in no particular order.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int) ([]models.Product, error) {
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	rows, err := r.gw.Select(ctx, TableProducts, store.Query{
		Filters: []store.Filter{store.In("prod_id", values...)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	return decodeProducts(rows)
}

// Create inserts a product and returns the newest row with the same name.
func (r *ProductRepository) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	err := r.gw.Insert(ctx, TableProducts, store.Row{
		"name":  req.Name,
		"price": req.Price,
		"stock": req.Stock,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	rows, err := r.gw.Select(ctx, TableProducts, store.Query{
		Filters: []store.Filter{store.Eq("name", req.Name)},
		OrderBy: "prod_id",
		Desc:    true,
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read created product: %w", err)
	}
	row := first(rows)
	if row == nil {
		return nil, fmt.Errorf("created product %q not found", req.Name)
	}
	return decodeProduct(row)
}

// CompareAndSetStock sets stock to next only if it is still expected.
// It reports false when another writer changed the stock first.
func (r *ProductRepository) CompareAndSetStock(ctx context.Context, id, expected, next int) (bool, error) {
	n, err := r.gw.Update(ctx, TableProducts,
		store.Row{"stock": next},
		store.Eq("prod_id", id), store.Eq("stock", expected),
	)
	if err != nil {
		return false, fmt.Errorf("failed to update stock of product %d: %w", id, err)
	}
	return n > 0, nil
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	n, err := r.gw.Delete(ctx, TableProducts, store.Eq("prod_id", id))
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}
