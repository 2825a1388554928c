package db

import (
	"context"
	"fmt"
	"time"

	"github.com/prudhivi99/retail-orders/internal/models"
	"github.com/prudhivi99/retail-orders/internal/store"
)

type CustomerRepository struct {
	gw store.Gateway
}

func NewCustomerRepository(gw store.Gateway) *CustomerRepository {
	return &CustomerRepository{gw: gw}
}

func decodeCustomer(row store.Row) (*models.Customer, error) {
	id, err := asInt(row, "cust_id")
	if err != nil {
		return nil, err
	}
	createdAt, err := asTime(row, "created_at")
	if err != nil {
		return nil, err
	}
	return &models.Customer{
		ID:        id,
		Name:      asString(row, "name"),
		Email:     asString(row, "email"),
		Phone:     asString(row, "phone"),
		City:      asOptionalString(row, "city"),
		CreatedAt: createdAt,
	}, nil
}

func (r *CustomerRepository) getOne(ctx context.Context, filter store.Filter) (*models.Customer, error) {
	rows, err := r.gw.Select(ctx, TableCustomers, store.Query{Filters: []store.Filter{filter}, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	row := first(rows)
	if row == nil {
		return nil, nil
	}
	return decodeCustomer(row)
}

// GetByID returns nil when no customer has the id.
func (r *CustomerRepository) GetByID(ctx context.Context, id int) (*models.Customer, error) {
	return r.getOne(ctx, store.Eq("cust_id", id))
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return r.getOne(ctx, store.Eq("email", email))
}

// List returns up to limit customers ordered by id, optionally only those in city.
func (r *CustomerRepository) List(ctx context.Context, limit int, city string) ([]models.Customer, error) {
	q := store.Query{OrderBy: "cust_id", Limit: limit}
	if city != "" {
		q.Filters = append(q.Filters, store.Eq("city", city))
	}

	rows, err := r.gw.Select(ctx, TableCustomers, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}

	customers := make([]models.Customer, 0, len(rows))
	for _, row := range rows {
		c, err := decodeCustomer(row)
		if err != nil {
			return nil, fmt.Errorf("failed to decode customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, nil
}

// Create inserts the customer and reads it back by email to learn its id.
func (r *CustomerRepository) Create(ctx context.Context, req models.CreateCustomerRequest) (*models.Customer, error) {
	fields := store.Row{
		"name":       req.Name,
		"email":      req.Email,
		"phone":      req.Phone,
		"city":       nil,
		"created_at": time.Now().UTC().Truncate(time.Microsecond),
	}
	if req.City != nil {
		fields["city"] = *req.City
	}

	if err := r.gw.Insert(ctx, TableCustomers, fields); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return r.GetByEmail(ctx, req.Email)
}

// Update writes only the non-empty fields and returns the refreshed row.
func (r *CustomerRepository) Update(ctx context.Context, id int, phone, city string) (*models.Customer, error) {
	fields := store.Row{}
	if phone != "" {
		fields["phone"] = phone
	}
	if city != "" {
		fields["city"] = city
	}

	if _, err := r.gw.Update(ctx, TableCustomers, fields, store.Eq("cust_id", id)); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *CustomerRepository) Delete(ctx context.Context, id int) error {
	if _, err := r.gw.Delete(ctx, TableCustomers, store.Eq("cust_id", id)); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}

func (r *CustomerRepository) HasOrders(ctx context.Context, id int) (bool, error) {
	rows, err := r.gw.Select(ctx, TableOrders, store.Query{
		Filters: []store.Filter{store.Eq("cust_id", id)},
		Limit:   1,
	})
	if err != nil {
		return false, fmt.Errorf("failed to query orders: %w", err)
	}
	return len(rows) > 0, nil
}
