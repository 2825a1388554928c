package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/prudhivi99/retail-orders/internal/models"
	"github.com/rs/zerolog"
)

const defaultCustomerLimit = 100

var (
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrNothingToUpdate   = errors.New("nothing to update")
	ErrCustomerHasOrders = errors.New("cannot delete customer with existing orders")
)

type CustomerError struct {
	Msg string
	Err error
}

func (e *CustomerError) Error() string { return e.Msg }

func (e *CustomerError) Unwrap() error { return e.Err }

func customerError(err error) error {
	if err == nil {
		return nil
	}
	return &CustomerError{Msg: err.Error(), Err: err}
}

type CustomerStore interface {
	GetByID(ctx context.Context, id int) (*models.Customer, error)
	GetByEmail(ctx context.Context, email string) (*models.Customer, error)
	List(ctx context.Context, limit int, city string) ([]models.Customer, error)
	Create(ctx context.Context, req models.CreateCustomerRequest) (*models.Customer, error)
	Update(ctx context.Context, id int, phone, city string) (*models.Customer, error)
	Delete(ctx context.Context, id int) error
	HasOrders(ctx context.Context, id int) (bool, error)
}

type CustomerService struct {
	store CustomerStore
	log   zerolog.Logger
}

func NewCustomerService(store CustomerStore, log zerolog.Logger) *CustomerService {
	return &CustomerService{
		store: store,
		log:   log.With().Str("component", "customer_service").Logger(),
	}
}

// AddCustomer refuses an email that is already registered.
func (s *CustomerService) AddCustomer(ctx context.Context, req models.CreateCustomerRequest) (*models.Customer, error) {
	existing, err := s.store.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, customerError(err)
	}
	if existing != nil {
		return nil, &CustomerError{Msg: fmt.Sprintf("email '%s' already exists", req.Email), Err: ErrDuplicateEmail}
	}

	c, err := s.store.Create(ctx, req)
	if err != nil {
		return nil, customerError(err)
	}
	if c == nil {
		return nil, customerError(fmt.Errorf("customer %s was not stored", req.Email))
	}
	s.log.Info().Int("cust_id", c.ID).Msg("customer added")
	return c, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, id int) (*models.Customer, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, customerError(err)
	}
	if c == nil {
		return nil, customerError(ErrCustomerNotFound)
	}
	return c, nil
}

// ListCustomers returns customers ordered by id. A limit of zero or less
// means 100; an empty city means every city.
func (s *CustomerService) ListCustomers(ctx context.Context, limit int, city string) ([]models.Customer, error) {
	if limit <= 0 {
		limit = defaultCustomerLimit
	}
	list, err := s.store.List(ctx, limit, city)
	if err != nil {
		return nil, customerError(err)
	}
	return list, nil
}

// UpdateCustomer changes phone and city; empty values are left alone.
func (s *CustomerService) UpdateCustomer(ctx context.Context, id int, phone, city string) (*models.Customer, error) {
	if phone == "" && city == "" {
		return nil, customerError(ErrNothingToUpdate)
	}

	c, err := s.store.Update(ctx, id, phone, city)
	if err != nil {
		return nil, customerError(err)
	}
	if c == nil {
		return nil, customerError(ErrCustomerNotFound)
	}
	return c, nil
}

// DeleteCustomer removes a customer without orders and returns the row as
// it was before deletion.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id int) (*models.Customer, error) {
	hasOrders, err := s.store.HasOrders(ctx, id)
	if err != nil {
		return nil, customerError(err)
	}
	if hasOrders {
		return nil, customerError(ErrCustomerHasOrders)
	}

	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, customerError(err)
	}
	if c == nil {
		return nil, customerError(ErrCustomerNotFound)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return nil, customerError(err)
	}
	s.log.Info().Int("cust_id", id).Msg("customer deleted")
	return c, nil
}
