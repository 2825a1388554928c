package db

import (
	"context"
	"testing"
	"time"

	"github.com/prudhivi99/retail-orders/internal/models"
	"github.com/prudhivi99/retail-orders/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RepositoryTestSuite struct {
	suite.Suite
	ctx       context.Context
	gw        *store.Memory
	customers *CustomerRepository
	products  *ProductRepository
	orders    *OrderRepository
}

func (s *RepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.gw = store.NewMemory(Tables)
	s.customers = NewCustomerRepository(s.gw)
	s.products = NewProductRepository(s.gw)
	s.orders = NewOrderRepository(s.gw)
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func (s *RepositoryTestSuite) TestCustomerCreateAndLookup() {
	city := "Pune"
	c, err := s.customers.Create(s.ctx, models.CreateCustomerRequest{
		Name: "Asha", Email: "asha@example.com", Phone: "555", City: &city,
	})
	require.NoError(s.T(), err)
	require.NotNil(s.T(), c)
	s.Equal(1, c.ID)
	s.Equal("Pune", *c.City)
	s.False(c.CreatedAt.IsZero())

	byID, err := s.customers.GetByID(s.ctx, c.ID)
	require.NoError(s.T(), err)
	s.Equal(c.Email, byID.Email)

	missing, err := s.customers.GetByID(s.ctx, 42)
	require.NoError(s.T(), err)
	s.Nil(missing)
}

func (s *RepositoryTestSuite) TestCustomerListFiltersByCity() {
	pune, goa := "Pune", "Goa"
	for _, req := range []models.CreateCustomerRequest{
		{Name: "a", Email: "a@x.io", Phone: "1", City: &pune},
		{Name: "b", Email: "b@x.io", Phone: "2", City: &goa},
		{Name: "c", Email: "c@x.io", Phone: "3", City: &pune},
	} {
		_, err := s.customers.Create(s.ctx, req)
		require.NoError(s.T(), err)
	}

	all, err := s.customers.List(s.ctx, 100, "")
	require.NoError(s.T(), err)
	s.Len(all, 3)

	inPune, err := s.customers.List(s.ctx, 100, "Pune")
	require.NoError(s.T(), err)
	require.Len(s.T(), inPune, 2)
	s.Equal("a", inPune[0].Name)
	s.Equal("c", inPune[1].Name)

	limited, err := s.customers.List(s.ctx, 1, "")
	require.NoError(s.T(), err)
	s.Len(limited, 1)
}

func (s *RepositoryTestSuite) TestProductDecodesStringPrices() {
	// numeric columns come back from postgres as text
	require.NoError(s.T(), s.gw.Insert(s.ctx, TableProducts, store.Row{"name": "pen", "price": "2.50", "stock": int64(4)}))

	p, err := s.products.GetByID(s.ctx, 1)
	require.NoError(s.T(), err)
	s.True(decimal.RequireFromString("2.50").Equal(p.Price))
	s.Equal(4, p.Stock)
}

func (s *RepositoryTestSuite) TestProductGetByIDsSkipsMissing() {
	for _, name := range []string{"a", "b"} {
		_, err := s.products.Create(s.ctx, models.CreateProductRequest{Name: name, Price: decimal.NewFromInt(1), Stock: 1})
		require.NoError(s.T(), err)
	}

	found, err := s.products.GetByIDs(s.ctx, []int{1, 2, 3})
	require.NoError(s.T(), err)
	s.Len(found, 2)
}

func (s *RepositoryTestSuite) TestCompareAndSetStock() {
	p, err := s.products.Create(s.ctx, models.CreateProductRequest{Name: "pen", Price: decimal.NewFromInt(1), Stock: 5})
	require.NoError(s.T(), err)

	ok, err := s.products.CompareAndSetStock(s.ctx, p.ID, 4, 2)
	require.NoError(s.T(), err)
	s.False(ok)

	ok, err = s.products.CompareAndSetStock(s.ctx, p.ID, 5, 2)
	require.NoError(s.T(), err)
	s.True(ok)

	p, err = s.products.GetByID(s.ctx, p.ID)
	require.NoError(s.T(), err)
	s.Equal(2, p.Stock)
}

func (s *RepositoryTestSuite) TestProductDeleteMissing() {
	s.ErrorIs(s.products.Delete(s.ctx, 7), ErrProductNotFound)
}

func (s *RepositoryTestSuite) TestOrderRoundTrip() {
	at := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(s.T(), s.orders.Insert(s.ctx, models.Order{
		Ref: "ref-1", CustomerID: 3, OrderDate: at, Status: models.StatusPlaced, TotalAmount: decimal.NewFromInt(15),
	}))

	o, err := s.orders.FindByRef(s.ctx, "ref-1")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), o)
	s.Equal(models.StatusPlaced, o.Status)
	s.Equal("ref-1", o.Ref)

	require.NoError(s.T(), s.orders.InsertItem(s.ctx, models.OrderItem{
		OrderID: o.ID, ProductID: 1, Quantity: 3, Price: decimal.NewFromInt(5),
	}))
	items, err := s.orders.Items(s.ctx, o.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), items, 1)
	s.True(decimal.NewFromInt(15).Equal(items[0].Subtotal()))

	ok, err := s.orders.CompareAndSetStatus(s.ctx, o.ID, models.StatusPlaced, models.StatusCancelled)
	require.NoError(s.T(), err)
	s.True(ok)
	ok, err = s.orders.CompareAndSetStatus(s.ctx, o.ID, models.StatusPlaced, models.StatusCancelled)
	require.NoError(s.T(), err)
	s.False(ok)

	has, err := s.customers.HasOrders(s.ctx, 3)
	require.NoError(s.T(), err)
	s.True(has)
}

func (s *RepositoryTestSuite) TestOrderDeleteByRefKeepsSameTimestampOrders() {
	at := time.Now().UTC().Truncate(time.Microsecond)
	for _, ref := range []string{"ref-a", "ref-b"} {
		require.NoError(s.T(), s.orders.Insert(s.ctx, models.Order{
			Ref: ref, CustomerID: 3, OrderDate: at, Status: models.StatusPlaced, TotalAmount: decimal.NewFromInt(1),
		}))
	}

	require.NoError(s.T(), s.orders.DeleteByRef(s.ctx, "ref-b"))

	kept, err := s.orders.FindByRef(s.ctx, "ref-a")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), kept)
	gone, err := s.orders.FindByRef(s.ctx, "ref-b")
	require.NoError(s.T(), err)
	s.Nil(gone)

	require.NoError(s.T(), s.orders.Delete(s.ctx, kept.ID))
	s.Zero(s.gw.Count(TableOrders))
}
