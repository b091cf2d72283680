package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/services"
)

type OrderServiceTestSuite struct {
	serviceSuite
}

func TestOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}

func (suite *OrderServiceTestSuite) TestCreateOrder() {
	product := suite.createProduct("Keyboard", "1000", 10)

	order, err := suite.orders.CreateOrder(suite.ctx, suite.buyer.ID, &services.CreateOrderRequest{
		ShippingAddress: validAddress,
		Items:           []services.OrderLineRequest{line(product, 2)},
	})
	suite.Require().NoError(err)

	assert.Equal(suite.T(), models.OrderStatusPending, order.Status)
	assert.True(suite.T(), order.TotalAmount.Equal(decimal.NewFromInt(2000)), order.TotalAmount.String())
	assert.Equal(suite.T(), suite.buyer.ID, order.BuyerID)
	assert.Equal(suite.T(), validAddress, order.ShippingAddress)
	suite.Require().Len(order.Items, 1)
	assert.Equal(suite.T(), 2, order.Items[0].Quantity)
	assert.True(suite.T(), order.Items[0].Price.Equal(decimal.NewFromInt(1000)))
	assert.Equal(suite.T(), 8, suite.stockOf(product.ID))
}

func (suite *OrderServiceTestSuite) TestCreateOrderValidatesBeforeTouchingStore() {
	product := suite.createProduct("Keyboard", "1000", 10)

	tests := []struct {
		name string
		req  services.CreateOrderRequest
	}{
		{"no items", services.CreateOrderRequest{ShippingAddress: validAddress}},
		{"zero quantity", services.CreateOrderRequest{ShippingAddress: validAddress, Items: []services.OrderLineRequest{line(product, 0)}}},
		{"zero price", services.CreateOrderRequest{ShippingAddress: validAddress, Items: []services.OrderLineRequest{
			{ProductID: product.ID, Quantity: 1, Price: decimal.Zero},
		}}},
		{"short address", services.CreateOrderRequest{ShippingAddress: "Jl. A", Items: []services.OrderLineRequest{line(product, 1)}}},
		{"address padded with spaces", services.CreateOrderRequest{ShippingAddress: "   Jl. A 1    ", Items: []services.OrderLineRequest{line(product, 1)}}},
		{"unknown product with short address", services.CreateOrderRequest{ShippingAddress: "x", Items: []services.OrderLineRequest{
			{ProductID: uuid.New(), Quantity: 1, Price: decimal.NewFromInt(1)},
		}}},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			req := tt.req
			_, err := suite.orders.CreateOrder(suite.ctx, suite.buyer.ID, &req)
			assert.ErrorIs(suite.T(), err, services.ErrInvalidInput)
		})
	}

	assert.Zero(suite.T(), suite.count(&models.Order{}))
	assert.Equal(suite.T(), 10, suite.stockOf(product.ID))
}

func (suite *OrderServiceTestSuite) TestCreateOrderUnknownProduct() {
	id := uuid.New()
	_, err := suite.orders.CreateOrder(suite.ctx, suite.buyer.ID, &services.CreateOrderRequest{
		ShippingAddress: validAddress,
		Items:           []services.OrderLineRequest{{ProductID: id, Quantity: 1, Price: decimal.NewFromInt(5)}},
	})
	suite.Require().ErrorIs(err, services.ErrNotFound)
	assert.Contains(suite.T(), err.Error(), id.String())
}

func (suite *OrderServiceTestSuite) TestCreateOrderIsAtomic() {
	a := suite.createProduct("A", "10", 5)
	b := suite.createProduct("B", "20", 5)
	c := suite.createProduct("C", "30", 1)
	d := suite.createProduct("D", "40", 5)

	_, err := suite.orders.CreateOrder(suite.ctx, suite.buyer.ID, &services.CreateOrderRequest{
		ShippingAddress: validAddress,
		Items: []services.OrderLineRequest{
			line(a, 1), line(b, 2), line(c, 2), line(d, 1),
		},
	})
	suite.Require().ErrorIs(err, services.ErrInsufficientStock)

	var svcErr *services.Error
	suite.Require().ErrorAs(err, &svcErr)
	assert.Equal(suite.T(), c.ID.String(), svcErr.Details["product_id"])
	assert.Equal(suite.T(), 1, svcErr.Details["available"])

	assert.Zero(suite.T(), suite.count(&models.Order{}))
	assert.Zero(suite.T(), suite.count(&models.OrderItem{}))
	assert.Equal(suite.T(), 5, suite.stockOf(a.ID))
	assert.Equal(suite.T(), 5, suite.stockOf(b.ID))
	assert.Equal(suite.T(), 1, suite.stockOf(c.ID))
	assert.Equal(suite.T(), 5, suite.stockOf(d.ID))
}

func (suite *OrderServiceTestSuite) TestDuplicateLinesCannotOversell() {
	product := suite.createProduct("Keyboard", "1000", 5)

	_, err := suite.orders.CreateOrder(suite.ctx, suite.buyer.ID, &services.CreateOrderRequest{
		ShippingAddress: validAddress,
		Items:           []services.OrderLineRequest{line(product, 3), line(product, 3)},
	})
	suite.Require().ErrorIs(err, services.ErrInsufficientStock)

	var svcErr *services.Error
	suite.Require().ErrorAs(err, &svcErr)
	assert.Equal(suite.T(), 2, svcErr.Details["available"])

	assert.Equal(suite.T(), 5, suite.stockOf(product.ID))
	assert.Zero(suite.T(), suite.count(&models.Order{}))
}

func (suite *OrderServiceTestSuite) TestTotalIsExactSumOfLines() {
	a := suite.createProduct("A", "19.99", 10)
	b := suite.createProduct("B", "0.01", 10)
	c := suite.createProduct("C", "0.10", 10)

	order, err := suite.orders.CreateOrder(suite.ctx, suite.buyer.ID, &services.CreateOrderRequest{
		ShippingAddress: validAddress,
		Items:           []services.OrderLineRequest{line(a, 3), line(b, 1), line(c, 3)},
	})
	suite.Require().NoError(err)

	assert.True(suite.T(), order.TotalAmount.Equal(decimal.RequireFromString("60.28")), order.TotalAmount.String())
	assert.True(suite.T(), order.TotalAmount.Equal(order.ItemsTotal()))
	for i, item := range order.Items {
		assert.Equal(suite.T(), i, item.Position)
	}
}

func (suite *OrderServiceTestSuite) TestLockedPriceIsKeptByDefault() {
	product := suite.createProduct("Keyboard", "1000", 10)

	order, err := suite.orders.CreateOrder(suite.ctx, suite.buyer.ID, &services.CreateOrderRequest{
		ShippingAddress: validAddress,
		Items:           []services.OrderLineRequest{{ProductID: product.ID, Quantity: 1, Price: decimal.NewFromInt(900)}},
	})
	suite.Require().NoError(err)
	assert.True(suite.T(), order.TotalAmount.Equal(decimal.NewFromInt(900)))
}

func (suite *OrderServiceTestSuite) TestLivePriceEnforcement() {
	cfg := suite.cfg.Order
	cfg.EnforceLivePrice = true
	strict := services.NewOrderService(suite.db, services.StubPaymentConfirmer{}, cfg)
	product := suite.createProduct("Keyboard", "1000", 10)

	_, err := strict.CreateOrder(suite.ctx, suite.buyer.ID, &services.CreateOrderRequest{
		ShippingAddress: validAddress,
		Items:           []services.OrderLineRequest{{ProductID: product.ID, Quantity: 1, Price: decimal.NewFromInt(900)}},
	})
	assert.ErrorIs(suite.T(), err, services.ErrInvalidInput)
	assert.Equal(suite.T(), 10, suite.stockOf(product.ID))

	_, err = strict.CreateOrder(suite.ctx, suite.buyer.ID, &services.CreateOrderRequest{
		ShippingAddress: validAddress,
		Items:           []services.OrderLineRequest{line(product, 1)},
	})
	assert.NoError(suite.T(), err)
}

func (suite *OrderServiceTestSuite) TestConcurrentOrdersNeverOversell() {
	product := suite.createProduct("Keyboard", "1000", 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = suite.orders.CreateOrder(context.Background(), suite.buyer.ID, &services.CreateOrderRequest{
				ShippingAddress: validAddress,
				Items:           []services.OrderLineRequest{line(product, 3)},
			})
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case services.KindOf(err) == services.KindInsufficientStock:
			rejected++
		default:
			suite.Failf("unexpected error", "%v", err)
		}
	}

	assert.Equal(suite.T(), 1, succeeded)
	assert.Equal(suite.T(), 1, rejected)
	assert.Equal(suite.T(), 2, suite.stockOf(product.ID))
	assert.Equal(suite.T(), int64(1), suite.count(&models.Order{}))
}

func (suite *OrderServiceTestSuite) TestCancelledContextRollsBack() {
	product := suite.createProduct("Keyboard", "1000", 5)

	ctx, cancel := context.WithCancel(suite.ctx)
	cancel()

	_, err := suite.orders.CreateOrder(ctx, suite.buyer.ID, &services.CreateOrderRequest{
		ShippingAddress: validAddress,
		Items:           []services.OrderLineRequest{line(product, 1)},
	})
	suite.Require().Error(err)
	assert.Equal(suite.T(), 5, suite.stockOf(product.ID))
	assert.Zero(suite.T(), suite.count(&models.Order{}))
}

func (suite *OrderServiceTestSuite) TestPay() {
	product := suite.createProduct("Keyboard", "1000", 10)
	order, err := suite.orders.CreateOrder(suite.ctx, suite.buyer.ID, &services.CreateOrderRequest{
		ShippingAddress: validAddress,
		Items:           []services.OrderLineRequest{line(product, 2)},
	})
	suite.Require().NoError(err)

	_, err = suite.orders.Pay(suite.ctx, order.ID, suite.buyer.ID, &services.PayOrderRequest{PaymentMethod: "  "})
	assert.ErrorIs(suite.T(), err, services.ErrInvalidInput)

	_, err = suite.orders.Pay(suite.ctx, order.ID, suite.seller.ID, &services.PayOrderRequest{PaymentMethod: "transfer"})
	assert.ErrorIs(suite.T(), err, services.ErrNotFound)

	// Lookup wins over input validation for orders the caller cannot see
	_, err = suite.orders.Pay(suite.ctx, uuid.New(), suite.buyer.ID, &services.PayOrderRequest{PaymentMethod: ""})
	assert.ErrorIs(suite.T(), err, services.ErrNotFound)
	_, err = suite.orders.Pay(suite.ctx, order.ID, suite.seller.ID, &services.PayOrderRequest{PaymentMethod: ""})
	assert.ErrorIs(suite.T(), err, services.ErrNotFound)

	confirmation, err := suite.orders.Pay(suite.ctx, order.ID, suite.buyer.ID, &services.PayOrderRequest{PaymentMethod: "transfer"})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), order.ID, confirmation.OrderID)
	assert.Equal(suite.T(), models.OrderStatusPaid, confirmation.Status)
	assert.Equal(suite.T(), "transfer", confirmation.PaymentMethod)
	assert.Regexp(suite.T(), "^PAY-[A-Z0-9]{12}$", confirmation.Reference)

	_, err = suite.orders.Pay(suite.ctx, order.ID, suite.buyer.ID, &services.PayOrderRequest{PaymentMethod: "transfer"})
	suite.Require().ErrorIs(err, services.ErrInvalidTransition)

	var svcErr *services.Error
	suite.Require().ErrorAs(err, &svcErr)
	assert.Equal(suite.T(), "paid", svcErr.Details["current_status"])

	paid, err := suite.orders.GetOrder(suite.ctx, order.ID, suite.buyer.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.OrderStatusPaid, paid.Status)
	assert.Equal(suite.T(), "transfer", paid.PaymentMethod)
	assert.Equal(suite.T(), confirmation.Reference, paid.PaymentReference)
	assert.NotNil(suite.T(), paid.PaidAt)
	assert.Equal(suite.T(), 8, suite.stockOf(product.ID))
}

func (suite *OrderServiceTestSuite) TestConcurrentPaymentsOnlyOneWins() {
	product := suite.createProduct("Keyboard", "1000", 10)
	order, err := suite.orders.CreateOrder(suite.ctx, suite.buyer.ID, &services.CreateOrderRequest{
		ShippingAddress: validAddress,
		Items:           []services.OrderLineRequest{line(product, 1)},
	})
	suite.Require().NoError(err)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = suite.orders.Pay(context.Background(), order.ID, suite.buyer.ID, &services.PayOrderRequest{PaymentMethod: "ewallet"})
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(suite.T(), err, services.ErrInvalidTransition)
	}
	assert.Equal(suite.T(), 1, succeeded)
}

func (suite *OrderServiceTestSuite) TestReads() {
	product := suite.createProduct("Keyboard", "1000", 10)

	var ids []uuid.UUID
	for i := 1; i <= 3; i++ {
		order, err := suite.orders.CreateOrder(suite.ctx, suite.buyer.ID, &services.CreateOrderRequest{
			ShippingAddress: validAddress,
			Items:           []services.OrderLineRequest{line(product, i)},
		})
		suite.Require().NoError(err)
		ids = append(ids, order.ID)
		time.Sleep(5 * time.Millisecond)
	}

	orders, err := suite.orders.ListOrders(suite.ctx, suite.buyer.ID)
	suite.Require().NoError(err)
	suite.Require().Len(orders, 3)
	assert.Equal(suite.T(), []uuid.UUID{ids[2], ids[1], ids[0]}, []uuid.UUID{orders[0].ID, orders[1].ID, orders[2].ID})
	for _, order := range orders {
		assert.Len(suite.T(), order.Items, 1)
	}

	none, err := suite.orders.ListOrders(suite.ctx, suite.seller.ID)
	suite.Require().NoError(err)
	assert.NotNil(suite.T(), none)
	assert.Empty(suite.T(), none)

	first, err := suite.orders.GetOrder(suite.ctx, ids[0], suite.buyer.ID)
	suite.Require().NoError(err)
	second, err := suite.orders.GetOrder(suite.ctx, ids[0], suite.buyer.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), first.ID, second.ID)
	assert.Equal(suite.T(), first.Status, second.Status)
	assert.True(suite.T(), first.TotalAmount.Equal(second.TotalAmount))
	assert.Equal(suite.T(), len(first.Items), len(second.Items))

	_, err = suite.orders.GetOrder(suite.ctx, ids[0], suite.seller.ID)
	assert.ErrorIs(suite.T(), err, services.ErrNotFound)
	_, err = suite.orders.GetOrder(suite.ctx, uuid.New(), suite.buyer.ID)
	assert.ErrorIs(suite.T(), err, services.ErrNotFound)
}

func (suite *OrderServiceTestSuite) TestExtendedViewKeepsDeletedProducts() {
	product := suite.createProduct("Keyboard", "1000", 10)
	_, err := suite.orders.CreateOrder(suite.ctx, suite.buyer.ID, &services.CreateOrderRequest{
		ShippingAddress: validAddress,
		Items:           []services.OrderLineRequest{line(product, 2)},
	})
	suite.Require().NoError(err)

	suite.Require().NoError(suite.products.Delete(suite.ctx, product.ID, suite.seller.ID))

	orders, err := suite.orders.ListOrdersExtended(suite.ctx, suite.buyer.ID)
	suite.Require().NoError(err)
	suite.Require().Len(orders, 1)
	suite.Require().Len(orders[0].Items, 1)

	item := orders[0].Items[0]
	suite.Require().NotNil(item.Product)
	assert.Equal(suite.T(), "Keyboard", item.Product.Name)
	assert.True(suite.T(), item.Subtotal.Equal(decimal.NewFromInt(2000)))
}
