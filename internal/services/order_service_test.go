package services

import (
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderRepository is a mock implementation of OrderRepositoryInterface
type MockOrderRepository struct {
	mock.Mock
}

// Ensure MockOrderRepository implements the interface
var _ repository.OrderRepositoryInterface = (*MockOrderRepository)(nil)

func (m *MockOrderRepository) CreateWithCustomer(ctx context.Context, order *models.Order, customer *models.Customer) error {
	args := m.Called(ctx, order, customer)
	if args.Error(0) == nil {
		customer.ID = 7
		order.ID = 1
		order.CustomerID = customer.ID
		order.Customer = customer
	}
	return args.Error(0)
}

func (m *MockOrderRepository) List(ctx context.Context, status *models.OrderStatus, limit, offset int) ([]models.Order, int64, error) {
	args := m.Called(ctx, status, limit, offset)
	return args.Get(0).([]models.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) ListCustomers(ctx context.Context, search string, limit, offset int) ([]models.Customer, int64, error) {
	args := m.Called(ctx, search, limit, offset)
	return args.Get(0).([]models.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

// MockProductLookup is a mock implementation of ProductLookup
type MockProductLookup struct {
	mock.Mock
}

func (m *MockProductLookup) GetByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]models.Product), args.Error(1)
}

// MockPublisher records published order events
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishCatalogEvent(ctx context.Context, entity, action string, id uint, name, slug string, metadata map[string]interface{}) error {
	args := m.Called(ctx, entity, action, id, name, slug, metadata)
	return args.Error(0)
}

func (m *MockPublisher) PublishOrderEvent(ctx context.Context, eventType string, order *models.Order) error {
	args := m.Called(ctx, eventType, order)
	return args.Error(0)
}

var testPricing = Pricing{DeliveryFee: 5, FreeDeliveryThreshold: 50}

func newOrderService(repo *MockOrderRepository, products *MockProductLookup, publisher EventPublisher) *OrderService {
	svc := NewOrderService(repo, products, publisher, testPricing, quietLogger())
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }
	return svc
}

func catalogProducts() []models.Product {
	return []models.Product{
		{ID: 1, Name: "Cola", Price: 1.99, Enabled: true},
		{ID: 2, Name: "Chips", Price: 3.50, Enabled: true},
		{ID: 3, Name: "Retired", Price: 9.99, Enabled: false},
	}
}

func checkoutRequest(fulfillment models.Fulfillment, items ...models.CheckoutItem) models.PlaceOrderRequest {
	return models.PlaceOrderRequest{
		Customer:        models.CheckoutCustomer{Name: "Ann", Email: "ann@example.com"},
		Fulfillment:     fulfillment,
		DeliveryAddress: strPtr("1 Main St"),
		Items:           items,
	}
}

func TestPlaceOrder(t *testing.T) {
	t.Run("prices from the database and charges delivery", func(t *testing.T) {
		repo := new(MockOrderRepository)
		products := new(MockProductLookup)
		publisher := new(MockPublisher)
		svc := newOrderService(repo, products, publisher)

		products.On("GetByIDs", mock.Anything, []uint{1, 2}).Return(catalogProducts(), nil)
		repo.On("CreateWithCustomer", mock.Anything, mock.AnythingOfType("*models.Order"), mock.AnythingOfType("*models.Customer")).Return(nil)
		publisher.On("PublishOrderEvent", mock.Anything, "order.placed", mock.Anything).Return(nil)

		order, err := svc.PlaceOrder(context.Background(), checkoutRequest(models.FulfillmentDelivery,
			models.CheckoutItem{ProductID: 1, Quantity: 2},
			models.CheckoutItem{ProductID: 2, Quantity: 1},
			models.CheckoutItem{ProductID: 1, Quantity: 1},
		))

		require.NoError(t, err)
		require.Len(t, order.Items, 2)
		assert.Equal(t, 3, order.Items[0].Quantity)
		assert.Equal(t, 5.97, order.Items[0].LineTotal)
		assert.Equal(t, 9.47, order.Subtotal)
		assert.Equal(t, 5.0, order.DeliveryFee)
		assert.Equal(t, 14.47, order.Total)
		assert.Equal(t, models.OrderPending, order.Status)
		assert.Equal(t, models.PaymentUnpaid, order.PaymentStatus)
		assert.Regexp(t, regexp.MustCompile(`^ORD-20240309-[0-9A-F]{6}$`), order.OrderNumber)
		assert.Equal(t, uint(7), order.CustomerID)
		repo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("waives delivery over the threshold", func(t *testing.T) {
		repo := new(MockOrderRepository)
		products := new(MockProductLookup)
		svc := newOrderService(repo, products, nil)

		products.On("GetByIDs", mock.Anything, []uint{2}).Return(catalogProducts(), nil)
		repo.On("CreateWithCustomer", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		order, err := svc.PlaceOrder(context.Background(), checkoutRequest(models.FulfillmentDelivery,
			models.CheckoutItem{ProductID: 2, Quantity: 20}))

		require.NoError(t, err)
		assert.Equal(t, 70.0, order.Subtotal)
		assert.Equal(t, 0.0, order.DeliveryFee)
		assert.Equal(t, 70.0, order.Total)
	})

	t.Run("pickup has no fee and no address", func(t *testing.T) {
		repo := new(MockOrderRepository)
		products := new(MockProductLookup)
		svc := newOrderService(repo, products, nil)

		products.On("GetByIDs", mock.Anything, []uint{1}).Return(catalogProducts(), nil)
		repo.On("CreateWithCustomer", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		order, err := svc.PlaceOrder(context.Background(), checkoutRequest(models.FulfillmentPickup,
			models.CheckoutItem{ProductID: 1, Quantity: 1}))

		require.NoError(t, err)
		assert.Equal(t, 0.0, order.DeliveryFee)
		assert.Nil(t, order.DeliveryAddress)
		assert.Equal(t, 1.99, order.Total)
	})

	t.Run("rejects disabled products", func(t *testing.T) {
		repo := new(MockOrderRepository)
		products := new(MockProductLookup)
		svc := newOrderService(repo, products, nil)

		products.On("GetByIDs", mock.Anything, []uint{3}).Return(catalogProducts(), nil)

		_, err := svc.PlaceOrder(context.Background(), checkoutRequest(models.FulfillmentPickup,
			models.CheckoutItem{ProductID: 3, Quantity: 1}))

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "PRODUCT_UNAVAILABLE", verr.Code)
		repo.AssertNotCalled(t, "CreateWithCustomer", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("delivery requires an address", func(t *testing.T) {
		svc := newOrderService(new(MockOrderRepository), new(MockProductLookup), nil)
		req := checkoutRequest(models.FulfillmentDelivery, models.CheckoutItem{ProductID: 1, Quantity: 1})
		req.DeliveryAddress = nil

		_, err := svc.PlaceOrder(context.Background(), req)
		assertValidation(t, err, "deliveryAddress", "")
	})

	t.Run("rejects bad quantities", func(t *testing.T) {
		svc := newOrderService(new(MockOrderRepository), new(MockProductLookup), nil)

		_, err := svc.PlaceOrder(context.Background(), checkoutRequest(models.FulfillmentPickup,
			models.CheckoutItem{ProductID: 1, Quantity: 0}))
		assertValidation(t, err, "items", "")

		_, err = svc.PlaceOrder(context.Background(), checkoutRequest(models.FulfillmentPickup))
		assertValidation(t, err, "items", "")
	})
}

func TestUpdateStatus(t *testing.T) {
	t.Run("follows the fulfilment flow", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := newOrderService(repo, new(MockProductLookup), nil)

		order := &models.Order{ID: 1, Status: models.OrderPreparing, Fulfillment: models.FulfillmentDelivery}
		repo.On("GetByID", mock.Anything, uint(1)).Return(order, nil)
		repo.On("Save", mock.Anything, order).Return(nil)

		updated, err := svc.UpdateStatus(context.Background(), 1, models.OrderOutForDelivery)
		require.NoError(t, err)
		assert.Equal(t, models.OrderOutForDelivery, updated.Status)
		repo.AssertExpectations(t)
	})

	t.Run("rejects skipping steps", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := newOrderService(repo, new(MockProductLookup), nil)

		repo.On("GetByID", mock.Anything, uint(1)).Return(&models.Order{ID: 1, Status: models.OrderPending}, nil)

		_, err := svc.UpdateStatus(context.Background(), 1, models.OrderCompleted)
		var conflict *ConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, "INVALID_STATUS_TRANSITION", conflict.Code)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("pickup orders cannot go out for delivery", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := newOrderService(repo, new(MockProductLookup), nil)

		repo.On("GetByID", mock.Anything, uint(1)).Return(&models.Order{ID: 1, Status: models.OrderPreparing, Fulfillment: models.FulfillmentPickup}, nil)

		_, err := svc.UpdateStatus(context.Background(), 1, models.OrderOutForDelivery)
		var conflict *ConflictError
		assert.True(t, errors.As(err, &conflict))
	})

	t.Run("unknown status", func(t *testing.T) {
		svc := newOrderService(new(MockOrderRepository), new(MockProductLookup), nil)
		_, err := svc.UpdateStatus(context.Background(), 1, models.OrderStatus("lost"))
		assertValidation(t, err, "status", "")
	})

	t.Run("missing order", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := newOrderService(repo, new(MockProductLookup), nil)
		repo.On("GetByID", mock.Anything, uint(9)).Return(nil, repository.ErrOrderNotFound)

		_, err := svc.UpdateStatus(context.Background(), 9, models.OrderConfirmed)
		assert.ErrorIs(t, err, repository.ErrOrderNotFound)
	})
}

func TestApplyPaymentEvent(t *testing.T) {
	t.Run("captured payment confirms a pending order", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := newOrderService(repo, new(MockProductLookup), nil)

		order := &models.Order{ID: 1, OrderNumber: "ORD-1", Status: models.OrderPending, PaymentStatus: models.PaymentUnpaid}
		repo.On("GetByNumber", mock.Anything, "ORD-1").Return(order, nil)
		repo.On("Save", mock.Anything, order).Return(nil)

		err := svc.ApplyPaymentEvent(context.Background(), models.PaymentEvent{EventType: PaymentCaptured, OrderNumber: "ORD-1", Reference: "clv_123"})
		require.NoError(t, err)
		assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
		assert.Equal(t, models.OrderConfirmed, order.Status)
		require.NotNil(t, order.PaymentReference)
		assert.Equal(t, "clv_123", *order.PaymentReference)
	})

	t.Run("refund keeps the fulfilment status", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := newOrderService(repo, new(MockProductLookup), nil)

		order := &models.Order{ID: 1, OrderNumber: "ORD-2", Status: models.OrderCompleted, PaymentStatus: models.PaymentPaid}
		repo.On("GetByNumber", mock.Anything, "ORD-2").Return(order, nil)
		repo.On("Save", mock.Anything, order).Return(nil)

		require.NoError(t, svc.ApplyPaymentEvent(context.Background(), models.PaymentEvent{EventType: PaymentRefunded, OrderNumber: "ORD-2"}))
		assert.Equal(t, models.PaymentRefunded, order.PaymentStatus)
		assert.Equal(t, models.OrderCompleted, order.Status)
	})

	t.Run("unknown event type", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := newOrderService(repo, new(MockProductLookup), nil)
		repo.On("GetByNumber", mock.Anything, "ORD-3").Return(&models.Order{OrderNumber: "ORD-3"}, nil)

		err := svc.ApplyPaymentEvent(context.Background(), models.PaymentEvent{EventType: "payment.disputed", OrderNumber: "ORD-3"})
		assert.ErrorIs(t, err, ErrUnknownPaymentEvent)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}
