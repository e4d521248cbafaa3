package services

import (
	"catalog-service/internal/events"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Payment event types consumed from the payment integration
const (
	PaymentCaptured = "payment.captured"
	PaymentFailed   = "payment.failed"
	PaymentRefunded = "payment.refunded"
)

var ErrUnknownPaymentEvent = errors.New("unknown payment event type")

// ProductLookup loads products by id for pricing
type ProductLookup interface {
	GetByIDs(ctx context.Context, ids []uint) ([]models.Product, error)
}

// Pricing holds the delivery charge rules
type Pricing struct {
	DeliveryFee           float64
	FreeDeliveryThreshold float64
}

// OrderService handles checkout and order fulfilment
type OrderService struct {
	repo      repository.OrderRepositoryInterface
	products  ProductLookup
	publisher EventPublisher
	pricing   Pricing
	logger    *logrus.Entry
	now       func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(repo repository.OrderRepositoryInterface, products ProductLookup, publisher EventPublisher, pricing Pricing, logger *logrus.Logger) *OrderService {
	return &OrderService{
		repo:      repo,
		products:  products,
		publisher: publisher,
		pricing:   pricing,
		logger:    logger.WithField("component", "services.order"),
		now:       time.Now,
	}
}

// PlaceOrder prices the cart from the database and stores a pending order
func (s *OrderService) PlaceOrder(ctx context.Context, req models.PlaceOrderRequest) (*models.Order, error) {
	name := strings.TrimSpace(req.Customer.Name)
	if name == "" {
		return nil, newValidationError("customer.name", MsgNameRequired)
	}
	email := strings.TrimSpace(req.Customer.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, newValidationError("customer.email", "a valid email is required")
	}
	if req.Fulfillment != models.FulfillmentDelivery && req.Fulfillment != models.FulfillmentPickup {
		return nil, newValidationError("fulfillment", "fulfillment must be delivery or pickup")
	}

	deliveryAddress := emptyToNil(req.DeliveryAddress)
	if req.Fulfillment == models.FulfillmentDelivery {
		if deliveryAddress == nil {
			deliveryAddress = emptyToNil(req.Customer.Address)
		}
		if deliveryAddress == nil {
			return nil, newValidationError("deliveryAddress", "a delivery address is required for delivery orders")
		}
	} else {
		deliveryAddress = nil
	}

	quantities, productIDs, err := mergeItems(req.Items)
	if err != nil {
		return nil, err
	}

	products, err := s.products.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	order := &models.Order{
		Status:          models.OrderPending,
		Fulfillment:     req.Fulfillment,
		DeliveryAddress: deliveryAddress,
		Notes:           emptyToNil(req.Notes),
		PaymentStatus:   models.PaymentUnpaid,
	}
	for _, id := range productIDs {
		product, ok := byID[id]
		if !ok || !product.Enabled {
			return nil, &ValidationError{
				Code:    "PRODUCT_UNAVAILABLE",
				Field:   "items",
				Message: fmt.Sprintf("product %d is not available", id),
			}
		}
		qty := quantities[id]
		lineTotal := roundCents(product.Price * float64(qty))
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    qty,
			LineTotal:   lineTotal,
		})
		order.Subtotal += lineTotal
	}
	order.Subtotal = roundCents(order.Subtotal)
	order.DeliveryFee = s.deliveryFee(req.Fulfillment, order.Subtotal)
	order.Total = roundCents(order.Subtotal + order.DeliveryFee)
	order.OrderNumber = s.orderNumber()

	customer := &models.Customer{
		Name:    name,
		Email:   email,
		Phone:   emptyToNil(req.Customer.Phone),
		Address: emptyToNil(req.Customer.Address),
	}
	if err := s.repo.CreateWithCustomer(ctx, order, customer); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_number": order.OrderNumber,
		"customer_id":  order.CustomerID,
		"total":        order.Total,
	}).Info("Order placed")
	s.publish(ctx, events.OrderPlaced, order)
	return order, nil
}

// ListOrders returns a page of orders, optionally filtered by status
func (s *OrderService) ListOrders(ctx context.Context, status string, limit, offset int) ([]models.Order, int64, error) {
	var filter *models.OrderStatus
	if status != "" {
		st := models.OrderStatus(status)
		if !st.Valid() {
			return nil, 0, newValidationError("status", fmt.Sprintf("unknown order status %q", status))
		}
		filter = &st
	}
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateStatus moves an order along its fulfilment flow
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, newValidationError("status", fmt.Sprintf("unknown order status %q", status))
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, newConflictError("INVALID_STATUS_TRANSITION", "cannot move order from %s to %s", order.Status, status)
	}
	if status == models.OrderOutForDelivery && order.Fulfillment != models.FulfillmentDelivery {
		return nil, newConflictError("INVALID_STATUS_TRANSITION", "pickup orders cannot go out for delivery")
	}
	if status == models.OrderReadyForPickup && order.Fulfillment != models.FulfillmentPickup {
		return nil, newConflictError("INVALID_STATUS_TRANSITION", "delivery orders cannot be ready for pickup")
	}

	order.Status = status
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, err
	}
	s.publish(ctx, events.OrderStatusChanged, order)
	return order, nil
}

// ApplyPaymentEvent records the outcome of an external payment. A captured
// payment also confirms a pending order.
func (s *OrderService) ApplyPaymentEvent(ctx context.Context, event models.PaymentEvent) error {
	order, err := s.repo.GetByNumber(ctx, event.OrderNumber)
	if err != nil {
		return err
	}

	switch event.EventType {
	case PaymentCaptured:
		order.PaymentStatus = models.PaymentPaid
		if order.Status == models.OrderPending {
			order.Status = models.OrderConfirmed
		}
	case PaymentFailed:
		order.PaymentStatus = models.PaymentFailed
	case PaymentRefunded:
		order.PaymentStatus = models.PaymentRefunded
	default:
		return fmt.Errorf("%w: %s", ErrUnknownPaymentEvent, event.EventType)
	}
	if event.Reference != "" {
		ref := event.Reference
		order.PaymentReference = &ref
	}

	if err := s.repo.Save(ctx, order); err != nil {
		return err
	}
	s.publish(ctx, events.OrderPaymentUpdated, order)
	return nil
}

func (s *OrderService) ListCustomers(ctx context.Context, search string, limit, offset int) ([]models.Customer, int64, error) {
	return s.repo.ListCustomers(ctx, search, limit, offset)
}

func (s *OrderService) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

func (s *OrderService) deliveryFee(fulfillment models.Fulfillment, subtotal float64) float64 {
	if fulfillment != models.FulfillmentDelivery {
		return 0
	}
	if s.pricing.FreeDeliveryThreshold > 0 && subtotal >= s.pricing.FreeDeliveryThreshold {
		return 0
	}
	return roundCents(s.pricing.DeliveryFee)
}

// orderNumber builds ORD-YYYYMMDD-XXXXXX
func (s *OrderService) orderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", s.now().UTC().Format("20060102"), suffix)
}

func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(ctx, eventType, order); err != nil {
		s.logger.WithError(err).WithField("order_number", order.OrderNumber).Warn("Failed to publish order event")
	}
}

// mergeItems sums quantities of repeated products, keeping first-seen order
func mergeItems(items []models.CheckoutItem) (map[uint]int, []uint, error) {
	if len(items) == 0 {
		return nil, nil, newValidationError("items", "at least one item is required")
	}
	quantities := make(map[uint]int, len(items))
	var ids []uint
	for _, item := range items {
		if item.ProductID == 0 {
			return nil, nil, newValidationError("items", "productId is required")
		}
		if item.Quantity < 1 {
			return nil, nil, newValidationError("items", "quantity must be at least 1")
		}
		if _, ok := quantities[item.ProductID]; !ok {
			ids = append(ids, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
	}
	return quantities, ids, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
