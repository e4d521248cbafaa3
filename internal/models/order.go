package models

import "time"

// OrderStatus represents the fulfilment state of an order
type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderPreparing      OrderStatus = "preparing"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderReadyForPickup OrderStatus = "ready_for_pickup"
	OrderCompleted      OrderStatus = "completed"
	OrderCancelled      OrderStatus = "cancelled"
)

// orderTransitions lists the statuses each status may move to
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:        {OrderConfirmed, OrderCancelled},
	OrderConfirmed:      {OrderPreparing, OrderCancelled},
	OrderPreparing:      {OrderOutForDelivery, OrderReadyForPickup, OrderCancelled},
	OrderOutForDelivery: {OrderCompleted, OrderCancelled},
	OrderReadyForPickup: {OrderCompleted, OrderCancelled},
}

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderPreparing, OrderOutForDelivery,
		OrderReadyForPickup, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an order may move from s to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentStatus tracks the external payment for an order
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

// Fulfillment is how an order reaches the customer
type Fulfillment string

const (
	FulfillmentDelivery Fulfillment = "delivery"
	FulfillmentPickup   Fulfillment = "pickup"
)

// Customer is a storefront buyer, identified by email
type Customer struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"not null;uniqueIndex"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Orders []Order `json:"orders,omitempty" gorm:"foreignKey:CustomerID"`
}

// Order is a placed storefront order
type Order struct {
	ID               uint          `json:"id" gorm:"primaryKey"`
	OrderNumber      string        `json:"orderNumber" gorm:"not null;uniqueIndex"`
	CustomerID       uint          `json:"customerId" gorm:"not null;index"`
	Status           OrderStatus   `json:"status" gorm:"not null;default:'pending';index"`
	Fulfillment      Fulfillment   `json:"fulfillment" gorm:"not null"`
	DeliveryAddress  *string       `json:"deliveryAddress,omitempty"`
	Notes            *string       `json:"notes,omitempty"`
	Subtotal         float64       `json:"subtotal" gorm:"type:numeric(10,2);not null"`
	DeliveryFee      float64       `json:"deliveryFee" gorm:"type:numeric(10,2);not null"`
	Total            float64       `json:"total" gorm:"type:numeric(10,2);not null"`
	PaymentStatus    PaymentStatus `json:"paymentStatus" gorm:"not null;default:'unpaid'"`
	PaymentReference *string       `json:"paymentReference,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`

	Customer *Customer  `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Items    []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem is one line of an order with the product snapshotted
type OrderItem struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	OrderID     uint    `json:"orderId" gorm:"not null;index"`
	ProductID   uint    `json:"productId" gorm:"not null"`
	ProductName string  `json:"productName" gorm:"not null"`
	UnitPrice   float64 `json:"unitPrice" gorm:"type:numeric(10,2);not null"`
	Quantity    int     `json:"quantity" gorm:"not null"`
	LineTotal   float64 `json:"lineTotal" gorm:"type:numeric(10,2);not null"`
}

func (Customer) TableName() string  { return "customers" }
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

// CheckoutCustomer is the buyer block of a checkout request
type CheckoutCustomer struct {
	Name    string  `json:"name" binding:"required,notblank"`
	Email   string  `json:"email" binding:"required,email"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// CheckoutItem is one cart line
type CheckoutItem struct {
	ProductID uint `json:"productId" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// PlaceOrderRequest is the storefront checkout body
type PlaceOrderRequest struct {
	Customer        CheckoutCustomer `json:"customer" binding:"required"`
	Fulfillment     Fulfillment      `json:"fulfillment" binding:"required,oneof=delivery pickup"`
	DeliveryAddress *string          `json:"deliveryAddress,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	Items           []CheckoutItem   `json:"items" binding:"required,min=1,dive"`
}

// UpdateOrderStatusRequest moves an order to a new status
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}

// PaymentEvent is published by the payment integration
type PaymentEvent struct {
	EventType   string    `json:"eventType"`
	OrderNumber string    `json:"orderNumber"`
	Reference   string    `json:"reference,omitempty"`
	Amount      float64   `json:"amount,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
