package events

import (
	"catalog-service/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Streams owned by this service
const (
	CatalogStream = "CATALOG_EVENTS"
	OrderStream   = "ORDER_EVENTS"
)

// Catalog actions
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
	ActionReordered = "reordered"
	ActionFeatured  = "featured"
)

// Order event types
const (
	OrderPlaced         = "order.placed"
	OrderStatusChanged  = "order.status_changed"
	OrderPaymentUpdated = "order.payment_updated"
)

// CatalogEvent is published whenever the catalog hierarchy or a product changes
type CatalogEvent struct {
	EventType string                 `json:"eventType"`
	Level     string                 `json:"level"`
	EntityID  uint                   `json:"entityId"`
	Name      string                 `json:"name,omitempty"`
	Slug      string                 `json:"slug,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// OrderEvent is published when an order is placed or changes state
type OrderEvent struct {
	EventType     string    `json:"eventType"`
	OrderID       uint      `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	CustomerID    uint      `json:"customerId"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	Total         float64   `json:"total"`
	Timestamp     time.Time `json:"timestamp"`
}

// CatalogSubject builds the subject for a catalog event, e.g. catalog.product_line.deleted
func CatalogSubject(entity, action string) string {
	return "catalog." + subjectToken(entity) + "." + action
}

func subjectToken(entity string) string {
	if entity == string(models.LevelProductLine) {
		return "product_line"
	}
	return strings.ToLower(entity)
}

// Publisher sends catalog and order events to NATS JetStream. A nil
// Publisher is valid and drops every event.
type Publisher struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *logrus.Entry
}

// NewPublisher connects to NATS and makes sure both streams exist
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("catalog-service-publisher"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open JetStream context: %w", err)
	}

	p := &Publisher{
		conn:   conn,
		js:     js,
		logger: logger.WithField("component", "events.publisher"),
	}

	if err := p.EnsureStream(CatalogStream, []string{"catalog.>"}); err != nil {
		p.logger.WithError(err).Warn("Failed to ensure CATALOG_EVENTS stream")
	}
	if err := p.EnsureStream(OrderStream, []string{"order.>"}); err != nil {
		p.logger.WithError(err).Warn("Failed to ensure ORDER_EVENTS stream")
	}

	return p, nil
}

// EnsureStream creates the stream when it does not exist yet
func (p *Publisher) EnsureStream(name string, subjects []string) error {
	if _, err := p.js.StreamInfo(name); err == nil {
		return nil
	}
	_, err := p.js.AddStream(&nats.StreamConfig{
		Name:     name,
		Subjects: subjects,
		MaxAge:   7 * 24 * time.Hour,
	})
	return err
}

// PublishCatalogEvent publishes a change to a catalog node or product
func (p *Publisher) PublishCatalogEvent(ctx context.Context, entity, action string, id uint, name, slug string, metadata map[string]interface{}) error {
	if p == nil {
		return nil
	}
	subject := CatalogSubject(entity, action)
	return p.publish(ctx, subject, &CatalogEvent{
		EventType: subject,
		Level:     entity,
		EntityID:  id,
		Name:      name,
		Slug:      slug,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	})
}

// PublishOrderEvent publishes the current state of an order
func (p *Publisher) PublishOrderEvent(ctx context.Context, eventType string, order *models.Order) error {
	if p == nil {
		return nil
	}
	return p.publish(ctx, eventType, &OrderEvent{
		EventType:     eventType,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerID:    order.CustomerID,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		Total:         order.Total,
		Timestamp:     time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, subject string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", subject, err)
	}
	if _, err := p.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	p.logger.WithField("subject", subject).Debug("Published event")
	return nil
}

// IsConnected returns true if connected to NATS
func (p *Publisher) IsConnected() bool {
	return p != nil && p.conn != nil && p.conn.IsConnected()
}

// Close closes the publisher connection
func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}
