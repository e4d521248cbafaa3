package subscribers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const (
	PaymentStream   = "PAYMENT_EVENTS"
	paymentSubjects = "payment.>"
	paymentDurable  = "catalog-service-payments"
)

// PaymentHandler applies a decoded payment event to an order
type PaymentHandler interface {
	ApplyPaymentEvent(ctx context.Context, event models.PaymentEvent) error
}

// PaymentSubscriber consumes payment outcomes from the payment integration
type PaymentSubscriber struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	sub     *nats.Subscription
	handler PaymentHandler
	logger  *logrus.Entry
	cancel  context.CancelFunc
}

// NewPaymentSubscriber connects to NATS and makes sure the payment stream exists
func NewPaymentSubscriber(natsURL string, handler PaymentHandler, logger *logrus.Logger) (*PaymentSubscriber, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("catalog-service-payment-subscriber"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := js.StreamInfo(PaymentStream); err != nil {
		if _, err := js.AddStream(&nats.StreamConfig{
			Name:     PaymentStream,
			Subjects: []string{paymentSubjects},
			MaxAge:   7 * 24 * time.Hour,
		}); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return &PaymentSubscriber{
		conn:    conn,
		js:      js,
		handler: handler,
		logger:  logger.WithField("component", "payment-subscriber"),
	}, nil
}

// Start begins consuming payment events
func (s *PaymentSubscriber) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.logger.Info("Starting payment event subscription...")

	sub, err := s.js.QueueSubscribe(paymentSubjects, paymentDurable, func(msg *nats.Msg) {
		if s.handleMessage(ctx, msg.Subject, msg.Data) {
			_ = msg.Ack()
			return
		}
		_ = msg.Nak()
	},
		nats.Durable(paymentDurable),
		nats.ManualAck(),
		nats.DeliverNew(),
		nats.MaxDeliver(3),
		nats.AckWait(30*time.Second),
	)
	if err != nil {
		cancel()
		return err
	}
	s.sub = sub

	s.logger.WithField("subject", paymentSubjects).Info("Payment subscriber started successfully")
	return nil
}

// handleMessage reports whether the message is done with. Only transient
// failures ask for redelivery.
func (s *PaymentSubscriber) handleMessage(ctx context.Context, subject string, data []byte) bool {
	var event models.PaymentEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.WithError(err).WithField("subject", subject).Warn("Dropping malformed payment event")
		return true
	}
	if event.EventType == "" {
		event.EventType = subject
	}

	log := s.logger.WithFields(logrus.Fields{
		"event_type":   event.EventType,
		"order_number": event.OrderNumber,
	})
	log.Info("Received payment event")

	err := s.handler.ApplyPaymentEvent(ctx, event)
	switch {
	case err == nil:
		log.Info("Payment event applied")
		return true
	case errors.Is(err, services.ErrUnknownPaymentEvent):
		log.Debug("Ignoring unhandled payment event type")
		return true
	case errors.Is(err, repository.ErrOrderNotFound):
		log.Warn("Payment event for unknown order")
		return true
	default:
		log.WithError(err).Error("Failed to apply payment event")
		return false
	}
}

// Stop drains the subscription and closes the connection
func (s *PaymentSubscriber) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	if s.conn != nil {
		s.conn.Close()
	}
	s.logger.Info("Payment subscriber stopped")
}
