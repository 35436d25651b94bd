package consumers

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"bakery-service/config"
	"bakery-service/models"
	"bakery-service/services"
)

// StartOrderConsumer drains the order event queue and the dead-letter
// queue. The pending_check events drive the automatic cancellation of
// unconfirmed orders.
func StartOrderConsumer(ch *amqp.Channel, cfg *config.Config, orders *services.OrderService) {
	msgs, err := ch.Consume(
		cfg.OrderQueue,
		"bakery-service", // consumer tag
		false,            // auto-ack
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,
	)
	if err != nil {
		zap.S().Fatalw("failed to register consumer", "error", err)
	}

	go func() {
		for msg := range msgs {
			processOrderMessage(msg, orders)
		}
	}()

	dlqMsgs, err := ch.Consume(
		cfg.DeadLetterQueue,
		"bakery-service-dlq", // consumer tag
		false,                // auto-ack
		false,                // exclusive
		false,                // no-local
		false,                // no-wait
		nil,
	)
	if err != nil {
		zap.S().Errorw("failed to register DLQ consumer", "error", err)
		return
	}

	go func() {
		for msg := range dlqMsgs {
			processDeadLetterMessage(msg)
		}
	}()
}

func processOrderMessage(msg amqp.Delivery, orders *services.OrderService) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Errorw("recovered from panic in message processing", "panic", r)
		}
	}()

	var event models.OrderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		zap.S().Warnw("invalid event payload", "body", string(msg.Body), "error", err)
		_ = msg.Nack(false, false) // reject without requeue, lands in DLQ
		return
	}

	zap.S().Infow("processing order event",
		"order_id", event.OrderID, "type", event.Type, "message_id", msg.MessageId)

	switch event.Type {
	case "created":
		// Placement side effects already ran in the request path; the
		// event exists for downstream consumers.
	case "status_updated":
		handleStatusUpdated(event)
	case "pending_check":
		handlePendingCheck(event, orders)
	default:
		zap.S().Warnw("unknown event type", "type", event.Type)
	}

	_ = msg.Ack(false)
}

func processDeadLetterMessage(msg amqp.Delivery) {
	zap.S().Warnw("received dead letter", "body", string(msg.Body), "message_id", msg.MessageId)
	_ = msg.Ack(false)
}

func handleStatusUpdated(event models.OrderEvent) {
	switch event.Status {
	case models.StatusOutForDelivery:
		zap.S().Infow("order out for delivery", "order_id", event.OrderID)
	case models.StatusDelivered:
		zap.S().Infow("order delivered", "order_id", event.OrderID)
	case models.StatusCancelled:
		zap.S().Infow("order cancelled", "order_id", event.OrderID)
	}
}

// handlePendingCheck cancels the order if it is still PENDING when the
// confirmation window expires. Idempotent: a no-op for any other state.
func handlePendingCheck(event models.OrderEvent, orders *services.OrderService) {
	if err := orders.AutoCancelPending(context.Background(), event.OrderID); err != nil {
		zap.S().Errorw("pending check failed", "order_id", event.OrderID, "error", err)
	}
}
