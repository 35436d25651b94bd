package rabbitmq

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"bakery-service/config"
	"bakery-service/models"
)

type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
	Cfg     *config.Config
}

func NewRabbitMQ(cfg *config.Config) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &RabbitMQ{
		Conn:    conn,
		Channel: ch,
		Cfg:     cfg,
	}, nil
}

func (r *RabbitMQ) SetupQueues() error {
	// Dead-letter exchange and queue.
	if err := r.Channel.ExchangeDeclare(
		r.Cfg.DeadLetterQueue+"_exchange",
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	_, err := r.Channel.QueueDeclare(
		r.Cfg.DeadLetterQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-queue-type": "classic",
		},
	)
	if err != nil {
		return err
	}

	if err := r.Channel.QueueBind(
		r.Cfg.DeadLetterQueue,
		"",
		r.Cfg.DeadLetterQueue+"_exchange",
		false,
		nil,
	); err != nil {
		return err
	}

	// Order events exchange.
	if err := r.Channel.ExchangeDeclare(
		r.Cfg.OrderExchange,
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	// Delayed exchange for the pending-order confirmation timeout
	// (requires the RabbitMQ delayed-message plugin).
	if err := r.Channel.ExchangeDeclare(
		r.Cfg.DelayExchange,
		"x-delayed-message",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		amqp.Table{"x-delayed-type": "direct"},
	); err != nil {
		zap.S().Warnw("delayed exchange not supported", "error", err)
	}

	// Main order queue with priority and dead-lettering.
	_, err = r.Channel.QueueDeclare(
		r.Cfg.OrderQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-max-priority":            r.Cfg.MaxPriority,
			"x-dead-letter-exchange":    r.Cfg.DeadLetterQueue + "_exchange",
			"x-dead-letter-routing-key": r.Cfg.DeadLetterQueue,
		},
	)
	if err != nil {
		return err
	}

	if err := r.Channel.QueueBind(
		r.Cfg.OrderQueue,
		"",
		r.Cfg.OrderExchange,
		false,
		nil,
	); err != nil {
		return err
	}

	// Delayed events land on the same order queue.
	return r.Channel.QueueBind(
		r.Cfg.OrderQueue,
		"",
		r.Cfg.DelayExchange,
		false,
		nil,
	)
}

// PublishOrderEvent publishes a lifecycle event with the given queue
// priority. Implements services.EventPublisher.
func (r *RabbitMQ) PublishOrderEvent(event models.OrderEvent, priority uint8) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		Body:         body,
		Priority:     priority,
	}

	return r.Channel.Publish(
		r.Cfg.OrderExchange,
		"",
		false, // mandatory
		false, // immediate
		msg,
	)
}

// PublishDelayedEvent publishes an event that the broker holds back for the
// given delay. Used for the pending-order confirmation timeout.
func (r *RabbitMQ) PublishDelayedEvent(event models.OrderEvent, delay time.Duration) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		Body:         body,
		Headers: amqp.Table{
			"x-delay": delay.Milliseconds(),
		},
	}

	return r.Channel.Publish(
		r.Cfg.DelayExchange,
		"",
		false, // mandatory
		false, // immediate
		msg,
	)
}

func (r *RabbitMQ) Close() {
	if r.Channel != nil {
		_ = r.Channel.Close()
	}
	if r.Conn != nil {
		_ = r.Conn.Close()
	}
}
