package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/Helvio-Lourenco/projectofinal/internal/dal/rabbitmq"
	"github.com/Helvio-Lourenco/projectofinal/internal/service/models/order"
)

// service represents the service layer interface.
type service interface {
	ProcessOrder(ctx context.Context, ord order.Order) (int64, error)
}

// Consumer receives previously published orders and materializes them through
// the order store. It runs independently of any request's lifecycle.
type Consumer struct {
	client    *rabbitmq.Client
	service   service
	queueName string
	stop      chan struct{}
	done      chan struct{}
}

// NewConsumer creates a new Consumer and declares its queue.
func NewConsumer(client *rabbitmq.Client, service service) *Consumer {
	queueName := viper.GetString("rabbitmq.queue")
	if queueName == "" {
		panic("rabbitmq.queue is not set in config")
	}

	if _, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:    queueName,
		Durable: true,
	}); err != nil {
		panic(err)
	}

	return &Consumer{
		client:    client,
		service:   service,
		queueName: queueName,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Run consumes messages until stopped. A closed delivery channel (transport
// error) re-establishes the subscription with bounded exponential backoff
// instead of terminating the consumer.
func (c *Consumer) Run(ctx context.Context) error {
	defer close(c.done)

	for {
		msgs, err := c.subscribe(ctx)
		if err != nil {
			return err
		}

		if stopped := c.drain(ctx, msgs); stopped {
			return nil
		}

		slog.Warn("Delivery channel closed, re-establishing subscription", "queue", c.queueName)
	}
}

// subscribe declares the queue and opens a delivery channel, retrying with
// exponential backoff on transport errors.
func (c *Consumer) subscribe(ctx context.Context) (<-chan amqp.Delivery, error) {
	consumerTag := viper.GetString("rabbitmq.consumer_tag")
	if consumerTag == "" {
		consumerTag = "oms-consumer"
	}

	maxRetries := viper.GetUint64("rabbitmq.resubscribe.max_retries")
	if maxRetries == 0 {
		maxRetries = 5
	}

	var msgs <-chan amqp.Delivery
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if _, err := c.client.DeclareQueue(rabbitmq.DeclareQueueConfig{
			Name:    c.queueName,
			Durable: true,
		}); err != nil {
			slog.Error("Failed to declare queue, reconnecting", "error", err)
			if rerr := c.client.Reconnect(); rerr != nil {
				slog.Error("Failed to reconnect to RabbitMQ", "error", rerr)
			}

			return retry.RetryableError(err)
		}

		var err error
		msgs, err = c.client.Consume(rabbitmq.ConsumeConfig{
			Queue:    c.queueName,
			Consumer: consumerTag,
		})
		if err != nil {
			slog.Error("Failed to start consuming, reconnecting", "error", err)
			if rerr := c.client.Reconnect(); rerr != nil {
				slog.Error("Failed to reconnect to RabbitMQ", "error", rerr)
			}

			return retry.RetryableError(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Consumer started", "queue", c.queueName, "consumer_tag", consumerTag)

	return msgs, nil
}

// drain fans deliveries out to a bounded worker group. It returns true when
// the consumer was stopped and false when the delivery channel closed.
func (c *Consumer) drain(ctx context.Context, msgs <-chan amqp.Delivery) bool {
	g := &errgroup.Group{}
	g.SetLimit(50)

	for {
		select {
		case <-ctx.Done():
			_ = g.Wait()

			return true
		case <-c.stop:
			slog.Info("Stopping consumer")
			_ = g.Wait()

			return true
		case msg, ok := <-msgs:
			if !ok {
				_ = g.Wait()

				return false
			}

			g.Go(func() error {
				// Failures are logged per event and never stop the group.
				c.processDelivery(ctx, msg)

				return nil
			})
		}
	}
}

// processDelivery handles a single delivery: unmarshal, persist, ack.
// Malformed payloads are rejected without requeue; persistence failures are
// requeued so the broker redelivers them (at-least-once).
func (c *Consumer) processDelivery(ctx context.Context, msg amqp.Delivery) {
	ctx, span := otel.Tracer("consumer").Start(ctx, "Consumer.processDelivery")
	defer span.End()

	slog.InfoContext(ctx, "Received message", "delivery_tag", msg.DeliveryTag)

	var ord order.Order
	if err := json.Unmarshal(msg.Body, &ord); err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal order", "error", err)
		if err := msg.Nack(false, false); err != nil {
			slog.ErrorContext(ctx, "Failed to nack message", "error", err)
		}

		return
	}

	id, err := c.service.ProcessOrder(ctx, ord)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to persist order from broker", "error", err)
		if err := msg.Nack(false, true); err != nil {
			slog.ErrorContext(ctx, "Failed to nack message", "error", err)
		}

		return
	}

	if err := msg.Ack(false); err != nil {
		slog.ErrorContext(ctx, "Failed to ack message", "error", err)

		return
	}

	slog.InfoContext(ctx, "Order persisted from broker", "order_id", id)
}

// Shutdown gracefully shuts down the consumer.
func (c *Consumer) Shutdown() error {
	slog.Info("Shutting down consumer")
	close(c.stop)

	select {
	case <-c.done:
		slog.Info("Consumer stopped successfully")
	case <-time.After(10 * time.Second):
		slog.Warn("Consumer shutdown timeout")
	}

	return nil
}
