package rabbitmqpub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Helvio-Lourenco/projectofinal/internal/dal/rabbitmq"
	"github.com/Helvio-Lourenco/projectofinal/internal/service/models/order"
	"github.com/spf13/viper"
)

// Publisher relays orders to the configured RabbitMQ queue.
type Publisher struct {
	client *rabbitmq.Client
	queue  string
}

// MustNewPublisher creates a new Publisher and declares its queue.
func MustNewPublisher(client *rabbitmq.Client) *Publisher {
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

	return &Publisher{
		client: client,
		queue:  queueName,
	}
}

// Publish serializes the order and sends it as a single message. The payload
// keeps the exact JSON shape of the HTTP request body.
func (p *Publisher) Publish(_ context.Context, ord order.Order) error {
	body, err := json.Marshal(ord)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	if err := p.client.Publish(rabbitmq.PublishConfig{
		RoutingKey:  p.queue,
		ContentType: "application/json",
		Body:        body,
	}); err != nil {
		return fmt.Errorf("failed to publish order: %w", err)
	}

	return nil
}
