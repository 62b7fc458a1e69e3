package rabbitmq

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/streadway/amqp"
)

// Client represents a RabbitMQ client.
type Client struct {
	mu      sync.Mutex
	url     string
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Configured reports whether the environment carries enough broker
// configuration to open a connection. When it is false the application runs
// in local-only mode and never dials the broker.
func Configured() bool {
	return os.Getenv("RABBITMQ_URL") != ""
}

// NewClient connects to RabbitMQ using the RABBITMQ_URL connection string.
func NewClient() (*Client, error) {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is not set")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		if cerr := conn.Close(); cerr != nil {
			slog.Error("Failed to close RabbitMQ connection", "error", cerr)
		}

		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	slog.Info("RabbitMQ connected")

	return &Client{
		url:     url,
		conn:    conn,
		channel: channel,
	}, nil
}

// Channel returns the underlying AMQP channel.
func (r *Client) Channel() *amqp.Channel {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.channel
}

// Connection returns the underlying AMQP connection.
func (r *Client) Connection() *amqp.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.conn
}

// Close closes the channel and connection for graceful shutdown.
func (r *Client) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			return err
		}
	}
	if r.conn != nil {
		return r.conn.Close()
	}

	return nil
}

// Reconnect drops the current connection and dials the broker again. Used by
// the consumer when its delivery channel closes underneath it.
func (r *Client) Reconnect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}

	conn, err := amqp.Dial(r.url)
	if err != nil {
		return fmt.Errorf("failed to reconnect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()

		return fmt.Errorf("failed to reopen a channel: %w", err)
	}

	r.conn = conn
	r.channel = channel

	return nil
}

type DeclareQueueConfig struct {
	Name       string
	Durable    bool
	AutoDelete bool
	Exclusive  bool
	NoWait     bool
	Args       amqp.Table
}

// DeclareQueue declares a queue with the given configuration.
func (r *Client) DeclareQueue(cfg DeclareQueueConfig) (amqp.Queue, error) {
	return r.Channel().QueueDeclare(
		cfg.Name,
		cfg.Durable,
		cfg.AutoDelete,
		cfg.Exclusive,
		cfg.NoWait,
		cfg.Args,
	)
}

type ConsumeConfig struct {
	Queue     string
	Consumer  string
	AutoAck   bool
	Exclusive bool
	NoLocal   bool
	NoWait    bool
	Args      amqp.Table
}

// Consume starts consuming messages from the queue.
func (r *Client) Consume(cfg ConsumeConfig) (<-chan amqp.Delivery, error) {
	return r.Channel().Consume(
		cfg.Queue,
		cfg.Consumer,
		cfg.AutoAck,
		cfg.Exclusive,
		cfg.NoLocal,
		cfg.NoWait,
		cfg.Args,
	)
}

type PublishConfig struct {
	Exchange    string
	RoutingKey  string
	ContentType string
	Body        []byte
}

// Publish sends a single persistent message.
func (r *Client) Publish(cfg PublishConfig) error {
	return r.Channel().Publish(
		cfg.Exchange,
		cfg.RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  cfg.ContentType,
			DeliveryMode: amqp.Persistent,
			Body:         cfg.Body,
		},
	)
}
