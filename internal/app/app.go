package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/Helvio-Lourenco/projectofinal/internal/dal/postgres"
	"github.com/Helvio-Lourenco/projectofinal/internal/dal/rabbitmq"
	orderrepo "github.com/Helvio-Lourenco/projectofinal/internal/dal/repositories/order/postgres"
	productrepo "github.com/Helvio-Lourenco/projectofinal/internal/dal/repositories/product/postgres"
	rabbitmqpub "github.com/Helvio-Lourenco/projectofinal/internal/dal/repositories/publisher/rabbitmq"
	"github.com/Helvio-Lourenco/projectofinal/internal/otel"
	"github.com/Helvio-Lourenco/projectofinal/internal/service/services/ordersvc"
	"github.com/Helvio-Lourenco/projectofinal/internal/transport/consumer"
	httptransport "github.com/Helvio-Lourenco/projectofinal/internal/transport/http"
)

// App represents the application.
type App struct {
	orderSvc       *ordersvc.OrderService
	transport      *httptransport.HTTPTransport
	consumerTransp *consumer.Consumer
	postgresClient *postgres.Client
	rabbitMqClient *rabbitmq.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application. The broker side is optional: without
// a connection string and queue name the app serves orders in local-only
// mode, persisting every order directly.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()
	postgresClient := postgres.MustNewClient()

	orderRepository := orderrepo.NewPostgresOrderRepository(postgresClient)
	productRepository := productrepo.NewPostgresProductRepository(postgresClient)

	var rabbitMqClient *rabbitmq.Client
	var publisher ordersvc.Publisher
	if rabbitmq.Configured() && viper.GetString("rabbitmq.queue") != "" {
		client, err := rabbitmq.NewClient()
		if err != nil {
			slog.Error("Failed to initialize RabbitMQ, using local database only", "error", err)
		} else {
			rabbitMqClient = client
			publisher = rabbitmqpub.MustNewPublisher(client)
		}
	} else {
		slog.Info("Broker configuration missing, using local database only")
	}

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithOrderRepository(orderRepository),
		ordersvc.WithProductRepository(productRepository),
		ordersvc.WithPublisher(publisher),
		ordersvc.WithPublishTimeout(viper.GetDuration("rabbitmq.publish_timeout")),
	)

	transport := httptransport.NewHTTPTransport(orderSvc)
	transport.RegisterRoutes()

	var consumerTransp *consumer.Consumer
	if rabbitMqClient != nil {
		consumerTransp = consumer.NewConsumer(rabbitMqClient, orderSvc)
	}

	return &App{
		orderSvc:       orderSvc,
		transport:      transport,
		consumerTransp: consumerTransp,
		postgresClient: postgresClient,
		rabbitMqClient: rabbitMqClient,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	if a.consumerTransp != nil {
		go func() {
			slog.Info("Starting consumer")
			if err := a.consumerTransp.Run(ctx); err != nil {
				slog.Error("Consumer error", "error", err)
			}
		}()
	}

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
}

// gracefulShutdown shuts components down sequentially: HTTP server, consumer,
// RabbitMQ, PostgreSQL, and the trace provider.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if a.consumerTransp != nil {
		if err := a.consumerTransp.Shutdown(); err != nil {
			slog.Error("Consumer shutdown error", "error", err)
		} else {
			slog.Info("Consumer stopped gracefully")
		}
	}

	if a.rabbitMqClient != nil {
		if err := a.rabbitMqClient.Close(); err != nil {
			slog.Error("RabbitMQ connection close error", "error", err)
		} else {
			slog.Info("RabbitMQ connection closed gracefully")
		}
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Otel trace provider close error", "error", err)
	} else {
		slog.Info("Otel trace provider closed gracefully")
	}

	slog.Info("Application shutdown complete")
}
