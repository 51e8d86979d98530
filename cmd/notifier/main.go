package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	notificationrepo "fixify/internal/notifications/repository"
	"fixify/internal/notifications/worker"
	"fixify/pkg/app"
	"fixify/pkg/config"
	"fixify/pkg/kafka"
	kafka_config "fixify/pkg/kafka/config"
	kafkamw "fixify/pkg/kafka/middleware"
	"fixify/pkg/metrics"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
)

const ServiceName = "fixify-notifier"

func main() {
	_ = godotenv.Load(".env")

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	store := notificationrepo.NewMongoNotificationRepository(cfg)
	w := worker.New(store, cfg.Log)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		kafkaCfg.NotificationTopic,
		kafkaCfg.NotifierGroupID,
		kafkaCfg.NotificationDLQTopic,
		w.Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafkamw.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(kafkamw.MetricsConsumerMiddleware())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := opsServer(cfg)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cfg.Log.Error("Ops server failed", "error", err)
		}
	}()

	cfg.Log.Info("Starting notification consumer",
		"topic", kafkaCfg.NotificationTopic,
		"group_id", kafkaCfg.NotifierGroupID,
		"dlq_topic", kafkaCfg.NotificationDLQTopic,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Notification consumer stopped", "error", err)
	}

	cfg.Log.Info("Shutting down notification consumer")
	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		cfg.Log.Error("Ops server shutdown failed", "error", err)
	}
}

// opsServer exposes health and Prometheus metrics for the consumer process.
func opsServer(cfg *config.Config) *http.Server {
	router := httprouter.New()
	app.NewHealthHandler(cfg.Client.Mongo, cfg.Log).RegisterRoutes(router)
	router.Handler(http.MethodGet, "/metrics", metrics.Handler())

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
