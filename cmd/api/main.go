package main

import (
	"context"

	adminhandler "fixify/internal/admin/handler"
	adminservice "fixify/internal/admin/service"
	bookinghandler "fixify/internal/bookings/handler"
	bookingrepo "fixify/internal/bookings/repository"
	bookingservice "fixify/internal/bookings/service"
	bookingvalidator "fixify/internal/bookings/validator"
	messagehandler "fixify/internal/messages/handler"
	messagerepo "fixify/internal/messages/repository"
	messageservice "fixify/internal/messages/service"
	"fixify/internal/notifications/dispatcher"
	notificationhandler "fixify/internal/notifications/handler"
	notificationrepo "fixify/internal/notifications/repository"
	notificationservice "fixify/internal/notifications/service"
	providerhandler "fixify/internal/providers/handler"
	providerservice "fixify/internal/providers/service"
	reviewhandler "fixify/internal/reviews/handler"
	reviewrepo "fixify/internal/reviews/repository"
	reviewservice "fixify/internal/reviews/service"
	reviewvalidator "fixify/internal/reviews/validator"
	userhandler "fixify/internal/users/handler"
	userrepo "fixify/internal/users/repository"
	userservice "fixify/internal/users/service"
	uservalidator "fixify/internal/users/validator"
	"fixify/pkg/app"
	"fixify/pkg/auth"
	"fixify/pkg/config"
	"fixify/pkg/contracts"
	"fixify/pkg/kafka"
	kafka_config "fixify/pkg/kafka/config"
	kafkamw "fixify/pkg/kafka/middleware"
	"fixify/pkg/metrics"

	"github.com/joho/godotenv"
)

const ServiceName = "fixify-api"

func main() {
	_ = godotenv.Load(".env")

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	authCfg, err := auth.LoadConfig()
	if err != nil {
		cfg.Log.Fatal("Invalid auth configuration", "error", err)
	}
	tokens := auth.NewTokenIssuer(authCfg)
	passwords := auth.NewPasswordHasher(authCfg.BcryptCost)

	metrics.Register()

	cfg.Log.Info("Starting Fixify API")
	serverApp := app.NewApplication(cfg)

	notifier := initDispatcher(cfg, serverApp)
	handlers := initHandlers(cfg, tokens, passwords, notifier)

	serverApp.SetApp(handlers, tokens)
	serverApp.Run()
}

// initDispatcher picks the notification sink from NOTIFICATION_TRANSPORT and
// registers the dispatcher and any producer for shutdown.
func initDispatcher(cfg *config.Config, serverApp *app.Application) *dispatcher.Dispatcher {
	var (
		sink          dispatcher.Sink
		closeProducer app.ShutdownFunc
	)

	switch cfg.NotificationTransport {
	case config.NotificationTransportKafka:
		kafkaCfg, err := kafka_config.Load()
		if err != nil {
			cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
		}
		kafkaCfg.LogConfiguration(cfg.Log)

		producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.NotificationTopic, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
		}
		producer.Use(kafkamw.LoggingProducerMiddleware(cfg.Log))
		sink = dispatcher.NewKafkaSink(producer)
		closeProducer = func(context.Context) error { return producer.Close() }
	default:
		sink = dispatcher.NewRepositorySink(notificationrepo.NewMongoNotificationRepository(cfg))
	}

	d := dispatcher.New(sink, cfg.NotificationQueueSize, cfg.NotificationWorkers, cfg.WriteTimeout, cfg.Log)
	d.Start()
	serverApp.OnShutdown(d.Stop)
	if closeProducer != nil {
		serverApp.OnShutdown(closeProducer)
	}

	cfg.Log.Info("Notification dispatcher initialized", "transport", cfg.NotificationTransport)
	return d
}

func initHandlers(cfg *config.Config, tokens *auth.TokenIssuer, passwords *auth.PasswordHasher, notifier *dispatcher.Dispatcher) contracts.Group {
	users := userrepo.NewMongoUserRepository(cfg)
	bookings := bookingrepo.NewMongoBookingRepository(cfg)
	reviews := reviewrepo.NewMongoReviewRepository(cfg)
	messages := messagerepo.NewMongoMessageRepository(cfg)
	notifications := notificationrepo.NewMongoNotificationRepository(cfg)

	userService := userservice.NewUserService(users, tokens, passwords, uservalidator.NewUserValidator(cfg.Log), cfg)
	bookingService := bookingservice.NewBookingService(bookings, users, notifier, bookingvalidator.NewBookingValidator(cfg.Log), cfg)
	reviewService := reviewservice.NewReviewService(reviews, bookings, users, notifier, reviewvalidator.NewReviewValidator(cfg.Log), cfg)
	providerService := providerservice.NewProviderService(users, userService, cfg)
	messageService := messageservice.NewMessageService(messages, users, notifier, cfg)
	notificationService := notificationservice.NewNotificationService(notifications, cfg)
	adminService := adminservice.NewAdminService(users, bookings, reviews, reviewService, notifier, cfg)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	return contracts.Group{
		userhandler.NewUserHandler(userService, cfg.Log),
		providerhandler.NewProviderHandler(providerService, cfg.Log),
		bookinghandler.NewBookingHandler(bookingService, cfg.Log),
		reviewhandler.NewReviewHandler(reviewService, cfg.Log),
		messagehandler.NewMessageHandler(messageService, cfg.Log),
		notificationhandler.NewNotificationHandler(notificationService, cfg.Log),
		adminhandler.NewAdminHandler(adminService, cfg.Log),
	}
}
