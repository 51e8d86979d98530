package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "fixify"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultRateLimitRequests = 120
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 8 * 1024 * 1024 // base64 profile images ride in JSON bodies

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultPlatformFeeRate    = 0.10
	DefaultStrictTransitions  = false
	DefaultServiceArea        = "Angeles City Center"
	DefaultMaxImageBytes      = 5 * 1024 * 1024
	DefaultAdminSearchLimit   = 200
	DefaultRecentActivitySize = 10

	NotificationTransportInline = "inline"
	NotificationTransportKafka  = "kafka"

	DefaultNotificationTransport = NotificationTransportInline
	DefaultNotificationQueueSize = 1024
	DefaultNotificationWorkers   = 4

	DefaultRedisDB = 0
)
