package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "courtside"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultKafkaBrokers       = "localhost:9092"
	DefaultBookingEventsTopic = "courtside.booking-events"
	DefaultWaitlistTopic      = "courtside.waitlist-triggers"
	DefaultWaitlistGroup      = "courtside-waitlist-processor"

	DefaultPort = "8080"

	// Bound on how long a booking attempt may hold a per-resource lock.
	DefaultLockTTL = 5 * time.Second

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100
)
