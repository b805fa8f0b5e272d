package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "slotkeeper"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 35 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultBusinessTimezone     = "Asia/Kuala_Lumpur"
	DefaultSlotTemplate         = "Morning=09:00-11:00;Midday=11:00-13:00;Afternoon=14:00-16:00;Evening=16:00-18:00"
	DefaultMaxAvailabilityDays  = 31
	DefaultUnknownServiceRemote = true
	DefaultAvailabilityFanOut   = 8
	DefaultSlotGuardTTL         = 2 * time.Minute
	DefaultSlotGuardBackend     = SlotGuardBackendRedis

	DefaultCalendarTimeout       = 10 * time.Second
	DefaultCalendarRatePerSecond = 5
	DefaultCalendarRetryMax      = 5 * time.Second
	DefaultIdentityCacheTTL      = 24 * time.Hour
	DefaultCalendarBackend       = CalendarBackendGoogle

	DefaultCRMBackend = CRMBackendMongo
	DefaultCRMTimeout = 10 * time.Second

	DefaultBookingEventsTopic    = "booking.outcome"
	DefaultPersonnelUpdatesTopic = "personnel.updates"
	DefaultPersonnelConsumerGrp  = "slotkeeper-directory"

	DefaultWorkerConcurrency  = 10
	DefaultIdentityWarmupCron = "@every 30m"
)

const (
	CalendarBackendGoogle = "google"
	CalendarBackendMemory = "memory"

	CRMBackendREST  = "rest"
	CRMBackendMongo = "mongo"

	SlotGuardBackendRedis = "redis"
	SlotGuardBackendMongo = "mongo"
)
