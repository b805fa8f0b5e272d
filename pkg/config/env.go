package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvPort      = "SERVER_PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvBusinessTimezone      = "BUSINESS_TIMEZONE"
	EnvSlotTemplate          = "SLOT_TEMPLATE"
	EnvMaxAvailabilityDays   = "MAX_AVAILABILITY_DAYS"
	EnvUnknownServiceRemote  = "UNKNOWN_SERVICE_AS_REMOTE"
	EnvAvailabilityFanOut    = "AVAILABILITY_FAN_OUT"
	EnvSlotGuardTTL          = "SLOT_GUARD_TTL"
	EnvSlotGuardBackend      = "SLOT_GUARD_BACKEND"
	EnvCalendarTimeout       = "CALENDAR_TIMEOUT"
	EnvCalendarRatePerSecond = "CALENDAR_RATE_PER_SECOND"
	EnvCalendarRetryMax      = "CALENDAR_RETRY_MAX_ELAPSED"
	EnvIdentityCacheTTL      = "IDENTITY_CACHE_TTL"
	EnvGoogleCredentialsFile = "GOOGLE_CREDENTIALS_FILE"
	EnvCalendarBackend       = "CALENDAR_BACKEND"

	EnvCRMBackend  = "CRM_BACKEND"
	EnvCRMBaseURL  = "CRM_BASE_URL"
	EnvCRMAPIToken = "CRM_API_TOKEN"
	EnvCRMTimeout  = "CRM_TIMEOUT"

	EnvBookingEventsTopic    = "BOOKING_EVENTS_TOPIC"
	EnvPersonnelUpdatesTopic = "PERSONNEL_UPDATES_TOPIC"
	EnvPersonnelConsumerGrp  = "PERSONNEL_CONSUMER_GROUP"

	EnvWorkerConcurrency  = "WORKER_CONCURRENCY"
	EnvIdentityWarmupCron = "IDENTITY_WARMUP_CRON"
)
