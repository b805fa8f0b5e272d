package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"slotkeeper/pkg/client"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	BusinessTimezone       string
	BusinessLocation       *time.Location
	SlotTemplateRaw        string
	SlotTemplate           model.SlotTemplate
	MaxAvailabilityDays    int
	UnknownServiceAsRemote bool
	AvailabilityFanOut     int
	SlotGuardTTL           time.Duration
	SlotGuardBackend       string

	CalendarTimeout       time.Duration
	CalendarRatePerSecond int
	CalendarRetryMax      time.Duration
	IdentityCacheTTL      time.Duration
	GoogleCredentialsFile string
	CalendarBackend       string

	CRMBackend  string
	CRMBaseURL  string
	CRMAPIToken string
	CRMTimeout  time.Duration

	BookingEventsTopic     string
	PersonnelUpdatesTopic  string
	PersonnelConsumerGroup string

	WorkerConcurrency  int
	IdentityWarmupCron string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		BusinessTimezone:       getEnvStr(EnvBusinessTimezone, DefaultBusinessTimezone),
		SlotTemplateRaw:        getEnvStr(EnvSlotTemplate, DefaultSlotTemplate),
		MaxAvailabilityDays:    getEnvNum(EnvMaxAvailabilityDays, DefaultMaxAvailabilityDays),
		UnknownServiceAsRemote: getEnvBool(EnvUnknownServiceRemote, DefaultUnknownServiceRemote),
		AvailabilityFanOut:     getEnvNum(EnvAvailabilityFanOut, DefaultAvailabilityFanOut),
		SlotGuardTTL:           getEnvDuration(EnvSlotGuardTTL, DefaultSlotGuardTTL),
		SlotGuardBackend:       getEnvStr(EnvSlotGuardBackend, DefaultSlotGuardBackend),

		CalendarTimeout:       getEnvDuration(EnvCalendarTimeout, DefaultCalendarTimeout),
		CalendarRatePerSecond: getEnvNum(EnvCalendarRatePerSecond, DefaultCalendarRatePerSecond),
		CalendarRetryMax:      getEnvDuration(EnvCalendarRetryMax, DefaultCalendarRetryMax),
		IdentityCacheTTL:      getEnvDuration(EnvIdentityCacheTTL, DefaultIdentityCacheTTL),
		GoogleCredentialsFile: getEnvStr(EnvGoogleCredentialsFile, ""),
		CalendarBackend:       getEnvStr(EnvCalendarBackend, DefaultCalendarBackend),

		CRMBackend:  getEnvStr(EnvCRMBackend, DefaultCRMBackend),
		CRMBaseURL:  getEnvStr(EnvCRMBaseURL, ""),
		CRMAPIToken: getEnvStr(EnvCRMAPIToken, ""),
		CRMTimeout:  getEnvDuration(EnvCRMTimeout, DefaultCRMTimeout),

		BookingEventsTopic:     getEnvStr(EnvBookingEventsTopic, DefaultBookingEventsTopic),
		PersonnelUpdatesTopic:  getEnvStr(EnvPersonnelUpdatesTopic, DefaultPersonnelUpdatesTopic),
		PersonnelConsumerGroup: getEnvStr(EnvPersonnelConsumerGrp, DefaultPersonnelConsumerGrp),

		WorkerConcurrency:  getEnvNum(EnvWorkerConcurrency, DefaultWorkerConcurrency),
		IdentityWarmupCron: getEnvStr(EnvIdentityWarmupCron, DefaultIdentityWarmupCron),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    getEnvStr(EnvLogFormat, DefaultLogFormat),
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

// Validate checks every setting and resolves the derived fields
// (business location, slot template). All problems are reported at once.
func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.RedisAddr == "" {
		errors = append(errors, "RedisAddr cannot be empty")
	}

	loc, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		errors = append(errors, fmt.Sprintf("BusinessTimezone is not a valid IANA zone, got: %s", cfg.BusinessTimezone))
	} else {
		cfg.BusinessLocation = loc
	}

	template, err := model.ParseSlotTemplate(cfg.SlotTemplateRaw)
	if err != nil {
		errors = append(errors, fmt.Sprintf("SlotTemplate is invalid: %v", err))
	} else {
		cfg.SlotTemplate = template
	}

	switch cfg.CalendarBackend {
	case CalendarBackendMemory:
	case CalendarBackendGoogle:
		if cfg.GoogleCredentialsFile == "" {
			errors = append(errors, "GoogleCredentialsFile is required when CalendarBackend is 'google'")
		}
	default:
		errors = append(errors, fmt.Sprintf("CalendarBackend must be one of [%s %s], got: %s", CalendarBackendGoogle, CalendarBackendMemory, cfg.CalendarBackend))
	}

	switch cfg.CRMBackend {
	case CRMBackendMongo:
	case CRMBackendREST:
		if cfg.CRMBaseURL == "" {
			errors = append(errors, "CRMBaseURL is required when CRMBackend is 'rest'")
		}
	default:
		errors = append(errors, fmt.Sprintf("CRMBackend must be one of [%s %s], got: %s", CRMBackendREST, CRMBackendMongo, cfg.CRMBackend))
	}

	switch cfg.SlotGuardBackend {
	case SlotGuardBackendRedis, SlotGuardBackendMongo:
	default:
		errors = append(errors, fmt.Sprintf("SlotGuardBackend must be one of [%s %s], got: %s", SlotGuardBackendRedis, SlotGuardBackendMongo, cfg.SlotGuardBackend))
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"SlotGuardTTL", cfg.SlotGuardTTL},
		{"CalendarTimeout", cfg.CalendarTimeout},
		{"CalendarRetryMax", cfg.CalendarRetryMax},
		{"IdentityCacheTTL", cfg.IdentityCacheTTL},
		{"CRMTimeout", cfg.CRMTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	numbers := []struct {
		name  string
		value int
	}{
		{"RateLimitRequests", cfg.RateLimitRequests},
		{"MaxRequestSize", cfg.MaxRequestSize},
		{"MaxAvailabilityDays", cfg.MaxAvailabilityDays},
		{"AvailabilityFanOut", cfg.AvailabilityFanOut},
		{"CalendarRatePerSecond", cfg.CalendarRatePerSecond},
		{"WorkerConcurrency", cfg.WorkerConcurrency},
	}
	for _, n := range numbers {
		if n.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %d", n.name, n.value))
		}
	}

	if cfg.RequestTimeout < cfg.CalendarTimeout {
		errors = append(errors, fmt.Sprintf("RequestTimeout (%s) must be >= CalendarTimeout (%s)", cfg.RequestTimeout, cfg.CalendarTimeout))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"redis_addr", cfg.RedisAddr,
		"redis_db", cfg.RedisDB,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"business_timezone", cfg.BusinessTimezone,
		"slot_template", cfg.SlotTemplateRaw,
		"max_availability_days", cfg.MaxAvailabilityDays,
		"unknown_service_as_remote", cfg.UnknownServiceAsRemote,
		"availability_fan_out", cfg.AvailabilityFanOut,
		"slot_guard_ttl", cfg.SlotGuardTTL,
		"slot_guard_backend", cfg.SlotGuardBackend,
		"calendar_timeout", cfg.CalendarTimeout,
		"calendar_rate_per_second", cfg.CalendarRatePerSecond,
		"identity_cache_ttl", cfg.IdentityCacheTTL,
		"calendar_backend", cfg.CalendarBackend,
		"google_credentials_set", cfg.GoogleCredentialsFile != "",
		"crm_backend", cfg.CRMBackend,
		"crm_base_url", cfg.CRMBaseURL,
		"crm_token_set", cfg.CRMAPIToken != "",
		"crm_timeout", cfg.CRMTimeout,
		"booking_events_topic", cfg.BookingEventsTopic,
		"personnel_updates_topic", cfg.PersonnelUpdatesTopic,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}
