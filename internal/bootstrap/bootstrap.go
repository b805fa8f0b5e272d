// Package bootstrap builds the infrastructure shared by the scheduler API and
// the background worker from the loaded configuration.
package bootstrap

import (
	"context"
	"fmt"

	"slotkeeper/internal/calendar"
	"slotkeeper/internal/directory/repository"
	dirservice "slotkeeper/internal/directory/service"
	dirvalidator "slotkeeper/internal/directory/validator"
	"slotkeeper/internal/identity"
	"slotkeeper/pkg/config"
	"slotkeeper/pkg/kafka"
	kafka_config "slotkeeper/pkg/kafka/config"
	kafkamw "slotkeeper/pkg/kafka/middleware"
	"slotkeeper/pkg/retry"
	"slotkeeper/pkg/sanitizer"

	"github.com/hibiken/asynq"
)

// Calendar returns the configured calendar provider.
func Calendar(cfg *config.Config) (calendar.Provider, error) {
	switch cfg.CalendarBackend {
	case config.CalendarBackendMemory:
		cfg.Log.Warn("Using in-memory calendar, bookings are not persisted")
		return calendar.NewMemory(), nil
	default:
		creds, err := calendar.NewFileCredentials(cfg.GoogleCredentialsFile, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to load calendar credentials: %w", err)
		}
		return calendar.NewGoogle(creds, cfg.BusinessLocation, cfg.CalendarRatePerSecond, cfg.Log), nil
	}
}

// CalendarRetry is the backoff used for every calendar call.
func CalendarRetry(cfg *config.Config) retry.Policy {
	policy := retry.DefaultPolicy()
	policy.MaxElapsed = cfg.CalendarRetryMax
	return policy
}

// Identity builds the email -> calendar id resolver, sharing its cache
// through Redis when a Redis client is connected.
func Identity(cfg *config.Config, lookup identity.Lookup) *identity.Resolver {
	var shared identity.SharedCache
	if cfg.Client.Redis != nil {
		shared = identity.NewRedisCache(cfg.Client.Redis)
	}
	return identity.New(lookup, shared, identity.Options{
		TTL:     cfg.IdentityCacheTTL,
		Timeout: cfg.CalendarTimeout,
		Retry:   CalendarRetry(cfg),
	}, cfg.Log)
}

// Directory wires the Mongo-backed personnel directory.
func Directory(cfg *config.Config) dirservice.DirectoryService {
	repo := repository.NewMongoDirectoryRepository(cfg)
	return dirservice.NewDirectoryService(repo, dirvalidator.NewDirectoryValidator(), cfg.Log)
}

// DirectoryEmails lists the normalized email of every active person in the
// current directory.
func DirectoryEmails(ctx context.Context, directory dirservice.DirectoryService) ([]string, error) {
	snap, err := directory.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(snap.Candidates))
	for _, c := range snap.Candidates {
		if c.Active && c.Email != "" {
			emails = append(emails, c.Email)
		}
	}
	return sanitizer.NormalizeEmails(emails), nil
}

// AsynqRedis points the outbox queue at the configured Redis.
func AsynqRedis(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

// Kafka loads the broker configuration. A nil config means Kafka is disabled.
func Kafka(cfg *config.Config) (*kafka_config.Config, error) {
	kcfg, err := kafka_config.Load()
	if err != nil {
		return nil, err
	}
	if !kcfg.Enabled {
		cfg.Log.Warn("Kafka disabled, booking outcomes and personnel updates are not streamed")
		return nil, nil
	}
	kcfg.LogConfiguration(cfg.Log)
	return kcfg, nil
}

// Producer builds an instrumented producer for topic.
func Producer(cfg *config.Config, kcfg *kafka_config.Config, topic string) (*kafka.Producer, error) {
	producer, err := kafka.NewProducer(kcfg, topic, cfg.Log)
	if err != nil {
		return nil, err
	}
	producer.Use(kafkamw.LoggingProducerMiddleware(cfg.Log))
	producer.Use(kafkamw.MetricsProducerMiddleware())
	return producer, nil
}

// Consumer builds an instrumented consumer for topic.
func Consumer(cfg *config.Config, kcfg *kafka_config.Config, topic, group string, handler kafka.MessageHandler) (*kafka.Consumer, error) {
	consumer, err := kafka.NewConsumer(kcfg, topic, group, handler, cfg.Log)
	if err != nil {
		return nil, err
	}
	consumer.Use(kafkamw.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(kafkamw.MetricsConsumerMiddleware())
	return consumer, nil
}
