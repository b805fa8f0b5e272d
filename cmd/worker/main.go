package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"

	"slotkeeper/internal/booking/outbox"
	"slotkeeper/internal/bootstrap"
	"slotkeeper/internal/directory/consumer"
	dirservice "slotkeeper/internal/directory/service"
	"slotkeeper/internal/identity"
	"slotkeeper/pkg/config"
	"slotkeeper/pkg/kafka"
)

const ServiceName = "worker"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Worker service")

	cal, err := bootstrap.Calendar(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize calendar provider", "error", err)
	}
	directory := bootstrap.Directory(cfg)
	resolver := bootstrap.Identity(cfg, cal)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := asynq.NewServer(bootstrap.AsynqRedis(cfg), asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues: map[string]int{
			outbox.QueueCompensation: 1,
		},
	})
	mux := asynq.NewServeMux()
	outbox.NewCompensationHandler(cal, cfg.Log).Register(mux)
	if err := srv.Start(mux); err != nil {
		cfg.Log.Fatal("Failed to start outbox worker", "error", err)
	}
	cfg.Log.Info("Outbox worker started", "concurrency", cfg.WorkerConcurrency)

	scheduler := startWarmup(ctx, cfg, resolver, directory)

	var wg sync.WaitGroup
	updates := startPersonnelConsumer(ctx, cfg, directory, &wg)

	<-ctx.Done()
	cfg.Log.Info("Shutdown signal received")

	<-scheduler.Stop().Done()
	if updates != nil {
		if err := updates.Close(); err != nil {
			cfg.Log.Error("Failed to close personnel consumer", "error", err)
		}
	}
	wg.Wait()
	srv.Shutdown()

	cfg.Log.Info("Worker stopped gracefully")
}

// startWarmup resolves every directory member's calendar id on a schedule so
// the first booking for a person does not pay for the lookup.
func startWarmup(ctx context.Context, cfg *config.Config, resolver *identity.Resolver, directory dirservice.DirectoryService) *cron.Cron {
	log := cfg.Log.Component("identity.warmup")
	warm := func() {
		emails, err := bootstrap.DirectoryEmails(ctx, directory)
		if err != nil {
			log.Error("Failed to read directory for warm-up", "error", err)
			return
		}
		resolved, missing, err := resolver.Warm(ctx, emails)
		if err != nil {
			log.Error("Identity warm-up failed", "error", err)
			return
		}
		log.Info("Identity warm-up finished", "resolved", resolved, "missing", missing)
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.IdentityWarmupCron, warm); err != nil {
		cfg.Log.Fatal("Invalid identity warm-up schedule", "schedule", cfg.IdentityWarmupCron, "error", err)
	}
	c.Start()
	go warm()
	return c
}

func startPersonnelConsumer(ctx context.Context, cfg *config.Config, directory dirservice.DirectoryService, wg *sync.WaitGroup) *kafka.Consumer {
	kcfg, err := bootstrap.Kafka(cfg)
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	if kcfg == nil {
		return nil
	}

	handler := consumer.NewUpdatesHandler(directory, cfg.Log)
	updates, err := bootstrap.Consumer(cfg, kcfg, cfg.PersonnelUpdatesTopic, cfg.PersonnelConsumerGroup, handler.Handle)
	if err != nil {
		cfg.Log.Fatal("Failed to create personnel updates consumer", "error", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := updates.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			cfg.Log.Error("Personnel updates consumer stopped", "error", err)
		}
	}()
	return updates
}
