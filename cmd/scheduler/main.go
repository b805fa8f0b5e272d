package main

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"slotkeeper/internal/assignment"
	"slotkeeper/internal/availability"
	"slotkeeper/internal/booking/events"
	"slotkeeper/internal/booking/guard"
	"slotkeeper/internal/booking/handler"
	"slotkeeper/internal/booking/outbox"
	"slotkeeper/internal/booking/service"
	"slotkeeper/internal/booking/validator"
	"slotkeeper/internal/bootstrap"
	"slotkeeper/internal/busytime"
	"slotkeeper/internal/candidates"
	"slotkeeper/internal/crm"
	dirhandler "slotkeeper/internal/directory/handler"
	dirservice "slotkeeper/internal/directory/service"
	"slotkeeper/pkg/app"
	"slotkeeper/pkg/config"
)

const ServiceName = "scheduler"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Scheduler service")
	serverApp := app.NewApplication(cfg)

	directory := bootstrap.Directory(cfg)
	coordinator := initServices(cfg, serverApp, directory)

	serverApp.SetApp(
		handler.NewHealthHandler(healthChecks(cfg), cfg.Log),
		handler.NewBookingHandler(coordinator, cfg.Log),
		dirhandler.NewPersonnelHandler(directory, cfg.Log),
	)
	serverApp.OnShutdown(func(ctx context.Context) {
		cfg.GracefulShutdown()
	})
	serverApp.Run()
}

func initServices(cfg *config.Config, serverApp *app.Application, directory dirservice.DirectoryService) service.BookingService {
	cal, err := bootstrap.Calendar(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize calendar provider", "error", err)
	}
	resolver := bootstrap.Identity(cfg, cal)

	busy := busytime.New(cal, resolver, busytime.Options{
		Timeout:       cfg.CalendarTimeout,
		Retry:         bootstrap.CalendarRetry(cfg),
		RatePerSecond: cfg.CalendarRatePerSecond,
		Location:      cfg.BusinessLocation,
	}, cfg.Log)
	engine := availability.New(busy, availability.Options{
		Location: cfg.BusinessLocation,
		FanOut:   cfg.AvailabilityFanOut,
		MaxDays:  cfg.MaxAvailabilityDays,
	}, cfg.Log)

	enqueuer := outbox.NewAsynqEnqueuer(bootstrap.AsynqRedis(cfg), cfg.Log)
	serverApp.OnShutdown(func(ctx context.Context) {
		if err := enqueuer.Close(); err != nil {
			cfg.Log.Error("Failed to close outbox client", "error", err)
		}
	})

	deps := service.Dependencies{
		CRM:       initCRM(cfg),
		Calendar:  cal,
		Identity:  resolver,
		Directory: directory,
		Filter:    candidates.New(cfg.UnknownServiceAsRemote, cfg.Log),
		Busy:      busy,
		Engine:    engine,
		Cursors:   assignment.NewRedisCursorStore(cfg.Client.Redis),
		Guard:     initGuard(cfg),
		Outbox:    enqueuer,
		Events:    initPublisher(cfg, serverApp),
	}

	coordinator := service.NewCoordinator(deps, service.Options{
		Location:        cfg.BusinessLocation,
		Template:        cfg.SlotTemplate,
		GuardTTL:        cfg.SlotGuardTTL,
		CalendarTimeout: cfg.CalendarTimeout,
		CRMTimeout:      cfg.CRMTimeout,
		DeleteRetry:     bootstrap.CalendarRetry(cfg),
	}, validator.NewBookingValidator(cfg.SlotTemplate), cfg.Log)

	cfg.Log.Info("Booking coordinator initialized",
		"calendar_backend", cfg.CalendarBackend,
		"crm_backend", cfg.CRMBackend,
		"slot_guard_backend", cfg.SlotGuardBackend,
	)
	return coordinator
}

func initCRM(cfg *config.Config) crm.Store {
	if cfg.CRMBackend == config.CRMBackendREST {
		return crm.NewRESTStore(cfg.CRMBaseURL, cfg.CRMAPIToken, cfg.CRMTimeout)
	}
	cfg.Log.Warn("Using Mongo-backed CRM store")
	return crm.NewMongoStore(cfg.Client.Mongo.Database(cfg.MongoDatabaseName), cfg.CRMTimeout)
}

func initGuard(cfg *config.Config) guard.SlotGuard {
	if cfg.SlotGuardBackend == config.SlotGuardBackendMongo {
		return guard.NewMongoGuard(cfg.Client.Mongo.Database(cfg.MongoDatabaseName))
	}
	return guard.NewRedisGuard(cfg.Client.Redis)
}

func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	kcfg, err := bootstrap.Kafka(cfg)
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	if kcfg == nil {
		return events.NopPublisher{}
	}

	producer, err := bootstrap.Producer(cfg, kcfg, cfg.BookingEventsTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking events producer", "error", err)
	}
	serverApp.OnShutdown(func(ctx context.Context) {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close booking events producer", "error", err)
		}
	})
	return events.NewKafkaPublisher(producer)
}

func healthChecks(cfg *config.Config) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{}
	if cfg.Client.Mongo != nil {
		checks["mongo"] = handler.PingFunc(func(ctx context.Context) error {
			return cfg.Client.Mongo.Ping(ctx, readpref.Primary())
		})
	}
	if cfg.Client.Redis != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return cfg.Client.Redis.Ping(ctx).Err()
		})
	}
	return checks
}
