package main

import (
	"courtside/internal/availability"
	"courtside/internal/bookings/handler"
	bookingrepo "courtside/internal/bookings/repository"
	bookingsvc "courtside/internal/bookings/service"
	"courtside/internal/bookings/validator"
	coachrepo "courtside/internal/coaches/repository"
	courtrepo "courtside/internal/courts/repository"
	equipmentrepo "courtside/internal/equipment/repository"
	rulerepo "courtside/internal/pricing/repository"
	pricingsvc "courtside/internal/pricing/service"
	waitlistrepo "courtside/internal/waitlist/repository"
	waitlistsvc "courtside/internal/waitlist/service"
	waitlistworker "courtside/internal/waitlist/worker"
	"courtside/pkg/app"
	"courtside/pkg/config"
	"courtside/pkg/kafka"
	"courtside/pkg/lock"
)

const ServiceName = "courtside"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Courtside booking service")

	bookingService, waitlistService, producers := initServices(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewBookingHandler(bookingService, waitlistService, cfg.Log),
		handler.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
	)

	worker, err := waitlistworker.NewSlotFreedWorker(cfg, waitlistService)
	if err != nil {
		cfg.Log.Fatal("Failed to create waitlist worker", "error", err)
	}
	serverApp.AddWorker(worker)

	defer func() {
		for _, p := range producers {
			if err := p.Close(); err != nil {
				cfg.Log.Warn("Failed to close producer", "error", err)
			}
		}
	}()

	serverApp.Run()
}

func initServices(cfg *config.Config) (bookingsvc.BookingService, waitlistsvc.WaitlistService, []*kafka.Producer) {
	bookingRepo := bookingrepo.NewMongoBookingRepository(cfg)
	courtRepo := courtrepo.NewMongoCourtRepository(cfg)
	coachRepo := coachrepo.NewMongoCoachRepository(cfg)
	equipmentRepo := equipmentrepo.NewMongoEquipmentRepository(cfg)
	ruleRepo := rulerepo.NewMongoRuleRepository(cfg)
	waitlistRepo := waitlistrepo.NewMongoWaitlistRepository(cfg)

	checker := availability.NewService(bookingRepo, coachRepo, equipmentRepo, cfg.Log)
	pricer := pricingsvc.NewPricingService(courtRepo, coachRepo, equipmentRepo, ruleRepo, cfg.Log)

	bookingEvents, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.BookingEventsTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking events producer", "error", err)
	}
	waitlistEvents, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.WaitlistTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create waitlist events producer", "error", err)
	}

	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingService := bookingsvc.NewBookingService(
		cfg,
		bookingRepo,
		checker,
		pricer,
		lock.NewRedisLock(cfg.Client.Redis),
		bookingValidator,
		bookingEvents,
		waitlistEvents,
	)
	waitlistService := waitlistsvc.NewWaitlistService(waitlistRepo, bookingService, checker, bookingValidator, cfg.Log)

	cfg.Log.Info("Booking services initialized", "database", cfg.MongoDatabaseName)
	return bookingService, waitlistService, []*kafka.Producer{bookingEvents, waitlistEvents}
}
