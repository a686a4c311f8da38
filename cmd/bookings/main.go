package main

import (
	agentsrepo "stayvoucher/internal/agents/repository"
	"stayvoucher/internal/bookings/events"
	"stayvoucher/internal/bookings/handler"
	"stayvoucher/internal/bookings/repository"
	"stayvoucher/internal/bookings/service"
	bookingvalidator "stayvoucher/internal/bookings/validator"
	hotelsrepo "stayvoucher/internal/hotels/repository"
	voucherrepo "stayvoucher/internal/vouchers/repository"
	voucherservice "stayvoucher/internal/vouchers/service"
	vouchervalidator "stayvoucher/internal/vouchers/validator"
	"stayvoucher/pkg/app"
	"stayvoucher/pkg/config"
	"stayvoucher/pkg/kafka"
	kafkaconfig "stayvoucher/pkg/kafka/config"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Bookings service")

	producer := initProducer(cfg)
	bookingService := initServices(cfg, producer)

	serverApp := app.NewApplication(cfg)
	if producer != nil {
		serverApp.OnShutdown(func() {
			if err := producer.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "error", err)
			}
		})
	}
	serverApp.SetApp(handler.NewBookingHandler(bookingService, cfg.Log))
	serverApp.Run()
}

func initProducer(cfg *config.Config) *kafka.Producer {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Booking events disabled")
		return nil
	}

	kafkaCfg, err := kafkaconfig.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.BookingEventsDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	cfg.Log.Info("Booking events enabled", "topic", cfg.BookingEventsTopic)
	return producer
}

func initServices(cfg *config.Config, producer *kafka.Producer) service.BookingService {
	voucherRepo := voucherrepo.NewMongoVoucherRepository(cfg)
	redemption := voucherservice.NewRedemptionCoordinator(voucherRepo, cfg)
	vouchers := voucherservice.NewVoucherService(
		voucherRepo,
		redemption,
		vouchervalidator.NewVoucherValidator(cfg.Log),
		cfg,
	)

	var publisher events.Publisher
	if producer != nil {
		publisher = events.NewKafkaPublisher(producer, cfg.Log)
	} else {
		publisher = (*events.KafkaPublisher)(nil)
	}

	bookingService := service.NewBookingService(
		repository.NewMongoBookingRepository(cfg),
		vouchers,
		redemption,
		hotelsrepo.NewMongoHotelRepository(cfg),
		agentsrepo.NewMongoAgentRepository(cfg),
		publisher,
		bookingvalidator.NewBookingValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}
