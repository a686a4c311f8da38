package main

import (
	"stayvoucher/internal/vouchers/handler"
	"stayvoucher/internal/vouchers/repository"
	"stayvoucher/internal/vouchers/service"
	"stayvoucher/internal/vouchers/validator"
	"stayvoucher/pkg/app"
	"stayvoucher/pkg/config"
)

const ServiceName = "vouchers"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Vouchers service")
	voucherService := initServices(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewVoucherHandler(voucherService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.VoucherService {
	voucherValidator := validator.NewVoucherValidator(cfg.Log)
	voucherRepo := repository.NewMongoVoucherRepository(cfg)
	redemption := service.NewRedemptionCoordinator(voucherRepo, cfg)
	voucherService := service.NewVoucherService(
		voucherRepo,
		redemption,
		voucherValidator,
		cfg,
	)

	cfg.Log.Info("Voucher service initialized", "database", cfg.MongoDatabaseName)
	return voucherService
}
