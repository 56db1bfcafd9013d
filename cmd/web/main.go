package main

import (
	"log"
	"os"

	"log/slog"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Mosesedem/servixing-sub001/internal/config"
	apphttp "github.com/Mosesedem/servixing-sub001/internal/http"
	"github.com/Mosesedem/servixing-sub001/internal/http/handlers"
	"github.com/Mosesedem/servixing-sub001/internal/mailer"
	"github.com/Mosesedem/servixing-sub001/internal/modules/email"
	"github.com/Mosesedem/servixing-sub001/internal/modules/payments"
	"github.com/Mosesedem/servixing-sub001/internal/modules/warranty"
	"github.com/Mosesedem/servixing-sub001/internal/modules/workorders"
)

func main() {
	// Load .env file (ignore error if not found - prod uses real env vars)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	gateways := payments.NewGateways(
		payments.NewPaystackGateway(cfg.Paystack, cfg.ProviderTimeout),
		payments.NewEtegramGateway(cfg.Etegram, cfg.ProviderTimeout),
		payments.NewFlutterwaveGateway(cfg.Flutterwave, cfg.ProviderTimeout),
	)

	lookup := warranty.NewService(cfg.Warranty, cfg.ProviderTimeout, logger)
	store := payments.NewGormStore(db)

	paymentSvc := payments.NewService(store, gateways, logger)
	verifySvc := payments.NewVerifyService(store, gateways, lookup, logger)
	statusSvc := payments.NewStatusService(store, lookup, logger)
	refundSvc := payments.NewRefundService(store, gateways, logger)
	webhookSvc := payments.NewWebhookService(store, verifySvc, store, logger)

	smtp := mailer.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPUser, cfg.SMTPPassword)
	notifier := email.NewNotifier(smtp, cfg.SMTPFrom, cfg.SMTPFromName, cfg.EmailDisabled, logger)

	r := apphttp.NewRouter(apphttp.Deps{
		Cfg:    cfg,
		DB:     db,
		Logger: logger,

		Payments:   handlers.NewPaymentHandler(paymentSvc, verifySvc, refundSvc, store, notifier, logger),
		Warranty:   handlers.NewWarrantyHandler(statusSvc, logger),
		WorkOrders: handlers.NewWorkOrderHandler(workorders.NewRepo(db), logger),
		Webhooks:   handlers.NewWebhookHandler(logger, gateways, webhookSvc),
		Health:     handlers.NewHealthHandler(db),
	})

	logger.Info("listening", "addr", cfg.ListenAddr, "env", cfg.Env)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
