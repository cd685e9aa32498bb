package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"stripe-points-service/internal/client"
	"stripe-points-service/internal/config"
	"stripe-points-service/internal/logger"
	"stripe-points-service/internal/repository"
	"stripe-points-service/internal/server"
	"stripe-points-service/internal/service"
	"stripe-points-service/internal/webhook"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Stripe.WebhookSecret == "" {
		// the verifier rejects every notification until this is fixed
		log.Error("STRIPE_WEBHOOK_SECRET is not set; webhooks will be rejected")
	}

	db, err := client.InitDBClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("init database", zap.Error(err))
	}

	eventRepo := repository.NewEventRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	productRepo := repository.NewProductRepository(db)

	stripeClient := client.NewStripeClient(&cfg.Stripe)
	verifier := webhook.NewVerifier(cfg.Stripe.WebhookSecret, cfg.Stripe.SignatureTolerance)

	checkoutService := service.NewCheckoutService(stripeClient, cfg.BaseURL, productRepo, eventRepo, log)
	webhookService := service.NewWebhookService(verifier, eventRepo, pointsRepo, productRepo, log)
	ledgerService := service.NewLedgerService(eventRepo, pointsRepo)

	srv := server.NewServer(checkoutService, webhookService, ledgerService, cfg.Admin.APIKey, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := productRepo.Seed(ctx); err != nil {
		log.Fatal("seed product catalog", zap.Error(err))
	}

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", zap.String("addr", serverAddr))
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("signal received, starting graceful shutdown")

	if err := srv.Shutdown(); err != nil {
		log.Fatal("HTTP server shutdown error", zap.Error(err))
	}
}
