package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mediagate/internal/application/batchgroup"
	"github.com/mediagate/internal/application/ledger"
	"github.com/mediagate/internal/application/notify"
	"github.com/mediagate/internal/application/payment"
	"github.com/mediagate/internal/application/settings"
	"github.com/mediagate/internal/application/sweep"
	"github.com/mediagate/internal/config"
	"github.com/mediagate/internal/infrastructure/dynamo"
	jwtinfra "github.com/mediagate/internal/infrastructure/jwt"
	s3infra "github.com/mediagate/internal/infrastructure/s3"
	"github.com/mediagate/internal/infrastructure/shortener"
	"github.com/mediagate/internal/infrastructure/smtp"
	"github.com/mediagate/internal/infrastructure/sns"
	"github.com/mediagate/internal/infrastructure/transport"
	"github.com/mediagate/internal/linkcodec"
	transporthttp "github.com/mediagate/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(context.Background(), cfg)
	if err != nil {
		log.Fatalf("dynamodb client: %v", err)
	}
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// S3 object store.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS SMS sender (optional — graceful fallback).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	tokenRepo := dynamo.NewTokenRepo(dynamoClient, cfg.DynamoTables.AccessTokens)
	creditRepo := dynamo.NewCreditRepo(dynamoClient, cfg.DynamoTables.CreditAccounts)
	pendingRepo := dynamo.NewPendingRepo(dynamoClient, cfg.DynamoTables.PendingFiles)
	batchRepo := dynamo.NewBatchRepo(dynamoClient, cfg.DynamoTables.Batches)
	settingsRepo := dynamo.NewSettingsRepo(dynamoClient, cfg.DynamoTables.Settings)
	deliveryRepo := dynamo.NewDeliveryRepo(dynamoClient, cfg.DynamoTables.Deliveries)

	deps := &transporthttp.Deps{
		TokenRepo:    tokenRepo,
		BypassRepo:   dynamo.NewBypassRepo(dynamoClient, cfg.DynamoTables.BypassAttempts),
		CreditRepo:   creditRepo,
		PendingRepo:  pendingRepo,
		BatchRepo:    batchRepo,
		SettingsRepo: settingsRepo,
		OwnerRepo:    dynamo.NewOwnerRepo(dynamoClient, cfg.DynamoTables.Owners),
		ItemRepo:     dynamo.NewItemRepo(dynamoClient, cfg.DynamoTables.Items),
		DeliveryRepo: deliveryRepo,
		PaymentRepo:  dynamo.NewPaymentRepo(dynamoClient, cfg.DynamoTables.Payments),
		S3Store:      s3Store,
		Shortener:    shortener.New(cfg.ShortenerAPIURL, cfg.ShortenerAPIToken),
		Codec:        linkcodec.New(linkcodec.Base64{}, cfg.DefaultLocationID),
		Notifier:     notify.New(mailer, smsSender, cfg.OperatorEmail, cfg.OperatorPhone),
		JWTProvider:  jwtProvider,
		Providers: []payment.Provider{
			payment.ManualProvider{Instructions: cfg.PaymentManualInstructions},
			payment.StarsProvider{},
			payment.GatewayProvider{BaseURL: cfg.PaymentGatewayURL},
		},
	}

	router := transporthttp.NewRouter(cfg, deps)

	// Background sweeps share the same repos as the request path.
	settingsSvc := settings.NewService(settings.ServiceDeps{
		Repo:            settingsRepo,
		DefaultLocation: cfg.DefaultLocationID,
	})
	sweepCtx, stopSweeps := context.WithCancel(context.Background())
	sweep.New(sweep.Deps{
		TokenRepo: tokenRepo,
		Ledger: ledger.NewService(ledger.ServiceDeps{
			CreditRepo: creditRepo,
			Settings:   settingsSvc,
		}),
		Grouper: batchgroup.NewService(batchgroup.ServiceDeps{
			PendingRepo: pendingRepo,
			BatchRepo:   batchRepo,
			Settings:    settingsSvc,
		}),
		DeliveryRepo: deliveryRepo,
		Transport:    transport.New(cfg.TransportWebhookURL),
	}).Start(sweepCtx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stopSweeps()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
