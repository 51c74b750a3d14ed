package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatehouse/internal/auth"
	"gatehouse/internal/config"
	"gatehouse/internal/database"
	"gatehouse/internal/logger"
	"gatehouse/internal/metrics"
	"gatehouse/internal/notify"
	"gatehouse/internal/router"
	"gatehouse/internal/seed"
	"gatehouse/internal/services"
	"gatehouse/internal/validator"

	"github.com/gin-gonic/gin"
)

// @title           Gatehouse API
// @version         1.0
// @description     Gatehouse is a role-gated security operations portal: resources, access logs, security alerts and a dashboard.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	validator.Register()

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	db := dbManager.DB()

	hasher := auth.NewHasher(auth.HasherConfig{
		Cost:         appConfig.BcryptCost,
		Workers:      appConfig.HashWorkers,
		AcceptArgon2: appConfig.LegacyArgon2,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if appConfig.SeedDefaultData {
		if _, err := seed.New(db, hasher).Run(ctx); err != nil {
			return fmt.Errorf("failed to seed default data: %w", err)
		}
	}

	secrets := make(map[string]string, len(appConfig.JWTPreviousKeys)+1)
	for kid, secret := range appConfig.JWTPreviousKeys {
		secrets[kid] = secret
	}
	secrets[appConfig.JWTKeyID] = appConfig.JWTSecret
	keyring, err := auth.NewKeyring(appConfig.JWTKeyID, secrets)
	if err != nil {
		return fmt.Errorf("failed to build token keyring: %w", err)
	}
	tokens := auth.NewTokenService(keyring)

	m := metrics.New()

	var notifier notify.AlertNotifier = notify.Nop{}
	if appConfig.MQTTBrokerURL != "" {
		mqttNotifier, err := notify.Connect(notify.MQTTConfig{
			BrokerURL:   appConfig.MQTTBrokerURL,
			ClientID:    appConfig.MQTTClientID,
			TopicPrefix: appConfig.MQTTTopicPrefix,
		}, m)
		if err != nil {
			log.Warnw("alert fan-out disabled", "broker", appConfig.MQTTBrokerURL, "error", err)
		} else {
			defer mqttNotifier.Close()
			notifier = mqttNotifier
		}
	}

	// Initialize services
	auditService := services.NewAuditService(db, m)
	userService := services.NewUserService(db, hasher, auditService)

	engine := router.New(router.Deps{
		Users:              userService,
		Resources:          services.NewResourceService(db, auditService),
		AccessLogs:         services.NewAccessLogService(db),
		Alerts:             services.NewAlertService(db, auditService, notifier),
		Dashboard:          services.NewDashboardService(db),
		Tokens:             tokens,
		Resolver:           auth.NewResolver(tokens, userService),
		Metrics:            m,
		LoginRatePerMinute: appConfig.LoginRate,
		LoginBurst:         appConfig.LoginBurst,
		MetricsAPIKey:      appConfig.MetricsAPIKey,
		CORSAllowedOrigins: appConfig.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Gatehouse server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
