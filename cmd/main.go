package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/mainmast/fleet-ledger/internal/auth"
	"github.com/mainmast/fleet-ledger/internal/config"
	"github.com/mainmast/fleet-ledger/internal/db"
	"github.com/mainmast/fleet-ledger/internal/events"
	"github.com/mainmast/fleet-ledger/internal/handlers"
	"github.com/mainmast/fleet-ledger/internal/identity"
	"github.com/mainmast/fleet-ledger/internal/journal"
	"github.com/mainmast/fleet-ledger/internal/ledger"
	"github.com/mainmast/fleet-ledger/internal/middleware"
	"github.com/mainmast/fleet-ledger/internal/report"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	cfg := config.Load()

	client, err := db.ConnectMongo(cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	log.Info("connected to MongoDB")

	database := client.Database(cfg.MongoDB)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		cancel()
		log.WithError(err).Fatal("failed to ensure indexes")
	}
	cancel()

	tripCollection := &db.MongoTripCollection{Collection: database.Collection(db.CollTrips)}
	journalCollection := &db.MongoJournalCollection{Collection: database.Collection(db.CollJournal)}
	vehicleCollection := &db.MongoVehicleCollection{Collection: database.Collection(db.CollVehicles)}
	accountCollection := &db.MongoAccountCollection{Collection: database.Collection(db.CollAccounts)}

	authService := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := auth.EnsureAdminAccount(seedCtx, accountCollection, authService, cfg.AdminIdentity, cfg.AdminPassword); err != nil {
		seedCancel()
		log.WithError(err).Fatal("failed to seed admin account")
	}
	seedCancel()

	var publisher events.Publisher = events.Nop()
	if cfg.MQTTBroker != "" {
		mqttPublisher, err := events.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			log.WithError(err).Warn("MQTT broker unreachable, trip events disabled")
		} else {
			publisher = mqttPublisher
			defer mqttPublisher.Close()
			log.WithField("broker", cfg.MQTTBroker).Info("publishing trip events over MQTT")
		}
	}

	resolver := identity.NewResolver(cfg.AdminMarker)
	tripJournal := journal.New(journalCollection)
	tripLedger := ledger.New(tripCollection, vehicleCollection, tripJournal, publisher)
	reportService := report.New(tripCollection, vehicleCollection, tripJournal, report.ProfitPolicy(cfg.ProfitPolicy))

	authHandler := handlers.NewAuthHandler(authService, resolver, accountCollection, vehicleCollection, cfg.DriverDomain)
	tripHandler := handlers.NewTripHandler(tripLedger, tripJournal)
	vehicleHandler := handlers.NewVehicleHandler(vehicleCollection)
	reportHandler := handlers.NewReportHandler(reportService)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("GET /api/auth/profile", authHandler.Profile)
	mux.HandleFunc("POST /api/vehicles", vehicleHandler.Create)
	mux.HandleFunc("GET /api/vehicles", vehicleHandler.List)
	mux.HandleFunc("POST /api/trips", tripHandler.Start)
	mux.HandleFunc("GET /api/trips", tripHandler.List)
	mux.HandleFunc("GET /api/trips/active", tripHandler.Active)
	mux.HandleFunc("POST /api/trips/{id}/advances", tripHandler.Advance)
	mux.HandleFunc("POST /api/trips/{id}/expenses", tripHandler.Expense)
	mux.HandleFunc("POST /api/trips/{id}/end", tripHandler.End)
	mux.HandleFunc("GET /api/trips/{id}/journal", tripHandler.Journal)
	mux.HandleFunc("GET /api/reports/summary", reportHandler.Summary)
	mux.HandleFunc("GET /api/reports/monthly", reportHandler.Monthly)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimiter := middleware.NewRateLimitMiddleware()

	var handler http.Handler = mux
	handler = authMiddleware.Authenticate(handler)
	handler = rateLimiter.RateLimit(cfg.RateLimit, cfg.RateWindow)(handler)
	handler = middleware.Metrics(handler)
	handler = middleware.RequestLogger(handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
}
