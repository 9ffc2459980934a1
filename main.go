package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ad-ranking-system/internal/catalog"
	"ad-ranking-system/internal/config"
	"ad-ranking-system/internal/database"
	"ad-ranking-system/internal/events"
	"ad-ranking-system/internal/handlers"
	"ad-ranking-system/internal/kafka"
	"ad-ranking-system/internal/ledger"
	"ad-ranking-system/internal/logger"
	"ad-ranking-system/internal/repository"
	"ad-ranking-system/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	log := logger.SetupLogger(cfg.LogLevel)

	// db connection
	db, err := database.SetupDatabase(cfg.DatabaseDriver, cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// feed db from the inventory file
	if err := catalog.Import(context.Background(), repository.NewAdRepository(db), cfg.SeedCatalogPath, log); err != nil {
		log.WithError(err).Warn("Failed to import catalog")
	}

	rdb := session.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() {
		if err := rdb.Close(); err != nil {
			log.WithError(err).Error("Failed to close Redis client")
		}
	}()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.WithError(err).Warn("Redis not reachable, sessions will fail until it is")
	}
	sessions := session.NewStore(rdb, cfg.SessionTTL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var workers sync.WaitGroup

	// the per-user ledger is fed from kafka when enabled, directly otherwise
	userLedger := ledger.New(cfg.LedgerDir, log)
	var publisher events.Publisher = userLedger
	if cfg.KafkaEnabled {
		producer := kafka.NewProducer(kafka.NewKafkaWriter(cfg.KafkaBroker, cfg.KafkaTopic))
		defer func() {
			if err := producer.Close(); err != nil {
				log.WithError(err).Error("Failed to close Kafka writer")
			}
		}()
		publisher = producer

		consumer := kafka.NewConsumer(kafka.NewKafkaReader(cfg.KafkaBroker, cfg.KafkaTopic, cfg.KafkaGroupID), userLedger, log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			defer consumer.Close()
			if err := consumer.Run(ctx); err != nil {
				log.WithError(err).Error("Ledger consumer stopped")
			}
		}()
		log.WithFields(logrus.Fields{"broker": cfg.KafkaBroker, "topic": cfg.KafkaTopic}).Info("Kafka event log enabled")
	}

	server := handlers.NewServer(db, sessions, publisher, userLedger, log, cfg)

	// Start event queue processor
	workers.Add(1)
	go func() {
		defer workers.Done()
		server.GetEventQueue().StartProcessor(ctx)
	}()

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Router(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.WithField("port", cfg.Port).Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	// stop background workers after the last request so queued events flush
	cancel()
	workers.Wait()

	log.Info("Server exited")
}
