package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/mlangford/wheeljournal/internal/api"
	"github.com/mlangford/wheeljournal/internal/config"
	"github.com/mlangford/wheeljournal/internal/database"
	"github.com/mlangford/wheeljournal/internal/kafka"
	"github.com/mlangford/wheeljournal/internal/pricesync"
)

func main() {
	cfg := config.Load()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithError(err).Error("Invalid log level, using INFO")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(cfg.Migrations); err != nil {
		logrus.WithError(err).Fatal("Failed to run database migrations")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
		defer producer.Close()

		consumer := kafka.NewSnapshotConsumer(cfg.Kafka.Brokers, cfg.Kafka.SnapshotTopic, cfg.Kafka.ConsumerGroup, db)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				logrus.WithError(err).Error("Position snapshot consumer stopped")
			}
		}()
	}

	var syncer *pricesync.Syncer
	if cfg.Quotes.APIKey != "" {
		cache := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer cache.Close()

		quotes := pricesync.NewClient(cfg.Quotes.BaseURL, cfg.Quotes.APIKey, cfg.Quotes.RatePerSec)
		syncer = pricesync.NewSyncer(db, quotes, cache)
	} else {
		logrus.Info("No quotes API key configured, benchmark price sync disabled")
	}

	handler := api.NewHandler(db, producer, syncer)
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      api.SetupRoutes(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logrus.WithField("addr", server.Addr).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logrus.Info("Received shutdown signal")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown failed")
	}

	logrus.Info("Server stopped")
}
