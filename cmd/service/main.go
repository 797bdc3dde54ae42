package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quartermaster-service/config"
	"quartermaster-service/internal/database"
	"quartermaster-service/internal/events"
	"quartermaster-service/internal/logger"
	"quartermaster-service/internal/repository"
	"quartermaster-service/internal/service"
	transport "quartermaster-service/internal/transport/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}
	defer logger.Sync()

	log := logger.L()

	cfg := config.Load(log)
	db := database.ConnectDB(&cfg.DB.Config, log)
	defer database.CloseDB(db, log)

	repos := repository.New(db)

	var bus service.EventBus
	if len(cfg.KafkaBrokers) > 0 {
		kb := events.NewKafkaBus(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kb.Close()
		bus = kb
		log.Info("kafka event bus enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	router := transport.Router(transport.Services{
		Requests:    service.NewRequestService(repos, bus),
		Inventory:   service.NewInventoryService(repos, bus),
		Grants:      service.NewGrantService(repos),
		Procurement: service.NewProcurementService(repos, bus),
		IssuedItems: service.NewIssuedItemService(repos, bus),
	}, log)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	log.Info("HTTP server stopped gracefully")
}
