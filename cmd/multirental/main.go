package main

import (
	"log"

	"github.com/vbonduro/multirental/internal/config"
	"github.com/vbonduro/multirental/internal/db"
	"github.com/vbonduro/multirental/internal/logging"
	"github.com/vbonduro/multirental/internal/service"
	"github.com/vbonduro/multirental/internal/store"
	"github.com/vbonduro/multirental/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath, cfg.DBBusyTimeout)
	if err != nil {
		logger.Error("failed to open database", "error", err, "path", cfg.DBPath)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	ledger := store.New(database)
	catalog := service.NewCatalogService(ledger, logger)
	engine := service.NewTransitionEngine(ledger, logger)
	agg := service.NewAggregationService(ledger, cfg.PageSize, logger)

	server := web.NewServer(catalog, engine, agg, logger)
	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}
