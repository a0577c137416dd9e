package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/nandigama/InvestSimulate2/internal/config"
	"github.com/nandigama/InvestSimulate2/internal/copytrade"
	"github.com/nandigama/InvestSimulate2/internal/db"
	"github.com/nandigama/InvestSimulate2/internal/engine"
	"github.com/nandigama/InvestSimulate2/internal/handlers"
	"github.com/nandigama/InvestSimulate2/internal/oracle"
	"github.com/nandigama/InvestSimulate2/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := config.Load()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	// Storage backend: durable Postgres or the ephemeral memory store.
	var st store.Store
	switch cfg.StorageBackend {
	case "postgres":
		database, err := db.Connect(cfg)
		if err != nil {
			log.Fatal("failed to connect to database: ", err)
		}
		defer database.Close()
		if err := db.Migrate(database); err != nil {
			log.Fatal("failed to apply schema: ", err)
		}
		st = store.NewPostgres(database)
	case "memory":
		st = store.NewMemory()
	default:
		log.Fatalf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	// Price oracle, optionally fronted by a Redis quote cache.
	var ora oracle.Oracle = oracle.NewMock(0)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		ora = oracle.NewCached(ora, client, cfg.QuoteCacheTTL, logger)
		logger.Printf("quote cache enabled via redis at %s", cfg.RedisAddr)
	}

	eng := engine.New(st, ora)
	fanout := copytrade.NewController(st, eng, logger, int64(cfg.FanoutParallelism), cfg.FanoutTimeout)

	processor := handlers.NewTradeProcessor(cfg.NumWorkers, st, eng, fanout, logger)
	processor.Start()
	defer processor.Stop()

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	api := handlers.NewAPI(st, processor, eng, ora, logger)
	api.RegisterRoutes(router)

	logger.Printf("server starting on http://localhost:%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("failed to start server: ", err)
	}
}
