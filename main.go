package main

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"invoicing-backend/config"
	"invoicing-backend/controllers"
	"invoicing-backend/database"
	"invoicing-backend/export"
	"invoicing-backend/invoicing"
	"invoicing-backend/middlewares"
	"invoicing-backend/routes"
	"invoicing-backend/store"
	"invoicing-backend/store/memory"
)

const draftMaxIdle = 12 * time.Hour

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel)
	ctx := context.Background()

	// ---- Store (memory by default, SQL via STORE_DRIVER)
	var (
		st   store.Store
		idem middlewares.IdempotencyStore
	)
	if cfg.StoreDriver == config.DriverMemory {
		st = memory.New()
		idem = middlewares.NewMemoryIdempotencyStore(cfg.IdempotencyTTL)
	} else {
		db, err := database.Connect(cfg)
		if err != nil {
			config.LogError(logger, "main", "main", "connect database", cfg.StoreDriver, err)
			os.Exit(1)
		}
		st = database.NewStore(db)
		idem = database.NewIdempotencyStore(db, cfg.IdempotencyTTL)
	}
	defer st.Close()

	if cfg.SeedDemo {
		if err := store.SeedDemo(ctx, st, cfg.PhoneRegion, time.Now()); err != nil {
			config.LogError(logger, "main", "main", "seed demo data", nil, err)
			os.Exit(1)
		}
	}

	// ---- Idempotency records shared across instances when redis is configured
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			config.LogError(logger, "main", "main", "ping redis", cfg.RedisAddr, err)
			os.Exit(1)
		}
		idem = middlewares.NewRedisIdempotencyStore(rdb, cfg.IdempotencyTTL)
	}

	// ---- Share uploads (optional; shares fall back to a message link)
	var uploader export.Uploader
	if cfg.GCSBucket != "" {
		gcs, err := export.NewGCSUploader(ctx, cfg.GCSBucket, cfg.GCSCredentialsJSON)
		if err != nil {
			config.LogError(logger, "main", "main", "gcs client", cfg.GCSBucket, err)
		} else {
			defer gcs.Close()
			uploader = gcs
		}
	}

	h := &controllers.Controller{
		Store:       st,
		Service:     invoicing.NewService(st, st, st, logger, cfg.PhoneRegion),
		Drafts:      invoicing.NewRegistry(draftMaxIdle),
		Sharer:      export.NewSharer(uploader, logger),
		Export:      export.Options{ShopName: cfg.ShopName, Currency: cfg.Currency},
		PhoneRegion: cfg.PhoneRegion,
		Logger:      logger,
	}

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler(logger),
		BodyLimit:    cfg.BodyLimitBytes,
	})

	app.Use(middlewares.RequestLogger(logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowedOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Idempotency-Key",
		ExposeHeaders: "Content-Disposition, Idempotent-Replayed",
	}))

	// ---- Global rate limiter (default key is the client IP)
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
	}))

	routes.Register(app, h, idem)

	logger.WithFields(logrus.Fields{
		"module": "main",
		"port":   cfg.Port,
		"store":  cfg.StoreDriver,
	}).Info("API server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		config.LogError(logger, "main", "main", "listen", cfg.Port, err)
		os.Exit(1)
	}
}
