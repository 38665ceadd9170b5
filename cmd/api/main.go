package main

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/csvguard/csvguard-backend/config"
	"github.com/csvguard/csvguard-backend/internal/auth"
	"github.com/csvguard/csvguard-backend/internal/bootstrap"
	"github.com/csvguard/csvguard-backend/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: postgres.DSN(&cfg.Database)})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	datasetDB, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("postgres (datasets): %v", err)
	}
	defer datasetDB.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis unavailable, catalog cache disabled: %v", err)
		rdb = nil
	}

	var verifier auth.TokenVerifier
	if cfg.Firebase.CredentialsPath != "" {
		client, err := auth.InitializeFirebase(&cfg.Firebase)
		if err != nil {
			log.Fatalf("firebase: %v", err)
		}
		verifier = client
	} else {
		log.Println("FIREBASE_CREDENTIALS_PATH not set, API auth disabled")
	}

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "csvguard-api",
		Version:     cfg.App.Version,
		DB:          pool,
		DatasetDB:   datasetDB,
		Redis:       rdb,
		Verifier:    verifier,
	})

	log.Printf("listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
