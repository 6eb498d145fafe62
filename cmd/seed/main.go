package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lingocache/internal/cache"
	"lingocache/internal/config"
	"lingocache/internal/repository"
	"lingocache/internal/service"
)

func main() {
	indexes := flag.Bool("indexes", true, "create evaluation indexes")
	flag.Parse()

	godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		slog.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.Mongo.Database)
	contentRepo := repository.NewContentRepo(db)

	items := service.SampleContent()
	if cfg.Store.CacheContent {
		// the server reads content through Redis, drop stale copies as we write
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := cache.NewContentCache(rdb, contentRepo, nil).Publish(ctx, contentRepo, items...); err != nil {
			slog.Error("failed to seed content", "error", err)
			os.Exit(1)
		}
	} else {
		for _, item := range items {
			if err := contentRepo.Upsert(ctx, item); err != nil {
				slog.Error("failed to upsert content", "contentId", item.ContentID, "error", err)
				os.Exit(1)
			}
		}
	}

	if *indexes {
		if err := repository.NewEvaluationRepo(db).EnsureIndexes(ctx); err != nil {
			slog.Error("failed to create indexes", "error", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Seeded %d content items into %s.content_items\n", len(items), cfg.Mongo.Database)
}
