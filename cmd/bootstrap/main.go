// Package main 初始化会话持久化所需的数据库表
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"schema-assistant-api/internal/config"
	"schema-assistant-api/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting schema migration...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	client, cleanup, err := wire.InitializeMigrator(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer cleanup()

	if err := client.AutoMigrate(ctx); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	fmt.Printf("Migration completed on %s:%d/%s\n",
		cfg.Database.Postgres.Host, cfg.Database.Postgres.Port, cfg.Database.Postgres.Database)
}
