package main

import (
	"context"
	"fmt"

	"github.com/fjod/printshop/internal/catalog"
	"github.com/fjod/printshop/internal/config"
	"github.com/fjod/printshop/internal/repository"
	"github.com/fjod/printshop/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	zap.ReplaceGlobals(log)
	return cfg, log, nil
}

func credentials(cfg *config.Config) *repository.Credentials {
	return &repository.Credentials{
		Host:              cfg.Database.Host,
		Port:              cfg.Database.Port,
		User:              cfg.Database.User,
		Password:          cfg.Database.Password,
		DBName:            cfg.Database.DBName,
		MigrationsDirPath: cfg.Database.MigrationsPath,
	}
}

func openOrders(cfg *config.Config, migrate bool) (*repository.Repository, error) {
	cred := credentials(cfg)
	repo, err := repository.NewRepository(cred)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if migrate {
		if err := repo.RunMigrations(cred); err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to run order migrations: %w", err)
		}
	}
	return repo, nil
}

func openCatalog(cfg *config.Config, migrate bool) (*catalog.Repository, error) {
	repo, err := catalog.NewRepository(cfg.Catalog.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if migrate {
		if err := repo.RunMigrations(cfg.Catalog.MigrationsPath); err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to run catalog migrations: %w", err)
		}
	}
	return repo, nil
}

func openRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}
