// Package main runs the interactive store menu on the terminal.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/abgdnv/storefront/internal/catalog/seed"
	"github.com/abgdnv/storefront/internal/catalog/service"
	"github.com/abgdnv/storefront/internal/cli"
	"github.com/abgdnv/storefront/internal/config"
	"github.com/abgdnv/storefront/internal/platform/logger"
	"github.com/abgdnv/storefront/internal/receipt"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("storefront menu failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	// logs go to stderr so they do not interleave with the menu
	lg := logger.New(os.Stderr, cfg.Log.Level)

	catalog, err := seed.Build(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	svc := service.NewService(catalog.Store, catalog.Promotions, receipt.NewInMemoryStore(), lg)
	return cli.NewMenu(svc, os.Stdin, os.Stdout).Run(ctx)
}
