// Package main runs the storefront HTTP and gRPC servers.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abgdnv/storefront/internal/catalog/app"
	"github.com/abgdnv/storefront/internal/catalog/seed"
	"github.com/abgdnv/storefront/internal/config"
	"github.com/abgdnv/storefront/internal/platform/database"
	"github.com/abgdnv/storefront/internal/platform/logger"
	"github.com/abgdnv/storefront/internal/receipt"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads the configuration, seeds the catalog and serves HTTP and gRPC until ctx is done.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log.Printf("Configuration loaded: %v", cfg)

	lg := logger.New(os.Stdout, cfg.Log.Level)
	slog.SetDefault(lg)

	catalog, err := seed.Build(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	lg.Info("Catalog seeded", "products", catalog.Store.Len(), "promotions", len(catalog.Promotions))

	receipts, closeReceipts, err := newReceiptStore(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer closeReceipts()

	deps := app.SetupDependencies(catalog, receipts, lg)
	httpServer := app.SetupHttpServer(deps, cfg)
	grpcServer, healthServer := app.SetupGrpcServer(cfg.GRPCServer.Reflection)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lg.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		lg.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		grpcAddr := fmt.Sprintf(":%d", cfg.GRPCServer.Port)
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on gRPC port: %w", err)
		}
		lg.Info("gRPC server listening", slog.String("addr", grpcAddr))
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-gCtx.Done()
		lg.Info("Shutting down gRPC server...")
		healthServer.Shutdown()
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
			lg.Info("gRPC server stopped gracefully.")
			return nil
		case <-time.After(cfg.Shutdown.Timeout):
			lg.Warn("gRPC server graceful stop timed out. Forcing stop.")
			grpcServer.Stop()
			return fmt.Errorf("grpc server graceful stop timed out")
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// newReceiptStore returns the PostgreSQL journal when the database is enabled, migrating it first,
// and the in-memory journal otherwise. The returned func releases the store's resources.
func newReceiptStore(ctx context.Context, cfg *config.Config, lg *slog.Logger) (receipt.Store, func(), error) {
	if !cfg.Database.Enabled {
		lg.Info("Database disabled, receipts are kept in memory")
		return receipt.NewInMemoryStore(), func() {}, nil
	}

	if err := receipt.Migrate(cfg.Database.URL); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate receipt journal: %w", err)
	}
	pool, err := database.NewPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
	if err != nil {
		return nil, nil, err
	}
	lg.Info("Successfully connected to the database!")
	return receipt.NewPgStore(pool), pool.Close, nil
}
