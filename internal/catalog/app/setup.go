// Package app wires the catalog service into its HTTP and gRPC servers.
package app

import (
	"log/slog"
	"net/http"

	"github.com/abgdnv/storefront/internal/catalog/handler"
	"github.com/abgdnv/storefront/internal/catalog/seed"
	"github.com/abgdnv/storefront/internal/catalog/service"
	"github.com/abgdnv/storefront/internal/config"
	"github.com/abgdnv/storefront/internal/platform/server"
	"github.com/abgdnv/storefront/internal/receipt"
	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name the catalog reports under in the gRPC health service.
const ServiceName = "storefront.Catalog"

type Dependencies struct {
	CatalogService service.CatalogService
	Logger         *slog.Logger
}

// SetupDependencies builds the service over the seeded catalog. receipts journals placed orders.
func SetupDependencies(catalog *seed.Catalog, receipts receipt.Store, logger *slog.Logger) *Dependencies {
	return &Dependencies{
		CatalogService: service.NewService(catalog.Store, catalog.Promotions, receipts, logger),
		Logger:         logger,
	}
}

// SetupHttpHandler builds the router with all catalog routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	cApi := handler.NewAPI(deps.CatalogService, deps.Logger)

	mux := server.NewChiRouter(deps.Logger)

	mux.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", cApi.ListProducts)
			r.Post("/", cApi.CreateProduct)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cApi.GetProduct)
				r.Delete("/", cApi.RemoveProduct)
				r.Put("/promotion", cApi.SetPromotion)
				r.Put("/active", cApi.SetActive)
			})
		})
		r.Get("/stock", cApi.Stock)
		r.Post("/orders", cApi.PlaceOrder)
		r.Get("/orders", cApi.ListReceipts)
	})

	mux.Get("/healthz", cApi.HealthCheck)

	return mux
}

// SetupHttpServer creates and configures the HTTP server.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}, SetupHttpHandler(deps))
}

// SetupGrpcServer creates the gRPC server with the health service reporting the catalog as serving.
// The returned health server lets the caller flip the status on shutdown.
func SetupGrpcServer(reflectionEnabled bool) (*grpc.Server, *health.Server) {
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	grpcServer := server.NewGRPCServer(reflectionEnabled, func(s *grpc.Server) {
		healthpb.RegisterHealthServer(s, healthServer)
	})
	return grpcServer, healthServer
}
