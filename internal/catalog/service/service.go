// Package service provides the catalog operations exposed to transports.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	catalogerrors "github.com/abgdnv/storefront/internal/catalog/errors"
	"github.com/abgdnv/storefront/internal/catalog/product"
	"github.com/abgdnv/storefront/internal/catalog/promotion"
	"github.com/abgdnv/storefront/internal/catalog/store"
	"github.com/abgdnv/storefront/internal/receipt"
	"github.com/google/uuid"
)

// CatalogService defines the operations on the products on sale and their orders.
type CatalogService interface {
	// ListProducts returns the active products in catalog order.
	ListProducts(ctx context.Context) ([]ProductDto, error)

	// GetProduct returns one product, active or not.
	// Returns ErrProductNotFound if no product exists with the given ID.
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDto, error)

	// CreateProduct adds a product at the end of the catalog.
	// Returns ErrValidation for invalid fields and ErrPromotionNotFound for an unknown promotion.
	CreateProduct(ctx context.Context, dto ProductCreateDto) (*ProductDto, error)

	// RemoveProduct removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	RemoveProduct(ctx context.Context, id uuid.UUID) error

	// SetPromotion attaches the named promotion to a product, or detaches it when name is empty.
	SetPromotion(ctx context.Context, id uuid.UUID, name string) (*ProductDto, error)

	// SetActive activates or deactivates a product.
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*ProductDto, error)

	// TotalQuantity sums the stock of every product.
	TotalQuantity(ctx context.Context) (StockDto, error)

	// PlaceOrder executes a shopping list. A failed line is part of the result, not an error.
	PlaceOrder(ctx context.Context, order OrderCreateDto) (*OrderResultDto, error)

	// ListReceipts returns journaled orders, newest first.
	ListReceipts(ctx context.Context, offset, limit int32) ([]ReceiptDto, error)
}

// service implements CatalogService over a single in-memory store.
type service struct {
	mu         sync.Mutex
	store      *store.Store
	promotions map[string]*promotion.Promotion
	receipts   receipt.Store
	logger     *slog.Logger
}

// NewService creates a CatalogService. It takes ownership of s; callers must not use it afterwards.
func NewService(s *store.Store, promotions map[string]*promotion.Promotion, receipts receipt.Store, logger *slog.Logger) CatalogService {
	if promotions == nil {
		promotions = map[string]*promotion.Promotion{}
	}
	return &service{
		store:      s,
		promotions: promotions,
		receipts:   receipts,
		logger:     logger.With("component", "service"),
	}
}

func (s *service) ListProducts(_ context.Context) ([]ProductDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listings := s.store.Products()
	dtos := make([]ProductDto, 0, len(listings))
	for _, l := range listings {
		dtos = append(dtos, toProductDto(l.ID, l.Product))
	}
	return dtos, nil
}

func (s *service) GetProduct(_ context.Context, id uuid.UUID) (*ProductDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	dto := toProductDto(id, p)
	return &dto, nil
}

func (s *service) CreateProduct(ctx context.Context, dto ProductCreateDto) (*ProductDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var promo *promotion.Promotion
	if dto.Promotion != "" {
		var ok bool
		if promo, ok = s.promotions[dto.Promotion]; !ok {
			return nil, fmt.Errorf("%w: %q", catalogerrors.ErrPromotionNotFound, dto.Promotion)
		}
	}
	kind := product.Kind(dto.Kind)
	if kind == "" {
		kind = product.KindStandard
	}
	p, err := product.New(kind, dto.Name, dto.Price, dto.Quantity, dto.MaxPerOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	p.SetPromotion(promo)

	id := s.store.Add(p)
	s.logger.InfoContext(ctx, "Product added", "ID", id, "Name", dto.Name, "Kind", kind)
	created := toProductDto(id, p)
	return &created, nil
}

func (s *service) RemoveProduct(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Remove(id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Product removed", "ID", id)
	return nil
}

func (s *service) SetPromotion(_ context.Context, id uuid.UUID, name string) (*ProductDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	var promo *promotion.Promotion
	if name != "" {
		var ok bool
		if promo, ok = s.promotions[name]; !ok {
			return nil, fmt.Errorf("%w: %q", catalogerrors.ErrPromotionNotFound, name)
		}
	}
	p.SetPromotion(promo)
	dto := toProductDto(id, p)
	return &dto, nil
}

func (s *service) SetActive(_ context.Context, id uuid.UUID, active bool) (*ProductDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if active {
		p.Activate()
	} else {
		p.Deactivate()
	}
	dto := toProductDto(id, p)
	return &dto, nil
}

func (s *service) TotalQuantity(_ context.Context) (StockDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StockDto{TotalQuantity: s.store.TotalQuantity()}, nil
}

// PlaceOrder runs the order under the store lock, then journals it. A journal failure is
// logged and leaves the result without a receipt ID.
func (s *service) PlaceOrder(ctx context.Context, order OrderCreateDto) (*OrderResultDto, error) {
	lines := make([]store.Line, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, store.Line{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	s.mu.Lock()
	result := s.store.Order(lines)
	s.mu.Unlock()

	dto := toOrderResultDto(result)
	if failed, ok := result.Failed(); ok {
		s.logger.WarnContext(ctx, "Order stopped",
			"total", result.Total.String(),
			"product_id", failed.ProductID,
			"quantity", failed.Quantity,
			"kind", catalogerrors.Kind(failed.Err),
			"error", failed.Err,
		)
	} else {
		s.logger.InfoContext(ctx, "Order placed", "total", result.Total.String(), "lines", len(result.Outcomes))
	}

	if len(result.Outcomes) == 0 {
		return &dto, nil
	}
	saved, err := s.receipts.Save(ctx, receipt.FromResult(result))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to record receipt", "error", err)
		return &dto, nil
	}
	dto.ReceiptID = &saved.ID
	return &dto, nil
}

func (s *service) ListReceipts(ctx context.Context, offset, limit int32) ([]ReceiptDto, error) {
	receipts, err := s.receipts.FindAll(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch receipts: %w", err)
	}
	dtos := make([]ReceiptDto, 0, len(receipts))
	for _, r := range receipts {
		dtos = append(dtos, toReceiptDto(r))
	}
	return dtos, nil
}
