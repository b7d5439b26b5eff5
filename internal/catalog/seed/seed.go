// Package seed builds the opening catalog from configuration.
package seed

import (
	"fmt"

	catalogerrors "github.com/abgdnv/storefront/internal/catalog/errors"
	"github.com/abgdnv/storefront/internal/catalog/product"
	"github.com/abgdnv/storefront/internal/catalog/promotion"
	"github.com/abgdnv/storefront/internal/catalog/store"
	"github.com/abgdnv/storefront/internal/config"
	"github.com/shopspring/decimal"
)

// Catalog is a seeded store together with the promotions products may be given.
type Catalog struct {
	Store      *store.Store
	Promotions map[string]*promotion.Promotion
}

// DefaultCatalog is the catalog used when the configuration declares no products.
func DefaultCatalog() config.CatalogConfig {
	return config.CatalogConfig{
		Promotions: []config.PromotionConfig{
			{Name: "Second Half price!", Kind: string(promotion.KindSecondHalfPrice)},
			{Name: "Third One Free!", Kind: string(promotion.KindThirdOneFree)},
			{Name: "30% off!", Kind: string(promotion.KindPercentDiscount), Percent: 30},
		},
		Products: []config.ProductConfig{
			{Name: "MacBook Air M2", Kind: string(product.KindStandard), Price: "1450", Quantity: 100, Promotion: "Second Half price!"},
			{Name: "Bose QuietComfort Earbuds", Kind: string(product.KindStandard), Price: "250", Quantity: 500, Promotion: "Third One Free!"},
			{Name: "Google Pixel 7", Kind: string(product.KindStandard), Price: "500", Quantity: 250},
			{Name: "Windows License", Kind: string(product.KindUnlimited), Price: "125", Promotion: "30% off!"},
			{Name: "Shipping", Kind: string(product.KindCapped), Price: "10", Quantity: 250, MaxPerOrder: 1},
		},
	}
}

// Build creates the promotions and products of cfg and adds the products to a new store in order.
// An empty product list falls back to DefaultCatalog.
func Build(cfg config.CatalogConfig) (*Catalog, error) {
	if len(cfg.Products) == 0 {
		cfg = DefaultCatalog()
	}

	promotions := make(map[string]*promotion.Promotion, len(cfg.Promotions))
	for i, pc := range cfg.Promotions {
		if _, exists := promotions[pc.Name]; exists {
			return nil, fmt.Errorf("promotion #%d: %w: duplicate name %q", i+1, catalogerrors.ErrValidation, pc.Name)
		}
		p, err := promotion.New(pc.Name, promotion.Kind(pc.Kind), decimal.NewFromFloat(pc.Percent))
		if err != nil {
			return nil, fmt.Errorf("promotion #%d: %w", i+1, err)
		}
		promotions[pc.Name] = p
	}

	s := store.New()
	for i, pc := range cfg.Products {
		p, err := buildProduct(pc, promotions)
		if err != nil {
			return nil, fmt.Errorf("product #%d: %w", i+1, err)
		}
		s.Add(p)
	}

	return &Catalog{Store: s, Promotions: promotions}, nil
}

func buildProduct(pc config.ProductConfig, promotions map[string]*promotion.Promotion) (product.Product, error) {
	price, err := decimal.NewFromString(pc.Price)
	if err != nil {
		return nil, fmt.Errorf("%w: price %q of %q is not a number", catalogerrors.ErrValidation, pc.Price, pc.Name)
	}
	kind := product.Kind(pc.Kind)
	if kind == "" {
		kind = product.KindStandard
	}
	p, err := product.New(kind, pc.Name, price, pc.Quantity, pc.MaxPerOrder)
	if err != nil {
		return nil, err
	}
	if pc.Promotion != "" {
		promo, ok := promotions[pc.Promotion]
		if !ok {
			return nil, fmt.Errorf("%w: %q referenced by %q", catalogerrors.ErrPromotionNotFound, pc.Promotion, pc.Name)
		}
		p.SetPromotion(promo)
	}
	return p, nil
}
