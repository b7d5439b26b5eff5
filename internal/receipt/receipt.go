// Package receipt journals executed orders.
package receipt

import (
	"context"
	"time"

	catalogerrors "github.com/abgdnv/storefront/internal/catalog/errors"
	"github.com/abgdnv/storefront/internal/catalog/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt records what an order bought and, if it stopped early, which line stopped it.
type Receipt struct {
	ID        uuid.UUID
	Total     decimal.Decimal
	Lines     []Line
	Failure   *Failure
	CreatedAt time.Time
}

// Line is a purchased order line.
type Line struct {
	ProductID uuid.UUID
	Name      string
	Quantity  int
	Charge    decimal.Decimal
}

// Failure is the order line that stopped the order.
type Failure struct {
	ProductID uuid.UUID
	Name      string
	Quantity  int
	Kind      string
	Message   string
}

// Store is an interface for receipt storage operations.
type Store interface {
	// Save records a receipt and returns it with its ID and creation time set.
	// Returns ErrSaveReceipt if the receipt cannot be stored.
	Save(ctx context.Context, r Receipt) (*Receipt, error)

	// FindAll returns receipts, newest first.
	// Returns an empty slice if no receipts exist.
	FindAll(ctx context.Context, offset, limit int32) ([]Receipt, error)
}

// FromResult converts an order result into an unsaved receipt.
func FromResult(result store.Result) Receipt {
	r := Receipt{Total: result.Total}
	for _, o := range result.Outcomes {
		if o.Succeeded() {
			r.Lines = append(r.Lines, Line{
				ProductID: o.ProductID,
				Name:      o.Name,
				Quantity:  o.Quantity,
				Charge:    o.Charge,
			})
			continue
		}
		r.Failure = &Failure{
			ProductID: o.ProductID,
			Name:      o.Name,
			Quantity:  o.Quantity,
			Kind:      catalogerrors.Kind(o.Err),
			Message:   o.Err.Error(),
		}
	}
	return r
}
