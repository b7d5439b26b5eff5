// Package store holds the products on sale and executes orders against them.
//
// A Store is not safe for concurrent use; callers that share one must serialize access.
package store

import (
	"fmt"
	"math"
	"slices"

	catalogerrors "github.com/abgdnv/storefront/internal/catalog/errors"
	"github.com/abgdnv/storefront/internal/catalog/product"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is an ordered arena of products addressed by stable IDs.
type Store struct {
	ids      []uuid.UUID
	products map[uuid.UUID]product.Product
}

// Listing pairs a product with its ID in the store.
type Listing struct {
	ID      uuid.UUID
	Product product.Product
}

// Line is one entry of a shopping list.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// LineOutcome reports one attempted purchase. Err is nil on success.
type LineOutcome struct {
	ProductID uuid.UUID
	Name      string
	Quantity  int
	Charge    decimal.Decimal
	Err       error
}

// Succeeded reports whether the purchase went through.
func (o LineOutcome) Succeeded() bool {
	return o.Err == nil
}

// Result is the outcome of an order: the total of the purchases that went through,
// and one outcome per attempted line in execution order.
type Result struct {
	Total    decimal.Decimal
	Outcomes []LineOutcome
}

// Failed returns the outcome that stopped the order, if any.
func (r Result) Failed() (LineOutcome, bool) {
	if n := len(r.Outcomes); n > 0 && !r.Outcomes[n-1].Succeeded() {
		return r.Outcomes[n-1], true
	}
	return LineOutcome{}, false
}

// New creates a store holding products in the given order.
func New(products ...product.Product) *Store {
	s := &Store{products: make(map[uuid.UUID]product.Product, len(products))}
	for _, p := range products {
		s.Add(p)
	}
	return s
}

// Add appends p and returns its ID. Adding a product the store already holds returns the existing ID.
func (s *Store) Add(p product.Product) uuid.UUID {
	for _, id := range s.ids {
		if s.products[id] == p {
			return id
		}
	}
	id := uuid.New()
	s.ids = append(s.ids, id)
	s.products[id] = p
	return id
}

// Remove drops the product with the given ID, keeping the order of the rest.
func (s *Store) Remove(id uuid.UUID) error {
	if _, ok := s.products[id]; !ok {
		return fmt.Errorf("%w: %s", catalogerrors.ErrProductNotFound, id)
	}
	delete(s.products, id)
	s.ids = slices.DeleteFunc(s.ids, func(held uuid.UUID) bool { return held == id })
	return nil
}

// Get returns the product with the given ID, active or not.
func (s *Store) Get(id uuid.UUID) (product.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalogerrors.ErrProductNotFound, id)
	}
	return p, nil
}

// Len returns the number of products held, active or not.
func (s *Store) Len() int {
	return len(s.ids)
}

// TotalQuantity sums the stock of every product, active or not.
func (s *Store) TotalQuantity() int {
	total := 0
	for _, id := range s.ids {
		total += s.products[id].Quantity()
	}
	return total
}

// Products returns the active products in insertion order.
func (s *Store) Products() []Listing {
	list := make([]Listing, 0, len(s.ids))
	for _, id := range s.ids {
		if p := s.products[id]; p.IsActive() {
			list = append(list, Listing{ID: id, Product: p})
		}
	}
	return list
}

// Order buys every line of the shopping list.
//
// Lines naming the same product are merged first, in order of first appearance,
// so a per-order cap applies to the combined quantity. Purchases then run in that
// order and the first failure stops the order: later lines are not attempted and
// the total covers only the purchases made before it. A line with a non-positive
// quantity is never merged; the order stops at it with a validation failure.
func (s *Store) Order(lines []Line) Result {
	result := Result{Total: decimal.Zero}
	merged, rejected, rejectErr := aggregate(lines)
	for _, line := range merged {
		outcome := LineOutcome{ProductID: line.ProductID, Quantity: line.Quantity, Charge: decimal.Zero}
		p, err := s.Get(line.ProductID)
		if err != nil {
			outcome.Err = err
			result.Outcomes = append(result.Outcomes, outcome)
			return result
		}
		outcome.Name = p.Name()
		charge, err := p.Purchase(line.Quantity)
		if err != nil {
			outcome.Err = err
			result.Outcomes = append(result.Outcomes, outcome)
			return result
		}
		outcome.Charge = charge
		result.Total = result.Total.Add(charge)
		result.Outcomes = append(result.Outcomes, outcome)
	}
	if rejectErr != nil {
		outcome := LineOutcome{ProductID: rejected.ProductID, Quantity: rejected.Quantity, Charge: decimal.Zero, Err: rejectErr}
		if p, ok := s.products[rejected.ProductID]; ok {
			outcome.Name = p.Name()
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result
}

// aggregate merges lines by product ID, keeping the order of each product's first line.
// It stops at the first line whose quantity is not positive or would overflow the merged
// quantity, returning the lines merged before it together with that line and the reason.
func aggregate(lines []Line) ([]Line, Line, error) {
	merged := make([]Line, 0, len(lines))
	position := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return merged, line, fmt.Errorf("%w: order quantity of %s must be positive, got %d",
				catalogerrors.ErrValidation, line.ProductID, line.Quantity)
		}
		i, ok := position[line.ProductID]
		if !ok {
			position[line.ProductID] = len(merged)
			merged = append(merged, line)
			continue
		}
		if merged[i].Quantity > math.MaxInt-line.Quantity {
			return merged, line, fmt.Errorf("%w: combined order quantity of %s exceeds %d",
				catalogerrors.ErrValidation, line.ProductID, math.MaxInt)
		}
		merged[i].Quantity += line.Quantity
	}
	return merged, Line{}, nil
}
