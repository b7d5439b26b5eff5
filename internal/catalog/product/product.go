// Package product provides the sellable items of the catalog.
//
// Every variant runs the same purchase pipeline over two policies: how stock
// is tracked (counted or unlimited) and whether a single purchase is capped.
// Standard, Unlimited and Capped are the named combinations of those policies.
package product

import (
	"fmt"

	catalogerrors "github.com/abgdnv/storefront/internal/catalog/errors"
	"github.com/abgdnv/storefront/internal/catalog/promotion"
	"github.com/abgdnv/storefront/internal/platform/validate"
	"github.com/shopspring/decimal"
)

// NoPromotion is the promotion label reported when none is attached.
const NoPromotion = "none"

// Product is the capability set shared by every variant.
type Product interface {
	Name() string
	Price() decimal.Decimal

	// Quantity returns the units in stock; always 0 for unlimited products.
	Quantity() int

	// SetQuantity replaces the stock. Reaching exactly zero deactivates a stock-tracked product;
	// a positive quantity never reactivates it.
	SetQuantity(quantity int) error

	IsActive() bool
	Activate()
	Deactivate()

	Promotion() *promotion.Promotion
	// SetPromotion attaches p, replacing any previous promotion. nil detaches.
	SetPromotion(p *promotion.Promotion)

	// Describe returns a snapshot for presentation layers.
	Describe() Snapshot

	// Purchase takes quantity units and returns the charge rounded to cents.
	// It fails with ErrValidation, ErrInactiveProduct, ErrOrderLimitExceeded or ErrOutOfStock,
	// checked in that order, and changes nothing on failure.
	Purchase(quantity int) (decimal.Decimal, error)
}

// Snapshot is a structured, render-free view of a product.
type Snapshot struct {
	Kind        Kind
	Name        string
	Price       decimal.Decimal
	Quantity    int
	Unlimited   bool
	MaxPerOrder *int
	Promotion   string
	Active      bool
}

// stocking decides how units are counted.
type stocking interface {
	quantity() int
	setQuantity(q int) (depleted bool)
	checkAvailable(q int) error
	unlimited() bool
}

// tracked counts units down to zero.
type tracked struct {
	units int
}

func (t *tracked) quantity() int { return t.units }

func (t *tracked) setQuantity(q int) bool {
	t.units = q
	return q == 0
}

func (t *tracked) checkAvailable(q int) error {
	if q > t.units {
		return fmt.Errorf("%w: available %d, requested %d", catalogerrors.ErrOutOfStock, t.units, q)
	}
	return nil
}

func (t *tracked) unlimited() bool { return false }

// untracked never runs out and always reports zero units.
type untracked struct{}

func (untracked) quantity() int            { return 0 }
func (untracked) setQuantity(int) bool     { return false }
func (untracked) checkAvailable(int) error { return nil }
func (untracked) unlimited() bool          { return true }

type params struct {
	Name        string          `validate:"required"`
	Price       decimal.Decimal `validate:"decimal_gte=0"`
	Quantity    int             `validate:"gte=0"`
	MaxPerOrder int             `validate:"gte=0"`
}

// base carries the state and the purchase pipeline of all variants.
type base struct {
	kind        Kind
	name        string
	price       decimal.Decimal
	active      bool
	promotion   *promotion.Promotion
	stock       stocking
	maxPerOrder *int
}

func newBase(kind Kind, name string, price decimal.Decimal, stock stocking, quantity int, maxPerOrder *int) (base, error) {
	p := params{Name: name, Price: price, Quantity: quantity}
	if maxPerOrder != nil {
		p.MaxPerOrder = *maxPerOrder
	}
	if err := validate.Struct(p); err != nil {
		return base{}, fmt.Errorf("%w: product %q: %s", catalogerrors.ErrValidation, name, validate.Describe(err))
	}
	stock.setQuantity(quantity)
	return base{
		kind:        kind,
		name:        name,
		price:       price,
		active:      true,
		stock:       stock,
		maxPerOrder: maxPerOrder,
	}, nil
}

func (b *base) Name() string           { return b.name }
func (b *base) Price() decimal.Decimal { return b.price }
func (b *base) Quantity() int          { return b.stock.quantity() }
func (b *base) IsActive() bool         { return b.active }
func (b *base) Activate()              { b.active = true }
func (b *base) Deactivate()            { b.active = false }

func (b *base) Promotion() *promotion.Promotion     { return b.promotion }
func (b *base) SetPromotion(p *promotion.Promotion) { b.promotion = p }

func (b *base) SetQuantity(quantity int) error {
	if b.stock.unlimited() {
		return nil
	}
	if quantity < 0 {
		return fmt.Errorf("%w: quantity of %q must not be negative, got %d", catalogerrors.ErrValidation, b.name, quantity)
	}
	if b.stock.setQuantity(quantity) {
		b.Deactivate()
	}
	return nil
}

func (b *base) Describe() Snapshot {
	label := NoPromotion
	if b.promotion != nil {
		label = b.promotion.Name()
	}
	var maxPerOrder *int
	if b.maxPerOrder != nil {
		m := *b.maxPerOrder
		maxPerOrder = &m
	}
	return Snapshot{
		Kind:        b.kind,
		Name:        b.name,
		Price:       b.price,
		Quantity:    b.stock.quantity(),
		Unlimited:   b.stock.unlimited(),
		MaxPerOrder: maxPerOrder,
		Promotion:   label,
		Active:      b.active,
	}
}

func (b *base) Purchase(quantity int) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, fmt.Errorf("%w: purchase quantity of %q must be positive, got %d", catalogerrors.ErrValidation, b.name, quantity)
	}
	if !b.active {
		return decimal.Zero, fmt.Errorf("%w: %q", catalogerrors.ErrInactiveProduct, b.name)
	}
	if b.maxPerOrder != nil && quantity > *b.maxPerOrder {
		return decimal.Zero, fmt.Errorf("%w: %q allows at most %d per order, requested %d",
			catalogerrors.ErrOrderLimitExceeded, b.name, *b.maxPerOrder, quantity)
	}
	if err := b.stock.checkAvailable(quantity); err != nil {
		return decimal.Zero, fmt.Errorf("%q: %w", b.name, err)
	}
	if !b.stock.unlimited() {
		if err := b.SetQuantity(b.stock.quantity() - quantity); err != nil {
			return decimal.Zero, err
		}
	}
	return b.charge(quantity), nil
}

// charge prices quantity units, rounding half to even at cents.
func (b *base) charge(quantity int) decimal.Decimal {
	var total decimal.Decimal
	if b.promotion != nil {
		total = b.promotion.Apply(b.price, quantity)
	} else {
		total = b.price.Mul(decimal.NewFromInt(int64(quantity)))
	}
	return total.RoundBank(2)
}
