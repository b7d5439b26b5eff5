package product

import (
	"fmt"

	catalogerrors "github.com/abgdnv/storefront/internal/catalog/errors"
	"github.com/shopspring/decimal"
)

// Kind names a combination of stocking and cap policies.
type Kind string

const (
	KindStandard        Kind = "standard"
	KindUnlimited       Kind = "unlimited"
	KindCapped          Kind = "capped"
	KindCappedUnlimited Kind = "capped_unlimited"
)

var (
	_ Product = (*Standard)(nil)
	_ Product = (*Unlimited)(nil)
	_ Product = (*Capped)(nil)
)

// Standard is a stock-tracked product that deactivates when it sells out.
type Standard struct {
	base
}

// NewStandard creates a stock-tracked product.
func NewStandard(name string, price decimal.Decimal, quantity int) (*Standard, error) {
	b, err := newBase(KindStandard, name, price, &tracked{}, quantity, nil)
	if err != nil {
		return nil, err
	}
	return &Standard{base: b}, nil
}

// Unlimited is never out of stock; its quantity is always zero.
type Unlimited struct {
	base
}

// NewUnlimited creates a product without stock, e.g. a license or a service.
func NewUnlimited(name string, price decimal.Decimal) (*Unlimited, error) {
	b, err := newBase(KindUnlimited, name, price, untracked{}, 0, nil)
	if err != nil {
		return nil, err
	}
	return &Unlimited{base: b}, nil
}

// Capped limits how many units a single purchase may take.
type Capped struct {
	base
}

// NewCapped creates a stock-tracked product that sells at most maxPerOrder units per purchase.
func NewCapped(name string, price decimal.Decimal, quantity, maxPerOrder int) (*Capped, error) {
	b, err := newBase(KindCapped, name, price, &tracked{}, quantity, &maxPerOrder)
	if err != nil {
		return nil, err
	}
	return &Capped{base: b}, nil
}

// NewCappedUnlimited creates a product without stock that still sells at most maxPerOrder units per purchase.
func NewCappedUnlimited(name string, price decimal.Decimal, maxPerOrder int) (*Capped, error) {
	b, err := newBase(KindCappedUnlimited, name, price, untracked{}, 0, &maxPerOrder)
	if err != nil {
		return nil, err
	}
	return &Capped{base: b}, nil
}

// MaxPerOrder returns the per-purchase ceiling.
func (c *Capped) MaxPerOrder() int {
	return *c.maxPerOrder
}

// New creates a product of the given kind. quantity is ignored for unlimited kinds
// and maxPerOrder for uncapped ones.
func New(kind Kind, name string, price decimal.Decimal, quantity, maxPerOrder int) (Product, error) {
	var (
		p   Product
		err error
	)
	switch kind {
	case KindStandard:
		var s *Standard
		s, err = NewStandard(name, price, quantity)
		p = s
	case KindUnlimited:
		var u *Unlimited
		u, err = NewUnlimited(name, price)
		p = u
	case KindCapped:
		var c *Capped
		c, err = NewCapped(name, price, quantity, maxPerOrder)
		p = c
	case KindCappedUnlimited:
		var c *Capped
		c, err = NewCappedUnlimited(name, price, maxPerOrder)
		p = c
	default:
		err = fmt.Errorf("%w: unknown product kind %q", catalogerrors.ErrValidation, kind)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
