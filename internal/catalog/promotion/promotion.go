// Package promotion implements the price strategies a product can carry.
//
// A Promotion is a closed set of pricing rules: every kind is handled in Apply,
// and the zero value prices linearly. Promotions hold no state and never touch
// the product they are attached to.
package promotion

import (
	"fmt"

	catalogerrors "github.com/abgdnv/storefront/internal/catalog/errors"
	"github.com/abgdnv/storefront/internal/platform/validate"
	"github.com/shopspring/decimal"
)

// Kind identifies a pricing rule.
type Kind string

const (
	KindSecondHalfPrice Kind = "second_half_price"
	KindThirdOneFree    Kind = "third_one_free"
	KindPercentDiscount Kind = "percent_discount"
)

var (
	hundred      = decimal.NewFromInt(100)
	threeQuarter = decimal.NewFromFloat(0.75)
)

// Promotion is a named price strategy.
type Promotion struct {
	name    string
	kind    Kind
	percent decimal.Decimal
}

type params struct {
	Name    string          `validate:"required"`
	Percent decimal.Decimal `validate:"decimal_gte=0,decimal_lte=100"`
}

// NewSecondHalfPrice discounts every second unit by 25%.
func NewSecondHalfPrice(name string) (*Promotion, error) {
	return newPromotion(name, KindSecondHalfPrice, decimal.Zero)
}

// NewThirdOneFree makes every third unit free.
func NewThirdOneFree(name string) (*Promotion, error) {
	return newPromotion(name, KindThirdOneFree, decimal.Zero)
}

// NewPercentDiscount takes percent off the whole line. percent must be within [0, 100].
func NewPercentDiscount(name string, percent decimal.Decimal) (*Promotion, error) {
	return newPromotion(name, KindPercentDiscount, percent)
}

// New builds a promotion of the given kind; percent is ignored unless kind is KindPercentDiscount.
func New(name string, kind Kind, percent decimal.Decimal) (*Promotion, error) {
	switch kind {
	case KindSecondHalfPrice:
		return NewSecondHalfPrice(name)
	case KindThirdOneFree:
		return NewThirdOneFree(name)
	case KindPercentDiscount:
		return NewPercentDiscount(name, percent)
	default:
		return nil, fmt.Errorf("%w: unknown promotion kind %q", catalogerrors.ErrValidation, kind)
	}
}

func newPromotion(name string, kind Kind, percent decimal.Decimal) (*Promotion, error) {
	if err := validate.Struct(params{Name: name, Percent: percent}); err != nil {
		return nil, fmt.Errorf("%w: promotion %q: %s", catalogerrors.ErrValidation, name, validate.Describe(err))
	}
	return &Promotion{name: name, kind: kind, percent: percent}, nil
}

// Name returns the display label.
func (p Promotion) Name() string { return p.name }

// Kind returns the pricing rule.
func (p Promotion) Kind() Kind { return p.kind }

// Percent returns the discount of a percent promotion, zero for the other kinds.
func (p Promotion) Percent() decimal.Decimal { return p.percent }

// Apply returns the total charge for quantity units at unitPrice. The result is not rounded.
func (p Promotion) Apply(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	q := decimal.NewFromInt(int64(quantity))
	switch p.kind {
	case KindSecondHalfPrice:
		if quantity%2 == 1 {
			return threeQuarter.Mul(q.Sub(decimal.NewFromInt(1))).Mul(unitPrice).Add(unitPrice)
		}
		return threeQuarter.Mul(q).Mul(unitPrice)
	case KindThirdOneFree:
		// 2*q/3 is exact when q is a multiple of three, so both branches reduce to this.
		paid := 2*(quantity/3) + quantity%3
		return unitPrice.Mul(decimal.NewFromInt(int64(paid)))
	case KindPercentDiscount:
		return q.Mul(unitPrice).Mul(hundred.Sub(p.percent)).Div(hundred)
	default:
		return unitPrice.Mul(q)
	}
}
