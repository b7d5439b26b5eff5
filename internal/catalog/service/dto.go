package service

import (
	"time"

	catalogerrors "github.com/abgdnv/storefront/internal/catalog/errors"
	"github.com/abgdnv/storefront/internal/catalog/product"
	"github.com/abgdnv/storefront/internal/catalog/store"
	"github.com/abgdnv/storefront/internal/receipt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID          uuid.UUID       `json:"id"`
	Kind        string          `json:"kind"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Unlimited   bool            `json:"unlimited"`
	MaxPerOrder *int            `json:"maxPerOrder,omitempty"`
	Promotion   string          `json:"promotion"`
	Active      bool            `json:"active"`
}

// ProductCreateDto represents the data transfer object for creating a new product.
type ProductCreateDto struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Kind        string          `json:"kind" validate:"omitempty,oneof=standard unlimited capped capped_unlimited"`
	Price       decimal.Decimal `json:"price" validate:"decimal_gte=0"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
	MaxPerOrder int             `json:"maxPerOrder" validate:"gte=0"`
	Promotion   string          `json:"promotion" validate:"max=100"`
}

// PromotionUpdateDto names the promotion to attach. An empty name detaches the current one.
type PromotionUpdateDto struct {
	Name string `json:"name" validate:"max=100"`
}

// ActiveUpdateDto switches a product on or off.
type ActiveUpdateDto struct {
	Active *bool `json:"active" validate:"required"`
}

// StockDto is the total quantity held across all products.
type StockDto struct {
	TotalQuantity int `json:"totalQuantity"`
}

// OrderCreateDto is a shopping list.
type OrderCreateDto struct {
	Lines []OrderLineDto `json:"lines" validate:"dive"`
}

// OrderLineDto asks for quantity units of a product. A non-positive quantity stops the order at that line.
type OrderLineDto struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity"`
}

// OrderResultDto reports an executed order.
type OrderResultDto struct {
	Total     decimal.Decimal  `json:"total"`
	Succeeded bool             `json:"succeeded"`
	Lines     []LineOutcomeDto `json:"lines"`
	ReceiptID *uuid.UUID       `json:"receiptId,omitempty"`
}

// LineOutcomeDto reports one attempted order line.
type LineOutcomeDto struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	Charge    decimal.Decimal `json:"charge"`
	Error     string          `json:"error,omitempty"`
	ErrorKind string          `json:"errorKind,omitempty"`
}

// ReceiptDto represents a journaled order.
type ReceiptDto struct {
	ID        uuid.UUID        `json:"id"`
	Total     decimal.Decimal  `json:"total"`
	Lines     []ReceiptLineDto `json:"lines"`
	Failure   *ReceiptLineDto  `json:"failure,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// ReceiptLineDto is a purchased line or, as a receipt failure, the line that stopped the order.
type ReceiptLineDto struct {
	ProductID uuid.UUID        `json:"productId"`
	Name      string           `json:"name"`
	Quantity  int              `json:"quantity"`
	Charge    *decimal.Decimal `json:"charge,omitempty"`
	ErrorKind string           `json:"errorKind,omitempty"`
	Error     string           `json:"error,omitempty"`
}

func toProductDto(id uuid.UUID, p product.Product) ProductDto {
	s := p.Describe()
	return ProductDto{
		ID:          id,
		Kind:        string(s.Kind),
		Name:        s.Name,
		Price:       s.Price,
		Quantity:    s.Quantity,
		Unlimited:   s.Unlimited,
		MaxPerOrder: s.MaxPerOrder,
		Promotion:   s.Promotion,
		Active:      s.Active,
	}
}

func toOrderResultDto(result store.Result) OrderResultDto {
	_, failed := result.Failed()
	dto := OrderResultDto{
		Total:     result.Total,
		Succeeded: !failed,
		Lines:     make([]LineOutcomeDto, 0, len(result.Outcomes)),
	}
	for _, o := range result.Outcomes {
		line := LineOutcomeDto{
			ProductID: o.ProductID,
			Name:      o.Name,
			Quantity:  o.Quantity,
			Charge:    o.Charge,
		}
		if o.Err != nil {
			line.Error = o.Err.Error()
			line.ErrorKind = catalogerrors.Kind(o.Err)
		}
		dto.Lines = append(dto.Lines, line)
	}
	return dto
}

func toReceiptDto(r receipt.Receipt) ReceiptDto {
	dto := ReceiptDto{
		ID:        r.ID,
		Total:     r.Total,
		Lines:     make([]ReceiptLineDto, 0, len(r.Lines)),
		CreatedAt: r.CreatedAt,
	}
	for _, l := range r.Lines {
		charge := l.Charge
		dto.Lines = append(dto.Lines, ReceiptLineDto{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Charge:    &charge,
		})
	}
	if f := r.Failure; f != nil {
		dto.Failure = &ReceiptLineDto{
			ProductID: f.ProductID,
			Name:      f.Name,
			Quantity:  f.Quantity,
			ErrorKind: f.Kind,
			Error:     f.Message,
		}
	}
	return dto
}
