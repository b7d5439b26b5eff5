package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	catalogerrors "github.com/abgdnv/storefront/internal/catalog/errors"
	"github.com/abgdnv/storefront/internal/catalog/product"
	"github.com/abgdnv/storefront/internal/catalog/seed"
	"github.com/abgdnv/storefront/internal/config"
	"github.com/abgdnv/storefront/internal/receipt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockReceiptStore is a mock implementation of the receipt.Store interface
type mockReceiptStore struct {
	mu       sync.Mutex
	saved    []receipt.Receipt
	receipts []receipt.Receipt
	error    error
}

// Simulate saving a receipt
func (m *mockReceiptStore) Save(_ context.Context, r receipt.Receipt) (*receipt.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.error != nil {
		return nil, m.error
	}
	r.ID = uuid.New()
	m.saved = append(m.saved, r)
	return &r, nil
}

// Simulate finding receipts
func (m *mockReceiptStore) FindAll(_ context.Context, _, _ int32) ([]receipt.Receipt, error) {
	return m.receipts, m.error
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// catalogIDs are the IDs of the default catalog products, in catalog order.
type catalogIDs struct {
	macbook, bose, pixel, windows, shipping uuid.UUID
}

func newTestService(t *testing.T, receipts receipt.Store) (CatalogService, catalogIDs) {
	t.Helper()
	catalog, err := seed.Build(config.CatalogConfig{})
	require.NoError(t, err)
	listings := catalog.Store.Products()
	require.Len(t, listings, 5)
	ids := catalogIDs{
		macbook:  listings[0].ID,
		bose:     listings[1].ID,
		pixel:    listings[2].ID,
		windows:  listings[3].ID,
		shipping: listings[4].ID,
	}
	return NewService(catalog.Store, catalog.Promotions, receipts, discard), ids
}

func Test_CatalogService_ListProducts(t *testing.T) {
	// given
	svc, ids := newTestService(t, &mockReceiptStore{})
	_, err := svc.SetActive(context.Background(), ids.pixel, false)
	require.NoError(t, err)
	// when
	list, err := svc.ListProducts(context.Background())
	// then
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, ids.macbook, list[0].ID)
	assert.Equal(t, "MacBook Air M2", list[0].Name)
	assert.Equal(t, "Second Half price!", list[0].Promotion)
	assert.Equal(t, ids.windows, list[2].ID)
	assert.True(t, list[2].Unlimited)
	require.NotNil(t, list[3].MaxPerOrder)
	assert.Equal(t, 1, *list[3].MaxPerOrder)
}

func Test_CatalogService_GetProduct(t *testing.T) {
	svc, ids := newTestService(t, &mockReceiptStore{})
	testCases := []struct {
		name        string
		id          uuid.UUID
		expectName  string
		expectError error
	}{
		{name: "Success - product found", id: ids.bose, expectName: "Bose QuietComfort Earbuds"},
		{name: "Error - product not found", id: uuid.New(), expectError: catalogerrors.ErrProductNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			found, err := svc.GetProduct(context.Background(), tc.id)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, found)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectName, found.Name)
		})
	}
}

func Test_CatalogService_CreateProduct(t *testing.T) {
	testCases := []struct {
		name        string
		dto         ProductCreateDto
		expectError error
		expectKind  string
	}{
		{
			name:       "Success - standard by default",
			dto:        ProductCreateDto{Name: "USB-C Cable", Price: decimal.RequireFromString("9.99"), Quantity: 40},
			expectKind: string(product.KindStandard),
		},
		{
			name:       "Success - capped with promotion",
			dto:        ProductCreateDto{Name: "Gift Wrap", Kind: "capped", Price: decimal.NewFromInt(3), Quantity: 10, MaxPerOrder: 2, Promotion: "30% off!"},
			expectKind: string(product.KindCapped),
		},
		{
			name:        "Error - unknown promotion",
			dto:         ProductCreateDto{Name: "Gift Wrap", Price: decimal.NewFromInt(3), Quantity: 10, Promotion: "Black Friday"},
			expectError: catalogerrors.ErrPromotionNotFound,
		},
		{
			name:        "Error - negative price",
			dto:         ProductCreateDto{Name: "Gift Wrap", Price: decimal.NewFromInt(-3), Quantity: 10},
			expectError: catalogerrors.ErrValidation,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc, _ := newTestService(t, &mockReceiptStore{})
			// when
			created, err := svc.CreateProduct(context.Background(), tc.dto)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, created)
				list, _ := svc.ListProducts(context.Background())
				assert.Len(t, list, 5)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, created.ID)
			assert.Equal(t, tc.expectKind, created.Kind)
			assert.True(t, created.Active)
			found, err := svc.GetProduct(context.Background(), created.ID)
			require.NoError(t, err)
			assert.Equal(t, *created, *found)
		})
	}
}

func Test_CatalogService_RemoveProduct(t *testing.T) {
	// given
	svc, ids := newTestService(t, &mockReceiptStore{})
	// when
	err := svc.RemoveProduct(context.Background(), ids.macbook)
	// then
	require.NoError(t, err)
	_, err = svc.GetProduct(context.Background(), ids.macbook)
	assert.ErrorIs(t, err, catalogerrors.ErrProductNotFound)
	assert.ErrorIs(t, svc.RemoveProduct(context.Background(), ids.macbook), catalogerrors.ErrProductNotFound)

	stock, err := svc.TotalQuantity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1000, stock.TotalQuantity)
}

func Test_CatalogService_SetPromotion(t *testing.T) {
	ctx := context.Background()

	t.Run("attach and detach", func(t *testing.T) {
		// given
		svc, ids := newTestService(t, &mockReceiptStore{})
		// when
		updated, err := svc.SetPromotion(ctx, ids.pixel, "Third One Free!")
		// then
		require.NoError(t, err)
		assert.Equal(t, "Third One Free!", updated.Promotion)

		result, err := svc.PlaceOrder(ctx, OrderCreateDto{Lines: []OrderLineDto{{ProductID: ids.pixel, Quantity: 3}}})
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(1000).Equal(result.Total), "total %s", result.Total)

		// when
		updated, err = svc.SetPromotion(ctx, ids.pixel, "")
		// then
		require.NoError(t, err)
		assert.Equal(t, product.NoPromotion, updated.Promotion)
	})

	t.Run("unknown promotion", func(t *testing.T) {
		svc, ids := newTestService(t, &mockReceiptStore{})
		_, err := svc.SetPromotion(ctx, ids.pixel, "Black Friday")
		assert.ErrorIs(t, err, catalogerrors.ErrPromotionNotFound)
	})

	t.Run("unknown product", func(t *testing.T) {
		svc, _ := newTestService(t, &mockReceiptStore{})
		_, err := svc.SetPromotion(ctx, uuid.New(), "Third One Free!")
		assert.ErrorIs(t, err, catalogerrors.ErrProductNotFound)
	})
}

func Test_CatalogService_SetActive(t *testing.T) {
	// given
	ctx := context.Background()
	svc, ids := newTestService(t, &mockReceiptStore{})
	// when
	updated, err := svc.SetActive(ctx, ids.bose, false)
	// then
	require.NoError(t, err)
	assert.False(t, updated.Active)
	result, err := svc.PlaceOrder(ctx, OrderCreateDto{Lines: []OrderLineDto{{ProductID: ids.bose, Quantity: 1}}})
	require.NoError(t, err)
	require.False(t, result.Succeeded)
	assert.Equal(t, catalogerrors.KindInactiveProduct, result.Lines[0].ErrorKind)

	// when
	updated, err = svc.SetActive(ctx, ids.bose, true)
	// then
	require.NoError(t, err)
	assert.True(t, updated.Active)
	_, err = svc.SetActive(ctx, uuid.New(), true)
	assert.ErrorIs(t, err, catalogerrors.ErrProductNotFound)
}

func Test_CatalogService_PlaceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - records a receipt", func(t *testing.T) {
		// given
		receipts := &mockReceiptStore{}
		svc, ids := newTestService(t, receipts)
		order := OrderCreateDto{Lines: []OrderLineDto{
			{ProductID: ids.macbook, Quantity: 2},
			{ProductID: ids.bose, Quantity: 3},
			{ProductID: ids.shipping, Quantity: 1},
		}}
		// when
		result, err := svc.PlaceOrder(ctx, order)
		// then
		require.NoError(t, err)
		assert.True(t, result.Succeeded)
		assert.True(t, decimal.NewFromInt(2685).Equal(result.Total), "total %s", result.Total)
		require.Len(t, result.Lines, 3)
		require.NotNil(t, result.ReceiptID)
		require.Len(t, receipts.saved, 1)
		assert.Equal(t, *result.ReceiptID, receipts.saved[0].ID)
		assert.Len(t, receipts.saved[0].Lines, 3)
		assert.Nil(t, receipts.saved[0].Failure)

		stock, err := svc.TotalQuantity(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1094, stock.TotalQuantity)
	})

	t.Run("Failure - stops at the first failed line", func(t *testing.T) {
		// given
		receipts := &mockReceiptStore{}
		svc, ids := newTestService(t, receipts)
		order := OrderCreateDto{Lines: []OrderLineDto{
			{ProductID: ids.pixel, Quantity: 1},
			{ProductID: ids.shipping, Quantity: 2},
			{ProductID: ids.macbook, Quantity: 1},
		}}
		// when
		result, err := svc.PlaceOrder(ctx, order)
		// then
		require.NoError(t, err)
		assert.False(t, result.Succeeded)
		assert.True(t, decimal.NewFromInt(500).Equal(result.Total), "total %s", result.Total)
		require.Len(t, result.Lines, 2)
		assert.Empty(t, result.Lines[0].Error)
		assert.Equal(t, catalogerrors.KindOrderLimitExceeded, result.Lines[1].ErrorKind)
		require.Len(t, receipts.saved, 1)
		require.NotNil(t, receipts.saved[0].Failure)
		assert.Equal(t, ids.shipping, receipts.saved[0].Failure.ProductID)
	})

	t.Run("Failure - negative line is not merged into the order", func(t *testing.T) {
		// given
		receipts := &mockReceiptStore{}
		svc, ids := newTestService(t, receipts)
		order := OrderCreateDto{Lines: []OrderLineDto{
			{ProductID: ids.shipping, Quantity: 5},
			{ProductID: ids.shipping, Quantity: -4},
		}}
		// when
		result, err := svc.PlaceOrder(ctx, order)
		// then
		require.NoError(t, err)
		assert.False(t, result.Succeeded)
		assert.True(t, result.Total.IsZero(), "total %s", result.Total)
		require.Len(t, result.Lines, 1)
		assert.Equal(t, 5, result.Lines[0].Quantity)
		assert.Equal(t, catalogerrors.KindOrderLimitExceeded, result.Lines[0].ErrorKind)
		stock, err := svc.TotalQuantity(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1100, stock.TotalQuantity)
	})

	t.Run("Failure - negative line stops the order", func(t *testing.T) {
		// given
		receipts := &mockReceiptStore{}
		svc, ids := newTestService(t, receipts)
		order := OrderCreateDto{Lines: []OrderLineDto{
			{ProductID: ids.pixel, Quantity: 1},
			{ProductID: ids.bose, Quantity: -1},
			{ProductID: ids.macbook, Quantity: 1},
		}}
		// when
		result, err := svc.PlaceOrder(ctx, order)
		// then
		require.NoError(t, err)
		assert.False(t, result.Succeeded)
		assert.True(t, decimal.NewFromInt(500).Equal(result.Total), "total %s", result.Total)
		require.Len(t, result.Lines, 2)
		assert.Equal(t, "Bose QuietComfort Earbuds", result.Lines[1].Name)
		assert.Equal(t, catalogerrors.KindValidation, result.Lines[1].ErrorKind)
		require.Len(t, receipts.saved, 1)
		require.NotNil(t, receipts.saved[0].Failure)
		assert.Equal(t, -1, receipts.saved[0].Failure.Quantity)
	})

	t.Run("Empty order is not journaled", func(t *testing.T) {
		// given
		receipts := &mockReceiptStore{}
		svc, _ := newTestService(t, receipts)
		// when
		result, err := svc.PlaceOrder(ctx, OrderCreateDto{})
		// then
		require.NoError(t, err)
		assert.True(t, result.Succeeded)
		assert.True(t, result.Total.IsZero())
		assert.Empty(t, result.Lines)
		assert.Nil(t, result.ReceiptID)
		assert.Empty(t, receipts.saved)
	})

	t.Run("Journal failure keeps the order", func(t *testing.T) {
		// given
		receipts := &mockReceiptStore{error: catalogerrors.ErrSaveReceipt}
		svc, ids := newTestService(t, receipts)
		// when
		result, err := svc.PlaceOrder(ctx, OrderCreateDto{Lines: []OrderLineDto{{ProductID: ids.pixel, Quantity: 1}}})
		// then
		require.NoError(t, err)
		assert.True(t, result.Succeeded)
		assert.Nil(t, result.ReceiptID)
		stock, _ := svc.TotalQuantity(ctx)
		assert.Equal(t, 1099, stock.TotalQuantity)
	})
}

func Test_CatalogService_PlaceOrderConcurrently(t *testing.T) {
	// given
	ctx := context.Background()
	svc, ids := newTestService(t, receipt.NewInMemoryStore())
	var wg sync.WaitGroup
	// when
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.PlaceOrder(ctx, OrderCreateDto{Lines: []OrderLineDto{{ProductID: ids.pixel, Quantity: 1}}})
		}()
	}
	wg.Wait()
	// then
	found, err := svc.GetProduct(ctx, ids.pixel)
	require.NoError(t, err)
	assert.Equal(t, 200, found.Quantity)
	receipts, err := svc.ListReceipts(ctx, 0, 100)
	require.NoError(t, err)
	assert.Len(t, receipts, 50)
}

func Test_CatalogService_ListReceipts(t *testing.T) {
	t.Run("Success - converts receipts", func(t *testing.T) {
		// given
		id := uuid.New()
		receipts := &mockReceiptStore{receipts: []receipt.Receipt{{
			ID:      id,
			Total:   decimal.NewFromInt(10),
			Lines:   []receipt.Line{{Name: "Shipping", Quantity: 1, Charge: decimal.NewFromInt(10)}},
			Failure: &receipt.Failure{Name: "Google Pixel 7", Quantity: 300, Kind: catalogerrors.KindOutOfStock, Message: "insufficient stock"},
		}}}
		svc, _ := newTestService(t, receipts)
		// when
		list, err := svc.ListReceipts(context.Background(), 0, 10)
		// then
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, id, list[0].ID)
		require.Len(t, list[0].Lines, 1)
		assert.True(t, decimal.NewFromInt(10).Equal(*list[0].Lines[0].Charge))
		require.NotNil(t, list[0].Failure)
		assert.Equal(t, catalogerrors.KindOutOfStock, list[0].Failure.ErrorKind)
		assert.Nil(t, list[0].Failure.Charge)
	})

	t.Run("Error - store failure", func(t *testing.T) {
		// given
		svc, _ := newTestService(t, &mockReceiptStore{error: catalogerrors.ErrFindReceipts})
		// when
		list, err := svc.ListReceipts(context.Background(), 0, 10)
		// then
		assert.True(t, errors.Is(err, catalogerrors.ErrFindReceipts))
		assert.Nil(t, list)
	})
}
