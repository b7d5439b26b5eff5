package receipt

import (
	"context"
	"fmt"
	"testing"
	"time"

	catalogerrors "github.com/abgdnv/storefront/internal/catalog/errors"
	"github.com/abgdnv/storefront/internal/catalog/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FromResult(t *testing.T) {
	macbook, shipping := uuid.New(), uuid.New()

	t.Run("Success - every line purchased", func(t *testing.T) {
		// given
		result := store.Result{
			Total: decimal.NewFromInt(1460),
			Outcomes: []store.LineOutcome{
				{ProductID: macbook, Name: "MacBook Air M2", Quantity: 1, Charge: decimal.NewFromInt(1450)},
				{ProductID: shipping, Name: "Shipping", Quantity: 1, Charge: decimal.NewFromInt(10)},
			},
		}
		// when
		r := FromResult(result)
		// then
		assert.True(t, decimal.NewFromInt(1460).Equal(r.Total))
		require.Len(t, r.Lines, 2)
		assert.Equal(t, "Shipping", r.Lines[1].Name)
		assert.Nil(t, r.Failure)
	})

	t.Run("Failure - stopped order keeps the failing line", func(t *testing.T) {
		// given
		result := store.Result{
			Total: decimal.NewFromInt(1450),
			Outcomes: []store.LineOutcome{
				{ProductID: macbook, Name: "MacBook Air M2", Quantity: 1, Charge: decimal.NewFromInt(1450)},
				{ProductID: shipping, Name: "Shipping", Quantity: 2, Err: fmt.Errorf("%w: at most 1", catalogerrors.ErrOrderLimitExceeded)},
			},
		}
		// when
		r := FromResult(result)
		// then
		require.Len(t, r.Lines, 1)
		require.NotNil(t, r.Failure)
		assert.Equal(t, shipping, r.Failure.ProductID)
		assert.Equal(t, 2, r.Failure.Quantity)
		assert.Equal(t, catalogerrors.KindOrderLimitExceeded, r.Failure.Kind)
		assert.Contains(t, r.Failure.Message, "at most 1")
	})
}

func Test_InMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Save sets ID and creation time", func(t *testing.T) {
		// given
		s := NewInMemoryStore()
		// when
		saved, err := s.Save(ctx, Receipt{Total: decimal.NewFromInt(10)})
		// then
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, saved.ID)
		assert.WithinDuration(t, time.Now(), saved.CreatedAt, time.Second)
	})

	t.Run("Save copies the receipt", func(t *testing.T) {
		// given
		s := NewInMemoryStore()
		r := Receipt{Lines: []Line{{Name: "Pen", Quantity: 1}}, Failure: &Failure{Name: "Ink"}}
		_, err := s.Save(ctx, r)
		require.NoError(t, err)
		// when
		r.Lines[0].Name = "Pencil"
		r.Failure.Name = "Eraser"
		// then
		list, err := s.FindAll(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Pen", list[0].Lines[0].Name)
		assert.Equal(t, "Ink", list[0].Failure.Name)
	})

	t.Run("FindAll pages newest first", func(t *testing.T) {
		// given
		s := NewInMemoryStore()
		for i := 1; i <= 5; i++ {
			_, err := s.Save(ctx, Receipt{Total: decimal.NewFromInt(int64(i))})
			require.NoError(t, err)
		}
		testCases := []struct {
			offset, limit int32
			expectTotals  []int64
		}{
			{offset: 0, limit: 2, expectTotals: []int64{5, 4}},
			{offset: 2, limit: 2, expectTotals: []int64{3, 2}},
			{offset: 4, limit: 2, expectTotals: []int64{1}},
			{offset: 5, limit: 2, expectTotals: []int64{}},
			{offset: 0, limit: 0, expectTotals: []int64{}},
		}
		for _, tc := range testCases {
			// when
			list, err := s.FindAll(ctx, tc.offset, tc.limit)
			// then
			require.NoError(t, err)
			totals := make([]int64, 0, len(list))
			for _, r := range list {
				totals = append(totals, r.Total.IntPart())
			}
			assert.Equal(t, tc.expectTotals, totals, "offset %d limit %d", tc.offset, tc.limit)
		}
	})
}
