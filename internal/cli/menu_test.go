package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/abgdnv/storefront/internal/catalog/seed"
	"github.com/abgdnv/storefront/internal/catalog/service"
	"github.com/abgdnv/storefront/internal/config"
	"github.com/abgdnv/storefront/internal/receipt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMenu(t *testing.T, input string) string {
	t.Helper()
	catalog, err := seed.Build(config.CatalogConfig{})
	require.NoError(t, err)
	svc := service.NewService(catalog.Store, catalog.Promotions, receipt.NewInMemoryStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	var out bytes.Buffer
	require.NoError(t, NewMenu(svc, strings.NewReader(input), &out).Run(context.Background()))
	return out.String()
}

func Test_Menu_Run(t *testing.T) {
	testCases := []struct {
		name           string
		input          string
		expectContains []string
		expectMissing  []string
	}{
		{
			name:  "list products",
			input: "1\n4\n",
			expectContains: []string{
				"   Store Menu",
				"1. MacBook Air M2, Price: $1450, Quantity: 100, Promotion: Second Half price!",
				"4. Windows License, Price: $125, Quantity: Unlimited, Promotion: 30% off!",
				"5. Shipping, Price: $10, Quantity: 250, Limited to 1 per order!, Promotion: none",
			},
		},
		{
			name:           "show total amount",
			input:          "2\n4\n",
			expectContains: []string{"Total of 1100 items in store"},
		},
		{
			name:  "order stops at the capped line",
			input: "3\n1\n2\n5\n2\n\n4\n",
			expectContains: []string{
				"When you want to finish order, enter empty text.",
				"Product added to shopping list!",
				"MacBook Air M2 was successfully purchased.",
				"Error while processing the order! Shipping: order limit exceeded",
				"Order made! Total payment: $2175.00",
			},
		},
		{
			name:  "order with discounts",
			input: "3\n2\n3\n4\n1\n\n4\n",
			expectContains: []string{
				"Bose QuietComfort Earbuds was successfully purchased.",
				"Windows License was successfully purchased.",
				"Order made! Total payment: $587.50",
			},
		},
		{
			name:  "invalid order input re-prompts",
			input: "3\nx\n9\n1\nmany\n\n4\n",
			expectContains: []string{
				"Error while taking order! wrong product input",
				"Error while taking order! wrong quantity input",
				"Order was canceled.",
			},
			expectMissing: []string{"Order made!"},
		},
		{
			name:           "invalid action re-prompts",
			input:          "0\nabc\n4\n",
			expectContains: []string{"Wrong input, try again"},
		},
		{
			name:           "end of input quits",
			input:          "",
			expectContains: []string{"Please choose an action number: "},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			out := runMenu(t, tc.input)
			// then
			for _, s := range tc.expectContains {
				assert.Contains(t, out, s)
			}
			for _, s := range tc.expectMissing {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func Test_Menu_OrderUpdatesStock(t *testing.T) {
	// when
	out := runMenu(t, "3\n3\n10\n\n2\n4\n")
	// then
	assert.Contains(t, out, "Order made! Total payment: $5000.00")
	assert.Contains(t, out, "Total of 1090 items in store")
}
