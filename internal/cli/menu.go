// Package cli implements the interactive store menu over a catalog service.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/abgdnv/storefront/internal/catalog/service"
)

// Menu drives the catalog from line-oriented input.
type Menu struct {
	svc service.CatalogService
	in  *bufio.Scanner
	out io.Writer
}

type action struct {
	title string
	run   func(ctx context.Context) (quit bool, err error)
}

// NewMenu creates a Menu reading answers from in and writing prompts to out.
func NewMenu(svc service.CatalogService, in io.Reader, out io.Writer) *Menu {
	return &Menu{svc: svc, in: bufio.NewScanner(in), out: out}
}

// Run shows the menu until the user quits or the input ends.
func (m *Menu) Run(ctx context.Context) error {
	actions := []action{
		{title: "List all products in store", run: m.listProducts},
		{title: "Show total amount in store", run: m.showTotal},
		{title: "Make an order", run: m.makeOrder},
		{title: "Quit", run: func(context.Context) (bool, error) { return true, nil }},
	}
	for {
		m.printActions(actions)
		choice, ok := m.chooseAction(len(actions))
		if !ok {
			return nil
		}
		quit, err := actions[choice-1].run(ctx)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

func (m *Menu) printActions(actions []action) {
	m.printf("\n   Store Menu\n   ----------\n")
	for i, a := range actions {
		m.printf("%d. %s\n", i+1, a.title)
	}
	m.printf("\n")
}

// chooseAction prompts until a valid action number is entered. It reports false when the input ends.
func (m *Menu) chooseAction(count int) (int, bool) {
	for {
		answer, ok := m.ask("Please choose an action number: ")
		if !ok {
			return 0, false
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= count {
			return n, true
		}
		m.printf("Wrong input, try again\n")
	}
}

func (m *Menu) listProducts(ctx context.Context) (bool, error) {
	_, err := m.showProducts(ctx)
	return false, err
}

// showProducts prints the numbered active products and returns them in display order.
func (m *Menu) showProducts(ctx context.Context) ([]service.ProductDto, error) {
	products, err := m.svc.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	m.printf("------\n")
	if len(products) == 0 {
		m.printf("No more products in store.\n")
	}
	for i, p := range products {
		m.printf("%d. %s\n", i+1, describe(p))
	}
	m.printf("------\n")
	return products, nil
}

func (m *Menu) showTotal(ctx context.Context) (bool, error) {
	stock, err := m.svc.TotalQuantity(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to compute stock: %w", err)
	}
	m.printf("Total of %d items in store\n", stock.TotalQuantity)
	return false, nil
}

func (m *Menu) makeOrder(ctx context.Context) (bool, error) {
	products, err := m.showProducts(ctx)
	if err != nil {
		return false, err
	}
	if len(products) == 0 {
		m.printf("Sorry, we have no products in stock. Action unavailable.\n")
		return false, nil
	}

	var order service.OrderCreateDto
	m.printf("When you want to finish order, enter empty text.\n")
	for {
		line, done, err := m.askOrderLine(products)
		if done {
			break
		}
		if err != nil {
			m.printf("Error while taking order! %v\n\n", err)
			continue
		}
		order.Lines = append(order.Lines, line)
		m.printf("Product added to shopping list!\n\n")
	}

	if len(order.Lines) == 0 {
		m.printf("Order was canceled.\n")
		return false, nil
	}
	result, err := m.svc.PlaceOrder(ctx, order)
	if err != nil {
		return false, fmt.Errorf("failed to place order: %w", err)
	}
	for _, l := range result.Lines {
		if l.Error != "" {
			m.printf("Error while processing the order! %s: %s\n", nameOr(l.Name, l.ProductID.String()), l.Error)
			continue
		}
		m.printf("%s was successfully purchased.\n", l.Name)
	}
	m.printf("Order made! Total payment: $%s\n", result.Total.StringFixed(2))
	return false, nil
}

// askOrderLine reads a product number and a quantity. An empty answer, or the end of input, finishes the order.
func (m *Menu) askOrderLine(products []service.ProductDto) (line service.OrderLineDto, done bool, err error) {
	answer, ok := m.ask("Which product # do you want? ")
	if !ok || answer == "" {
		return line, true, nil
	}
	n, convErr := strconv.Atoi(answer)
	if convErr != nil || n < 1 || n > len(products) {
		return line, false, fmt.Errorf("wrong product input")
	}
	answer, ok = m.ask("What amount do you want? ")
	if !ok || answer == "" {
		return line, true, nil
	}
	quantity, convErr := strconv.Atoi(answer)
	if convErr != nil || quantity < 0 {
		return line, false, fmt.Errorf("wrong quantity input")
	}
	return service.OrderLineDto{ProductID: products[n-1].ID, Quantity: quantity}, false, nil
}

// ask prints prompt and reads one trimmed line. It reports false when the input ends.
func (m *Menu) ask(prompt string) (string, bool) {
	m.printf("%s", prompt)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

func (m *Menu) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(m.out, format, args...)
}

// describe renders a product the way the menu lists it.
func describe(p service.ProductDto) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, Price: $%s", p.Name, p.Price.String())
	if p.Unlimited {
		b.WriteString(", Quantity: Unlimited")
	} else {
		fmt.Fprintf(&b, ", Quantity: %d", p.Quantity)
	}
	if p.MaxPerOrder != nil {
		fmt.Fprintf(&b, ", Limited to %d per order!", *p.MaxPerOrder)
	}
	fmt.Fprintf(&b, ", Promotion: %s", p.Promotion)
	return b.String()
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
