// Package ticket lays out order receipts and the diagnostic page.
package ticket

import (
	"fmt"
	"time"

	"github.com/msalarini/store-lamayer/internal/printer/escpos"
	"github.com/msalarini/store-lamayer/internal/service/models/currency"
	"github.com/msalarini/store-lamayer/internal/service/models/receipt"
	"github.com/shopspring/decimal"
)

const dateLayout = "02/01/2006, 15:04:05"

// Layout holds the store texts and the paper geometry.
type Layout struct {
	StoreName string
	Tagline   string
	Footer    string
	Width     int
	Location  *time.Location
}

func (l Layout) location() *time.Location {
	if l.Location == nil {
		return time.Local
	}

	return l.Location
}

// RenderOrder produces the ESC/POS job for one order. now is printed when the
// order carries no creation time.
func (l Layout) RenderOrder(data receipt.OrderData, now time.Time) ([]byte, error) {
	b := escpos.NewBuilder(l.Width)

	b.Align(escpos.AlignCenter).
		Size(1, 1).
		Bold(true).
		Println(l.StoreName).
		Bold(false).
		Size(0, 0).
		Println(l.Tagline).
		Rule().
		NewLine()

	printedAt := now
	if data.CreatedAt != nil {
		printedAt = *data.CreatedAt
	}

	b.Align(escpos.AlignLeft).
		Bold(true).
		Println("Pedido: " + data.OrderNumber).
		Bold(false).
		Println("Data: " + printedAt.In(l.location()).Format(dateLayout))
	if data.CustomerName != "" {
		b.Println("Cliente: " + data.CustomerName)
	}
	if data.CustomerPhone != "" {
		b.Println("Tel: " + data.CustomerPhone)
	}
	b.Rule().NewLine()

	for i, item := range data.Items {
		b.Bold(true).
			Println(fmt.Sprintf("%dx %s", item.Quantity, item.ProductName)).
			Bold(false).
			Println(fmt.Sprintf("   %s | %s/un", brl(item.UnitPriceBRL), pyg(item.UnitPricePYG))).
			Println("   Subtotal: " + brl(item.SubtotalBRL))
		if i < len(data.Items)-1 {
			b.NewLine()
		}
	}

	b.NewLine().Rule().NewLine()

	b.Bold(true).
		Size(0, 1).
		Println("TOTAL BRL:  " + brl(data.TotalBRL)).
		Println("TOTAL PYG: " + pyg(data.TotalPYG)).
		Size(0, 0).
		Bold(false).
		NewLine().
		Println(fmt.Sprintf("Taxa: G$ %s = R$ 1,00", decimal.NewFromFloat(data.ExchangeRate).StringFixed(2)))

	b.NewLine().Rule().NewLine()

	b.Align(escpos.AlignCenter).
		Println(l.Footer).
		NewLine().
		Cut()

	return b.Bytes()
}

// RenderTest produces the diagnostic page printed by /test-print.
func (l Layout) RenderTest(now time.Time) ([]byte, error) {
	return escpos.NewBuilder(l.Width).
		Align(escpos.AlignCenter).
		Size(1, 1).
		Bold(true).
		Println("TESTE DE IMPRESSÃO").
		Bold(false).
		Size(0, 0).
		Rule().
		Println(l.StoreName).
		Println("Impressora configurada com sucesso!").
		Rule().
		Println(now.In(l.location()).Format(dateLayout)).
		Cut().
		Bytes()
}

func brl(v float64) string {
	return currency.CurrencyBRL.Format(decimal.NewFromFloat(v))
}

func pyg(v float64) string {
	return currency.CurrencyPYG.Format(decimal.NewFromFloat(v))
}
