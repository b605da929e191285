// Package pricing derives an offer's monetary values from its row sequence.
//
// All amounts are plain float64 scalars; rounding happens only at formatting
// time, never mid-calculation. Currency is a display concern supplied by the
// company settings.
package pricing

import (
	"fmt"

	"github.com/preventivo-app/preventivo/internal/domain"
)

// Totals holds the derived values for an offer
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discountAmount"`
	Net            float64 `json:"net"`
	VATAmount      float64 `json:"vatAmount"`
	Total          float64 `json:"total"`
}

// Compute derives the totals from a row sequence and pricing parameters.
// Discount and VAT rate are clamped to [0,100] before computing.
func Compute(rows domain.RowList, discountPercent float64, vatEnabled bool, vatRatePercent float64) Totals {
	discountPercent = clampPercent(discountPercent)
	vatRatePercent = clampPercent(vatRatePercent)

	var subtotal float64
	for _, row := range rows {
		if item, ok := row.(domain.ItemRow); ok {
			subtotal += item.Amount()
		}
	}

	discountAmount := subtotal * discountPercent / 100
	net := subtotal - discountAmount

	var vatAmount float64
	if vatEnabled {
		vatAmount = net * vatRatePercent / 100
	}

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		Net:            net,
		VATAmount:      vatAmount,
		Total:          net + vatAmount,
	}
}

// ComputeOffer derives the totals for a full offer document
func ComputeOffer(doc *domain.OfferDocument) Totals {
	return Compute(doc.Rows, doc.Discount, doc.VATEnabled, doc.VATRate)
}

// SubtotalAt returns the display value for the subtotal row at index: the sum
// of item rows strictly between the nearest preceding section row (or the
// start of the sequence) and the subtotal row itself. The value is
// display-only and never feeds the grand subtotal.
func SubtotalAt(rows domain.RowList, index int) (float64, error) {
	if index < 0 || index >= len(rows) {
		return 0, fmt.Errorf("row index %d out of range", index)
	}
	if _, ok := rows[index].(domain.SubtotalRow); !ok {
		return 0, fmt.Errorf("row at index %d is not a subtotal row", index)
	}

	start := 0
	for i := index - 1; i >= 0; i-- {
		if _, ok := rows[i].(domain.SectionRow); ok {
			start = i + 1
			break
		}
	}

	var sum float64
	for i := start; i < index; i++ {
		if item, ok := rows[i].(domain.ItemRow); ok {
			sum += item.Amount()
		}
	}
	return sum, nil
}

// FormatAmount renders a monetary value with two fraction digits and an
// optional currency symbol
func FormatAmount(value float64, currencySymbol string) string {
	if currencySymbol == "" {
		return fmt.Sprintf("%.2f", value)
	}
	return fmt.Sprintf("%.2f %s", value, currencySymbol)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
