// Package totals computes purchase order subtotal, VAT, commercial tax and total.
// All functions are pure; rounding is left to Summary.Rounded for display.
package totals

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"greendrake/po/internal/models"
)

const (
	// TaxRate is the value-added tax applied when prices exclude tax.
	TaxRate = 0.14
	// CommercialTaxRate is the optional commercial tax deduction.
	CommercialTaxRate = 0.01

	displayPlaces = 2
)

// Settings are the two independent tax switches of a purchase order.
type Settings struct {
	PricesIncludeTax   bool `json:"pricesIncludeTax"`
	ApplyCommercialTax bool `json:"applyCommercialTax"`
}

// Summary holds the derived amounts shown under the item table.
type Summary struct {
	Subtotal            float64 `json:"subtotal"`
	Tax                 float64 `json:"tax"`
	CommercialTaxAmount float64 `json:"commercialTaxAmount"`
	Total               float64 `json:"total"`
}

// LineTotal is quantity times price for one row.
func LineTotal(item models.LineItem) float64 {
	return item.Quantity * item.Price
}

// ComputeSubtotal sums quantity*price over items. No rounding is applied.
func ComputeSubtotal(items []models.LineItem) float64 {
	subtotal := 0.0
	for _, item := range items {
		subtotal += LineTotal(item)
	}
	return subtotal
}

// ComputeTax returns the VAT owed on subtotal, or 0 when prices already include it.
func ComputeTax(subtotal float64, pricesIncludeTax bool) float64 {
	if pricesIncludeTax {
		return 0
	}
	return subtotal * TaxRate
}

// ComputeCommercialTaxAmount returns the commercial tax deduction, or 0 when disabled.
func ComputeCommercialTaxAmount(subtotal float64, applyCommercialTax bool) float64 {
	if !applyCommercialTax {
		return 0
	}
	return subtotal * CommercialTaxRate
}

// ComputeTotal subtracts the commercial tax from the tax-adjusted base.
// The result is not clamped and may be negative.
func ComputeTotal(subtotal, tax float64, pricesIncludeTax bool, commercialTaxAmount float64) float64 {
	base := subtotal + tax
	if pricesIncludeTax {
		base = subtotal
	}
	return base - commercialTaxAmount
}

// Compute runs the whole pipeline for a set of items.
func Compute(items []models.LineItem, s Settings) Summary {
	subtotal := ComputeSubtotal(items)
	tax := ComputeTax(subtotal, s.PricesIncludeTax)
	commercial := ComputeCommercialTaxAmount(subtotal, s.ApplyCommercialTax)
	return Summary{
		Subtotal:            subtotal,
		Tax:                 tax,
		CommercialTaxAmount: commercial,
		Total:               ComputeTotal(subtotal, tax, s.PricesIncludeTax, commercial),
	}
}

// Rounded returns the summary rounded to two decimals, half away from zero.
func (s Summary) Rounded() Summary {
	return Summary{
		Subtotal:            Round(s.Subtotal),
		Tax:                 Round(s.Tax),
		CommercialTaxAmount: Round(s.CommercialTaxAmount),
		Total:               Round(s.Total),
	}
}

// IsFinite reports whether v is neither NaN nor infinite. Sums of large
// amounts can overflow to +Inf.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Round rounds an amount to display precision. Non-finite values are returned as is.
func Round(v float64) float64 {
	if !IsFinite(v) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(displayPlaces).Float64()
	return f
}

// FormatAmount renders an amount with exactly two decimals, or as +Inf, -Inf or NaN.
func FormatAmount(v float64) string {
	if !IsFinite(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(displayPlaces)
}

// Amount marshals as a JSON number, or null when it is not finite.
type Amount float64

func (a Amount) MarshalJSON() ([]byte, error) {
	if !IsFinite(float64(a)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(a))
}

// Amounts is a list of per-row amounts with the same JSON encoding as Amount.
type Amounts []float64

func (a Amounts) MarshalJSON() ([]byte, error) {
	out := make([]Amount, len(a))
	for i, v := range a {
		out[i] = Amount(v)
	}
	return json.Marshal(out)
}

func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Subtotal            Amount `json:"subtotal"`
		Tax                 Amount `json:"tax"`
		CommercialTaxAmount Amount `json:"commercialTaxAmount"`
		Total               Amount `json:"total"`
	}{Amount(s.Subtotal), Amount(s.Tax), Amount(s.CommercialTaxAmount), Amount(s.Total)})
}
