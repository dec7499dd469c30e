package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"greendrake/po/internal/utils"
)

// LineItem represents a single purchasable row on a purchase order.
type LineItem struct {
	ID          utils.ItemID `json:"id"`
	Code        string       `json:"code"`
	Description string       `json:"description"`
	Quantity    float64      `json:"quantity"`
	Price       float64      `json:"price"`
	Unit        string       `json:"unit"`
}

// UnmarshalJSON decodes a LineItem leniently: quantity and price fall back to 0
// when absent, null, empty or not numeric. Negative values are kept as given.
// Text fields holding numbers or booleans keep their literal text.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          utils.ItemID    `json:"id"`
		Code        json.RawMessage `json:"code"`
		Description json.RawMessage `json:"description"`
		Quantity    json.RawMessage `json:"quantity"`
		Price       json.RawMessage `json:"price"`
		Unit        json.RawMessage `json:"unit"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*li = LineItem{
		ID:          raw.ID,
		Code:        lenientString(raw.Code),
		Description: lenientString(raw.Description),
		Quantity:    lenientNumber(raw.Quantity),
		Price:       lenientNumber(raw.Price),
		Unit:        lenientString(raw.Unit),
	}
	return nil
}

func lenientString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{', '[', 'n':
		return ""
	}
	return string(raw)
}

func lenientNumber(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
	} else {
		s = string(raw)
	}
	return ParseAmount(s)
}

// ParseAmount parses a quantity or price typed by the user. Anything that is
// not a finite number is 0.
func ParseAmount(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// PurchaseOrderData is a persisted snapshot of a purchase order form.
// Field names are the on-disk wire format and must not change.
type PurchaseOrderData struct {
	PoNumber           string     `json:"poNumber"`
	PoNumberCounter    int        `json:"poNumberCounter"`
	Supplier           string     `json:"supplier"`
	PaymentTerms       string     `json:"paymentTerms"`
	DeliveryTerms      string     `json:"deliveryTerms"`
	Items              []LineItem `json:"items"`
	PricesIncludeTax   bool       `json:"pricesIncludeTax"`
	ApplyCommercialTax bool       `json:"applyCommercialTax"`
	SavedAt            string     `json:"savedAt"`
}

// Clone returns a copy that shares no slices with the receiver.
func (po PurchaseOrderData) Clone() PurchaseOrderData {
	out := po
	out.Items = CloneItems(po.Items)
	return out
}

// SavedAtTime parses SavedAt. The zero time is returned for malformed values.
func (po PurchaseOrderData) SavedAtTime() time.Time {
	t, err := time.Parse(time.RFC3339Nano, po.SavedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// CloneItems copies a slice of line items. A nil input yields an empty, non-nil slice
// so that snapshots always serialise "items" as an array.
func CloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

// FormatSavedAt renders t the way savedAt is stored: UTC ISO-8601 with milliseconds.
func FormatSavedAt(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
