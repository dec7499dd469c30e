// Package ponumber derives year-scoped, human readable purchase order numbers
// from a monotonic counter.
package ponumber

import (
	"errors"
	"fmt"
	"time"

	"greendrake/po/internal/models"
)

// ErrMalformed is returned by Parse for strings not produced by Format.
var ErrMalformed = errors.New("malformed purchase order number")

const layout = "PO # %05d-%d"

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// SystemClock is the wall clock in local time.
func SystemClock() time.Time { return time.Now() }

// NextCounter returns 1 for an empty collection, else the highest counter plus one.
func NextCounter(records []models.PurchaseOrderData) int {
	return highest(records) + 1
}

func highest(records []models.PurchaseOrderData) int {
	h := 0
	for _, r := range records {
		if r.PoNumberCounter > h {
			h = r.PoNumberCounter
		}
	}
	return h
}

// Sequence remembers the highest counter it has observed, so deleting the newest
// order never hands its counter out again during the life of the process.
// It is not safe for concurrent use; the owning store serialises access.
type Sequence struct {
	highWater int
}

// Observe raises the high-water mark to cover records.
func (s *Sequence) Observe(records ...models.PurchaseOrderData) {
	if h := highest(records); h > s.highWater {
		s.highWater = h
	}
}

// Next returns the counter for a new order given the current collection.
func (s *Sequence) Next(records []models.PurchaseOrderData) int {
	s.Observe(records...)
	return s.highWater + 1
}

// Format renders counter and year as "PO # 00007-2024".
func Format(counter, year int) string {
	return fmt.Sprintf(layout, counter, year)
}

// FormatAt formats counter with the calendar year of t.
func FormatAt(counter int, t time.Time) string {
	return Format(counter, t.Year())
}

// Parse is the inverse of Format.
func Parse(poNumber string) (counter, year int, err error) {
	n, _ := fmt.Sscanf(poNumber, "PO # %d-%d", &counter, &year)
	if n != 2 || counter < 1 || Format(counter, year) != poNumber {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformed, poNumber)
	}
	return counter, year, nil
}

// FormatDate renders the document date as dd-mm-yyyy.
func FormatDate(t time.Time) string {
	return t.Format("02-01-2006")
}
