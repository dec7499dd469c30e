package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"greendrake/po/internal/models"
	"greendrake/po/internal/notify"
	"greendrake/po/internal/ponumber"
	"greendrake/po/internal/totals"
	"greendrake/po/internal/utils"
)

// NewOrderMessage is shown after NewOrder resets the working order.
const NewOrderMessage = "New purchase order created. Ready to edit."

// DeletePrompt is the question put to the user before poNumber is deleted.
func DeletePrompt(poNumber string) string {
	return fmt.Sprintf("Are you sure you want to delete PO %s? This action cannot be undone.", poNumber)
}

// OrderTemplate holds the values NewOrder seeds a fresh purchase order with.
type OrderTemplate struct {
	PaymentTerms  string
	DeliveryTerms string
	Unit          string
}

// HeaderPatch is a partial update of the order header. Nil fields are left alone.
type HeaderPatch struct {
	Supplier           *string `json:"supplier,omitempty"`
	PaymentTerms       *string `json:"paymentTerms,omitempty"`
	DeliveryTerms      *string `json:"deliveryTerms,omitempty"`
	PricesIncludeTax   *bool   `json:"pricesIncludeTax,omitempty"`
	ApplyCommercialTax *bool   `json:"applyCommercialTax,omitempty"`
}

// WorkingState is a read-only copy of the order being edited, with its derived values.
type WorkingState struct {
	PoNumber           string            `json:"poNumber"`
	PoNumberCounter    int               `json:"poNumberCounter"`
	Date               string            `json:"date"`
	Supplier           string            `json:"supplier"`
	PaymentTerms       string            `json:"paymentTerms"`
	DeliveryTerms      string            `json:"deliveryTerms"`
	Items              []models.LineItem `json:"items"`
	LineTotals         totals.Amounts    `json:"lineTotals"`
	PricesIncludeTax   bool              `json:"pricesIncludeTax"`
	ApplyCommercialTax bool              `json:"applyCommercialTax"`
	Totals             totals.Summary    `json:"totals"`
	Display            totals.Summary    `json:"display"`
	ShowCodeColumn     bool              `json:"showCodeColumn"`
}

// SaveOutcome describes a completed save.
type SaveOutcome struct {
	PoNumber string     `json:"poNumber"`
	Result   SaveResult `json:"-"`
	Message  string     `json:"message"`
}

// Created reports whether the save inserted a new order.
func (o SaveOutcome) Created() bool { return o.Result == SaveCreated }

// LoadOutcome describes a load attempt.
type LoadOutcome struct {
	PoNumber string `json:"poNumber"`
	Found    bool   `json:"found"`
	Message  string `json:"message"`
}

// DeleteStatus is the result of a delete attempt.
type DeleteStatus string

const (
	DeleteDeleted  DeleteStatus = "deleted"
	DeleteDeclined DeleteStatus = "declined"
	DeleteNotFound DeleteStatus = "not_found"
)

// DeleteOutcome describes a delete attempt.
type DeleteOutcome struct {
	PoNumber string       `json:"poNumber"`
	Status   DeleteStatus `json:"status"`
	Message  string       `json:"message,omitempty"`
}

// ISessionService drives the single purchase order being edited.
type ISessionService interface {
	AddItem() models.LineItem
	UpdateItem(index int, item models.LineItem) bool
	RemoveItem(index int) bool
	Save(ctx context.Context) SaveOutcome
	Load(ctx context.Context, poNumber string) LoadOutcome
	Delete(ctx context.Context, poNumber string, confirmer notify.Confirmer) DeleteOutcome
	NewOrder(ctx context.Context) WorkingState

	SetSupplier(v string)
	SetPaymentTerms(v string)
	SetDeliveryTerms(v string)
	SetPricesIncludeTax(v bool)
	SetApplyCommercialTax(v bool)
	Update(patch HeaderPatch) WorkingState

	Snapshot() WorkingState
	SavedOrders() []models.PurchaseOrderData
}

// sessionService implements ISessionService. Every method holds mu for its whole
// duration, so store I/O finishes before the call returns.
type sessionService struct {
	mu       sync.Mutex
	store    IPOStore
	notifier notify.Notifier
	template OrderTemplate
	clock    ponumber.Clock

	supplier           string
	paymentTerms       string
	deliveryTerms      string
	items              []models.LineItem
	pricesIncludeTax   bool
	applyCommercialTax bool
	counter            int
}

// NewSessionService loads the saved orders and starts an empty working order
// numbered after the highest saved counter.
func NewSessionService(ctx context.Context, store IPOStore, notifier notify.Notifier, template OrderTemplate, clock ponumber.Clock) ISessionService {
	if clock == nil {
		clock = ponumber.SystemClock
	}
	store.LoadAll(ctx)
	return &sessionService{
		store:    store,
		notifier: notifier,
		template: template,
		clock:    clock,
		items:    []models.LineItem{},
		counter:  store.NextCounter(),
	}
}

func (s *sessionService) AddItem() models.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := models.LineItem{ID: utils.NewItemID()}
	s.items = append(s.items, item)
	return item
}

// UpdateItem replaces the item at index. The existing id is kept when item carries none.
func (s *sessionService) UpdateItem(index int, item models.LineItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return false
	}
	if item.ID == 0 {
		item.ID = s.items[index].ID
	}
	s.items[index] = item
	return true
}

func (s *sessionService) RemoveItem(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return false
	}
	s.items = append(s.items[:index:index], s.items[index+1:]...)
	return true
}

func (s *sessionService) Save(ctx context.Context) SaveOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	record := models.PurchaseOrderData{
		PoNumber:           ponumber.FormatAt(s.counter, now),
		PoNumberCounter:    s.counter,
		Supplier:           s.supplier,
		PaymentTerms:       s.paymentTerms,
		DeliveryTerms:      s.deliveryTerms,
		Items:              models.CloneItems(s.items),
		PricesIncludeTax:   s.pricesIncludeTax,
		ApplyCommercialTax: s.applyCommercialTax,
		SavedAt:            models.FormatSavedAt(now),
	}

	result := s.store.Save(ctx, record)
	msg := fmt.Sprintf("Purchase Order %s saved successfully!", record.PoNumber)
	if result == SaveUpdated {
		msg = fmt.Sprintf("Purchase Order %s updated successfully!", record.PoNumber)
	}
	s.notifier.Notify(msg)
	return SaveOutcome{PoNumber: record.PoNumber, Result: result, Message: msg}
}

// Load replaces the working order with a saved one, giving every item a new id.
// The working order is untouched when poNumber is unknown.
func (s *sessionService) Load(_ context.Context, poNumber string) LoadOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.store.Find(poNumber)
	if !ok {
		msg := fmt.Sprintf("Purchase Order %s not found.", poNumber)
		s.notifier.Notify(msg)
		return LoadOutcome{PoNumber: poNumber, Found: false, Message: msg}
	}

	items := models.CloneItems(record.Items)
	for i := range items {
		items[i].ID = utils.NewItemID()
	}
	s.counter = record.PoNumberCounter
	s.supplier = record.Supplier
	s.paymentTerms = record.PaymentTerms
	s.deliveryTerms = record.DeliveryTerms
	s.items = items
	s.pricesIncludeTax = record.PricesIncludeTax
	s.applyCommercialTax = record.ApplyCommercialTax

	msg := fmt.Sprintf("Purchase Order %s loaded.", poNumber)
	s.notifier.Notify(msg)
	return LoadOutcome{PoNumber: poNumber, Found: true, Message: msg}
}

// Delete removes a saved order after confirmer agrees. Unknown orders are
// reported without asking. The working order is never touched.
func (s *sessionService) Delete(ctx context.Context, poNumber string, confirmer notify.Confirmer) DeleteOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.store.Find(poNumber); !ok {
		msg := fmt.Sprintf("Purchase Order %s not found.", poNumber)
		s.notifier.Notify(msg)
		return DeleteOutcome{PoNumber: poNumber, Status: DeleteNotFound, Message: msg}
	}

	if confirmer == nil || !confirmer.Confirm(DeletePrompt(poNumber)) {
		return DeleteOutcome{PoNumber: poNumber, Status: DeleteDeclined}
	}

	s.store.Delete(ctx, poNumber)
	msg := fmt.Sprintf("Purchase Order %s has been deleted.", poNumber)
	s.notifier.Notify(msg)
	return DeleteOutcome{PoNumber: poNumber, Status: DeleteDeleted, Message: msg}
}

// NewOrder resets the working order to the template with one starter row.
func (s *sessionService) NewOrder(_ context.Context) WorkingState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.supplier = ""
	s.paymentTerms = s.template.PaymentTerms
	s.deliveryTerms = s.template.DeliveryTerms
	s.items = []models.LineItem{{ID: utils.NewItemID(), Quantity: 1, Unit: s.template.Unit}}
	s.pricesIncludeTax = false
	s.applyCommercialTax = false
	s.counter = s.store.NextCounter()

	s.notifier.Notify(NewOrderMessage)
	return s.snapshot()
}

func (s *sessionService) SetSupplier(v string) {
	s.Update(HeaderPatch{Supplier: &v})
}

func (s *sessionService) SetPaymentTerms(v string) {
	s.Update(HeaderPatch{PaymentTerms: &v})
}

func (s *sessionService) SetDeliveryTerms(v string) {
	s.Update(HeaderPatch{DeliveryTerms: &v})
}

func (s *sessionService) SetPricesIncludeTax(v bool) {
	s.Update(HeaderPatch{PricesIncludeTax: &v})
}

func (s *sessionService) SetApplyCommercialTax(v bool) {
	s.Update(HeaderPatch{ApplyCommercialTax: &v})
}

func (s *sessionService) Update(patch HeaderPatch) WorkingState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.Supplier != nil {
		s.supplier = *patch.Supplier
	}
	if patch.PaymentTerms != nil {
		s.paymentTerms = *patch.PaymentTerms
	}
	if patch.DeliveryTerms != nil {
		s.deliveryTerms = *patch.DeliveryTerms
	}
	if patch.PricesIncludeTax != nil {
		s.pricesIncludeTax = *patch.PricesIncludeTax
	}
	if patch.ApplyCommercialTax != nil {
		s.applyCommercialTax = *patch.ApplyCommercialTax
	}
	return s.snapshot()
}

func (s *sessionService) Snapshot() WorkingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *sessionService) snapshot() WorkingState {
	now := s.clock()
	items := models.CloneItems(s.items)
	lineTotals := make(totals.Amounts, len(items))
	showCode := false
	for i, item := range items {
		lineTotals[i] = totals.Round(totals.LineTotal(item))
		if strings.TrimSpace(item.Code) != "" {
			showCode = true
		}
	}
	summary := totals.Compute(items, totals.Settings{
		PricesIncludeTax:   s.pricesIncludeTax,
		ApplyCommercialTax: s.applyCommercialTax,
	})
	return WorkingState{
		PoNumber:           ponumber.FormatAt(s.counter, now),
		PoNumberCounter:    s.counter,
		Date:               ponumber.FormatDate(now),
		Supplier:           s.supplier,
		PaymentTerms:       s.paymentTerms,
		DeliveryTerms:      s.deliveryTerms,
		Items:              items,
		LineTotals:         lineTotals,
		PricesIncludeTax:   s.pricesIncludeTax,
		ApplyCommercialTax: s.applyCommercialTax,
		Totals:             summary,
		Display:            summary.Rounded(),
		ShowCodeColumn:     showCode,
	}
}

func (s *sessionService) SavedOrders() []models.PurchaseOrderData {
	return s.store.List()
}
