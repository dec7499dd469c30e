package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"greendrake/po/internal/models"
	"greendrake/po/internal/notify"
	"greendrake/po/internal/services"
)

// --- Mocks ---

// MockSessionService implements services.ISessionService
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) AddItem() models.LineItem {
	args := m.Called()
	return args.Get(0).(models.LineItem)
}
func (m *MockSessionService) UpdateItem(index int, item models.LineItem) bool {
	args := m.Called(index, item)
	return args.Bool(0)
}
func (m *MockSessionService) RemoveItem(index int) bool {
	args := m.Called(index)
	return args.Bool(0)
}
func (m *MockSessionService) Save(ctx context.Context) services.SaveOutcome {
	args := m.Called(ctx)
	return args.Get(0).(services.SaveOutcome)
}
func (m *MockSessionService) Load(ctx context.Context, poNumber string) services.LoadOutcome {
	args := m.Called(ctx, poNumber)
	return args.Get(0).(services.LoadOutcome)
}
func (m *MockSessionService) Delete(ctx context.Context, poNumber string, confirmer notify.Confirmer) services.DeleteOutcome {
	args := m.Called(ctx, poNumber, confirmer)
	return args.Get(0).(services.DeleteOutcome)
}
func (m *MockSessionService) NewOrder(ctx context.Context) services.WorkingState {
	args := m.Called(ctx)
	return args.Get(0).(services.WorkingState)
}
func (m *MockSessionService) SetSupplier(v string) { m.Called(v) }
func (m *MockSessionService) SetPaymentTerms(v string) { m.Called(v) }
func (m *MockSessionService) SetDeliveryTerms(v string) { m.Called(v) }
func (m *MockSessionService) SetPricesIncludeTax(v bool) { m.Called(v) }
func (m *MockSessionService) SetApplyCommercialTax(v bool) { m.Called(v) }
func (m *MockSessionService) Update(patch services.HeaderPatch) services.WorkingState {
	args := m.Called(patch)
	return args.Get(0).(services.WorkingState)
}
func (m *MockSessionService) Snapshot() services.WorkingState {
	args := m.Called()
	return args.Get(0).(services.WorkingState)
}
func (m *MockSessionService) SavedOrders() []models.PurchaseOrderData {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.PurchaseOrderData)
}
