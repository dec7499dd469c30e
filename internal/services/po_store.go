package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"greendrake/po/internal/models"
	"greendrake/po/internal/notify"
	"greendrake/po/internal/ponumber"
	"greendrake/po/internal/storage"
)

// ErrStorageCorrupt wraps decode failures of the persisted collection.
var ErrStorageCorrupt = errors.New("stored purchase orders are corrupt")

// Diagnostic events reported by the store.
const (
	EventStoreLoad    = "store.load"
	EventStoreDecode  = "store.decode"
	EventStorePersist = "store.persist"
	EventStoreEncode  = "store.encode"
)

// SaveResult tells whether Save inserted a new order or replaced an existing one.
type SaveResult int

const (
	SaveCreated SaveResult = iota + 1
	SaveUpdated
)

func (r SaveResult) String() string {
	switch r {
	case SaveCreated:
		return "created"
	case SaveUpdated:
		return "updated"
	}
	return "unknown"
}

// IPOStore defines the persistence operations for saved purchase orders.
// Storage failures never surface as errors; they are reported and absorbed.
type IPOStore interface {
	LoadAll(ctx context.Context) []models.PurchaseOrderData
	PersistAll(ctx context.Context, records []models.PurchaseOrderData)
	Save(ctx context.Context, record models.PurchaseOrderData) SaveResult
	Delete(ctx context.Context, poNumber string) bool
	Find(poNumber string) (models.PurchaseOrderData, bool)
	List() []models.PurchaseOrderData
	NextCounter() int
	Len() int
}

// poStore keeps the whole collection in memory and writes it back to a single
// KV slot after every mutation.
type poStore struct {
	mu       sync.Mutex
	kv       storage.IKeyValueStore
	key      string
	reporter notify.Reporter
	records  []models.PurchaseOrderData
	seq      ponumber.Sequence
}

// NewPOStore creates a store over the slot key of kv. Call LoadAll to read existing orders.
func NewPOStore(kv storage.IKeyValueStore, key string, reporter notify.Reporter) IPOStore {
	return &poStore{kv: kv, key: key, reporter: reporter}
}

// LoadAll replaces the in-memory collection with the persisted one and returns a copy.
// A missing slot is an empty collection; unreadable or corrupt data is reported
// and also treated as empty.
func (s *poStore) LoadAll(ctx context.Context) []models.PurchaseOrderData {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = s.read(ctx)
	s.seq.Observe(s.records...)
	return cloneAll(s.records)
}

func (s *poStore) read(ctx context.Context) []models.PurchaseOrderData {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.reporter.Report(EventStoreLoad, fmt.Errorf("failed to read %s: %w", s.key, err))
		return nil
	}

	var records []models.PurchaseOrderData
	if err := json.Unmarshal(data, &records); err != nil {
		s.reporter.Report(EventStoreDecode, fmt.Errorf("%w: %v", ErrStorageCorrupt, err))
		return nil
	}
	return records
}

// PersistAll overwrites the slot with records and makes them the in-memory collection.
func (s *poStore) PersistAll(ctx context.Context, records []models.PurchaseOrderData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = cloneAll(records)
	s.seq.Observe(s.records...)
	s.persist(ctx)
}

func (s *poStore) persist(ctx context.Context) {
	records := s.records
	if records == nil {
		records = []models.PurchaseOrderData{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		s.reporter.Report(EventStoreEncode, fmt.Errorf("failed to encode purchase orders: %w", err))
		return
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		s.reporter.Report(EventStorePersist, fmt.Errorf("failed to write %s: %w", s.key, err))
	}
}

// Save inserts record or replaces the one with the same poNumber, keeps the
// collection sorted newest first and persists it.
func (s *poStore) Save(ctx context.Context, record models.PurchaseOrderData) SaveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	record = record.Clone()
	result := SaveCreated
	if i := s.indexOf(record.PoNumber); i >= 0 {
		s.records[i] = record
		result = SaveUpdated
	} else {
		s.records = append(s.records, record)
	}
	sort.SliceStable(s.records, func(i, j int) bool {
		return s.records[i].PoNumberCounter > s.records[j].PoNumberCounter
	})
	s.seq.Observe(record)
	s.persist(ctx)
	return result
}

// Delete removes the order with poNumber. It reports whether anything was removed;
// the slot is only rewritten when it was.
func (s *poStore) Delete(ctx context.Context, poNumber string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(poNumber)
	if i < 0 {
		return false
	}
	s.records = append(s.records[:i:i], s.records[i+1:]...)
	s.persist(ctx)
	return true
}

func (s *poStore) Find(poNumber string) (models.PurchaseOrderData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(poNumber); i >= 0 {
		return s.records[i].Clone(), true
	}
	return models.PurchaseOrderData{}, false
}

// List returns the saved orders in presentation order, newest first.
func (s *poStore) List() []models.PurchaseOrderData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.records)
}

// NextCounter returns the counter for a new order. Counters of deleted orders
// are not handed out again while the process runs.
func (s *poStore) NextCounter() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq.Next(s.records)
}

func (s *poStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *poStore) indexOf(poNumber string) int {
	for i := range s.records {
		if s.records[i].PoNumber == poNumber {
			return i
		}
	}
	return -1
}

func cloneAll(records []models.PurchaseOrderData) []models.PurchaseOrderData {
	out := make([]models.PurchaseOrderData, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
