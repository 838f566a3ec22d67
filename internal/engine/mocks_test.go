package engine

import (
	"context"
	"sync"

	"github.com/Sellmore-Co/campaign-cart-sub008/internal/catalog"
	"github.com/Sellmore-Co/campaign-cart-sub008/internal/domain"
	"github.com/Sellmore-Co/campaign-cart-sub008/internal/events"
	"github.com/shopspring/decimal"
)

// mockCatalog implements catalog.Lookup and catalog.ShippingMethods
// with mutable tables so tests can simulate catalog drift.
type mockCatalog struct {
	m        sync.RWMutex
	packages map[int]domain.PackageRecord
	shipping map[int]domain.ShippingMethod
	err      error
	errByRef map[int]error
}

func newMockCatalog(packages ...domain.PackageRecord) *mockCatalog {
	byRef := make(map[int]domain.PackageRecord, len(packages))
	for _, p := range packages {
		byRef[p.Ref] = p
	}
	return &mockCatalog{
		packages: byRef,
		shipping: make(map[int]domain.ShippingMethod),
	}
}

func (m *mockCatalog) GetPackage(_ context.Context, packageID int) (*domain.PackageRecord, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if err, ok := m.errByRef[packageID]; ok {
		return nil, err
	}
	p, ok := m.packages[packageID]
	if !ok {
		return nil, catalog.ErrPackageNotFound
	}
	return &p, nil
}

func (m *mockCatalog) GetShippingMethod(_ context.Context, methodID int) (*domain.ShippingMethod, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	s, ok := m.shipping[methodID]
	if !ok {
		return nil, catalog.ErrShippingMethodNotFound
	}
	return &s, nil
}

func (m *mockCatalog) setPackage(p domain.PackageRecord) {
	m.m.Lock()
	defer m.m.Unlock()
	m.packages[p.Ref] = p
}

func (m *mockCatalog) setShipping(s domain.ShippingMethod) {
	m.m.Lock()
	defer m.m.Unlock()
	m.shipping[s.ID] = s
}

func (m *mockCatalog) setErr(err error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.err = err
}

func (m *mockCatalog) setErrFor(ref int, err error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.errByRef == nil {
		m.errByRef = make(map[int]error)
	}
	m.errByRef[ref] = err
}

// recordingBus captures every published event in order.
type recordingBus struct {
	m      sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(ev events.Event) {
	b.m.Lock()
	defer b.m.Unlock()
	b.events = append(b.events, ev)
}

func (b *recordingBus) byTopic(topic string) []events.Event {
	b.m.Lock()
	defer b.m.Unlock()
	var out []events.Event
	for _, ev := range b.events {
		if ev.Topic == topic {
			out = append(out, ev)
		}
	}
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pkg(ref int, total string) domain.PackageRecord {
	return domain.PackageRecord{
		Ref:        ref,
		Price:      dec(total),
		PriceTotal: dec(total),
		Qty:        1,
		Name:       "Test Package",
	}
}
