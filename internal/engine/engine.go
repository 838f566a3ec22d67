package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Sellmore-Co/campaign-cart-sub008/internal/catalog"
	"github.com/Sellmore-Co/campaign-cart-sub008/internal/coupon"
	"github.com/Sellmore-Co/campaign-cart-sub008/internal/domain"
	"github.com/Sellmore-Co/campaign-cart-sub008/internal/events"
	"github.com/Sellmore-Co/campaign-cart-sub008/internal/pricing"
	"github.com/Sellmore-Co/campaign-cart-sub008/internal/snapshot"
	"github.com/google/uuid"
)

var ErrItemNotFound = errors.New("item not found in cart")

// Config wires the engine's collaborators. Catalog is required; every
// other collaborator has a working default so tests can construct an
// engine with only the pieces they care about.
type Config struct {
	CartID          uuid.UUID
	Catalog         catalog.Lookup
	Remapper        catalog.Remapper
	ShippingMethods catalog.ShippingMethods
	Rules           coupon.RuleTable
	Store           snapshot.Store
	Bus             events.Publisher
	Formatter       pricing.CurrencyFormatter
}

// Engine owns the canonical cart state: line items, applied coupons,
// the selected shipping method and everything derived from them. All
// mutation goes through its operations; each operation installs its
// final state and recomputes totals before any subscriber hears about
// it, so no intermediate state is ever observable.
type Engine struct {
	mu sync.Mutex

	id              uuid.UUID
	catalog         catalog.Lookup
	remapper        catalog.Remapper
	shippingMethods catalog.ShippingMethods
	rules           coupon.RuleTable
	store           snapshot.Store
	bus             events.Publisher
	calc            *pricing.Calculator

	state state
}

type state struct {
	items          []domain.CartItem
	coupons        []domain.AppliedCoupon
	totals         domain.CartTotals
	enriched       []domain.EnrichedItem
	shippingMethod *domain.ShippingMethod
	swapInProgress bool
}

// State is a read-only copy of the full cart state handed to UI
// consumers.
type State struct {
	CartID         uuid.UUID              `json:"cart_id"`
	Items          []domain.CartItem      `json:"items"`
	AppliedCoupons []domain.AppliedCoupon `json:"applied_coupons"`
	Totals         domain.CartTotals      `json:"totals"`
	EnrichedItems  []domain.EnrichedItem  `json:"enriched_items"`
	ShippingMethod *domain.ShippingMethod `json:"shipping_method,omitempty"`
	SwapInProgress bool                   `json:"swap_in_progress"`
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}

func New(cfg Config) *Engine {
	if cfg.CartID == uuid.Nil {
		cfg.CartID = uuid.New()
	}
	if cfg.Remapper == nil {
		cfg.Remapper = catalog.NewProfileRemapper(nil)
	}
	if cfg.Store == nil {
		cfg.Store = snapshot.NewMemoryStore()
	}
	if cfg.Bus == nil {
		cfg.Bus = nopPublisher{}
	}
	if cfg.Formatter == nil {
		cfg.Formatter = pricing.NewUSDFormatter()
	}

	e := &Engine{
		id:              cfg.CartID,
		catalog:         cfg.Catalog,
		remapper:        cfg.Remapper,
		shippingMethods: cfg.ShippingMethods,
		rules:           cfg.Rules,
		store:           cfg.Store,
		bus:             cfg.Bus,
		calc:            pricing.NewCalculator(cfg.Catalog, cfg.Formatter),
	}
	e.state.totals = e.calc.SafeDefaults()
	return e
}

func (e *Engine) CartID() uuid.UUID {
	return e.id
}

// GetState returns a deep-enough copy of the current state; callers can
// hold it across further mutations without seeing them.
func (e *Engine) GetState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) stateLocked() State {
	s := State{
		CartID:         e.id,
		Items:          append([]domain.CartItem(nil), e.state.items...),
		AppliedCoupons: append([]domain.AppliedCoupon(nil), e.state.coupons...),
		Totals:         e.state.totals,
		EnrichedItems:  append([]domain.EnrichedItem(nil), e.state.enriched...),
		SwapInProgress: e.state.swapInProgress,
	}
	if e.state.shippingMethod != nil {
		method := *e.state.shippingMethod
		s.ShippingMethod = &method
	}
	return s
}

// Recalculate recomputes totals, coupon discounts and enriched items
// from the current items and publishes the refreshed state. Calling it
// twice in a row with no intervening mutation is a no-op for the
// resulting totals.
func (e *Engine) Recalculate(ctx context.Context) {
	e.mu.Lock()
	e.recomputeLocked(ctx)
	e.persistLocked(ctx)
	e.mu.Unlock()

	e.publishUpdated()
}

// recomputeLocked runs the pricing calculator and installs its result.
// On failure the totals are reset to safe zero defaults so the UI never
// shows stale or partial numbers.
func (e *Engine) recomputeLocked(ctx context.Context) {
	result, err := e.calc.Compute(ctx, e.state.items, e.state.coupons, e.state.shippingMethod)
	if err != nil {
		log.Printf("cart %s: recomputation failed, resetting totals: %v", e.id, err)
		e.state.totals = e.calc.SafeDefaults()
		e.state.enriched = nil
		return
	}
	e.state.totals = result.Totals
	e.state.enriched = result.EnrichedItems
	e.state.coupons = result.Coupons
}

// projection is the restricted slice of state that survives a reload.
// Enriched items are deliberately absent: they are always recomputed,
// never trusted from a snapshot.
type projection struct {
	Items          []domain.CartItem      `json:"items"`
	AppliedCoupons []domain.AppliedCoupon `json:"applied_coupons"`
	Totals         domain.CartTotals      `json:"totals"`
	ShippingMethod *domain.ShippingMethod `json:"shipping_method,omitempty"`
	SavedAt        time.Time              `json:"saved_at"`
}

func snapshotKey(id uuid.UUID) string {
	return "cart:" + id.String()
}

// persistLocked writes the snapshot projection. The write is fire and
// forget relative to the in-memory state: a failure is logged and does
// not roll back the mutation.
func (e *Engine) persistLocked(ctx context.Context) {
	p := projection{
		Items:          e.state.items,
		AppliedCoupons: e.state.coupons,
		Totals:         e.state.totals,
		ShippingMethod: e.state.shippingMethod,
		SavedAt:        time.Now(),
	}
	data, err := json.Marshal(p)
	if err != nil {
		log.Printf("cart %s: failed to marshal snapshot: %v", e.id, err)
		return
	}
	if err := e.store.Set(ctx, snapshotKey(e.id), data); err != nil {
		log.Printf("cart %s: failed to persist snapshot: %v", e.id, err)
	}
}

// Load rehydrates the cart from its persisted snapshot. Persisted
// totals and discounts are treated as a cache: recomputation runs
// unconditionally so catalog or currency drift between sessions heals
// itself. An unreadable snapshot falls back to an empty cart and never
// prevents startup.
func (e *Engine) Load(ctx context.Context) {
	data, err := e.store.Get(ctx, snapshotKey(e.id))
	if errors.Is(err, snapshot.ErrSnapshotMiss) {
		return
	}
	if err != nil {
		log.Printf("cart %s: failed to read snapshot, starting empty: %v", e.id, err)
		return
	}

	var p projection
	if err := json.Unmarshal(data, &p); err != nil {
		log.Printf("cart %s: unreadable snapshot, starting empty: %v", e.id, err)
		return
	}

	e.mu.Lock()
	e.state.items = p.Items
	e.state.coupons = p.AppliedCoupons
	e.state.shippingMethod = p.ShippingMethod
	e.recomputeLocked(ctx)
	e.mu.Unlock()

	e.publishUpdated()
}

func (e *Engine) publish(topic string, payload interface{}) {
	e.bus.Publish(events.Event{
		Topic:   topic,
		CartID:  e.id,
		At:      time.Now(),
		Payload: payload,
	})
}

func (e *Engine) publishUpdated() {
	s := e.GetState()
	e.publish(events.TopicCartUpdated, events.CartUpdated{
		Items:          s.Items,
		AppliedCoupons: s.AppliedCoupons,
		Totals:         s.Totals,
		EnrichedItems:  s.EnrichedItems,
		ShippingMethod: s.ShippingMethod,
	})
}
