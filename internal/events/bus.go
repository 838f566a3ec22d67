package events

import (
	"sync"
	"time"

	"github.com/Sellmore-Co/campaign-cart-sub008/internal/domain"
	"github.com/google/uuid"
)

// Topics published by the cart engine.
const (
	TopicItemAdded       = "cart:item-added"
	TopicItemRemoved     = "cart:item-removed"
	TopicQuantityChanged = "cart:quantity-changed"
	TopicPackageSwapped  = "cart:package-swapped"
	TopicCartUpdated     = "cart:updated"
	TopicShippingChanged = "shipping:method-changed"
)

// Event is the envelope every publication travels in.
type Event struct {
	Topic   string      `json:"topic"`
	CartID  uuid.UUID   `json:"cart_id"`
	At      time.Time   `json:"at"`
	Payload interface{} `json:"payload"`
}

type ItemAdded struct {
	PackageID int `json:"package_id"`
	Quantity  int `json:"quantity"`
}

type ItemRemoved struct {
	PackageID int `json:"package_id"`
}

type QuantityChanged struct {
	PackageID   int `json:"package_id"`
	Quantity    int `json:"quantity"`
	OldQuantity int `json:"old_quantity"`
}

type PackageSwapped struct {
	PreviousPackageID int              `json:"previous_package_id"`
	NewPackageID      int              `json:"new_package_id"`
	NewItem           domain.CartItem  `json:"new_item"`
	PreviousItem      *domain.CartItem `json:"previous_item,omitempty"`
	// PriceDifference is new line total minus old line total, signed.
	PriceDifference float64 `json:"price_difference"`
	Source          string  `json:"source,omitempty"`
}

type CartUpdated struct {
	Items          []domain.CartItem      `json:"items"`
	AppliedCoupons []domain.AppliedCoupon `json:"applied_coupons"`
	Totals         domain.CartTotals      `json:"totals"`
	EnrichedItems  []domain.EnrichedItem  `json:"enriched_items"`
	ShippingMethod *domain.ShippingMethod `json:"shipping_method,omitempty"`
}

type ShippingMethodChanged struct {
	MethodID int                   `json:"method_id"`
	Method   domain.ShippingMethod `json:"method"`
}

// Publisher is what the engine publishes through.
type Publisher interface {
	Publish(ev Event)
}

// Bus is a synchronous in-process publisher: subscribers run on the
// publishing goroutine, in subscription order, before Publish returns.
type Bus struct {
	mu   sync.RWMutex
	subs []func(Event)
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	subs := make([]func(Event), len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}
