package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Sellmore-Co/campaign-cart-sub008/internal/catalog"
	"github.com/Sellmore-Co/campaign-cart-sub008/internal/domain"
	"github.com/Sellmore-Co/campaign-cart-sub008/internal/events"
)

// AddItemRequest is the caller's view of a line to add. Only PackageID
// is required; Quantity defaults to 1. Title overrides the catalog name
// when set.
type AddItemRequest struct {
	PackageID int    `json:"package_id"`
	Quantity  int    `json:"quantity"`
	Title     string `json:"title,omitempty"`
	IsUpsell  bool   `json:"is_upsell,omitempty"`
	Source    string `json:"source,omitempty"`
}

// AddItem resolves the requested identifier through the remapper,
// prices it from the catalog and installs the line in one transition.
// An identifier already in the cart merges quantities instead of
// creating a duplicate line. Returns catalog.ErrPackageNotFound when
// the resolved identifier has no catalog entry.
func (e *Engine) AddItem(ctx context.Context, req AddItemRequest) (domain.CartItem, error) {
	item, err := e.resolveItem(ctx, req)
	if err != nil {
		return domain.CartItem{}, err
	}

	e.mu.Lock()
	e.state.items = upsertItem(e.state.items, item)
	e.recomputeLocked(ctx)
	e.persistLocked(ctx)
	e.mu.Unlock()

	e.publish(events.TopicItemAdded, events.ItemAdded{PackageID: item.PackageID, Quantity: item.Quantity})
	e.publishUpdated()
	return item, nil
}

// RemoveItem deletes the matching line, if any. Events fire only when a
// line was actually removed.
func (e *Engine) RemoveItem(ctx context.Context, packageID int) error {
	resolved := e.remapper.GetMappedPackageID(packageID)

	e.mu.Lock()
	idx := findItem(e.state.items, packageID, resolved)
	if idx < 0 {
		e.mu.Unlock()
		return nil
	}
	removed := e.state.items[idx]
	e.state.items = append(e.state.items[:idx], e.state.items[idx+1:]...)
	e.recomputeLocked(ctx)
	e.persistLocked(ctx)
	e.mu.Unlock()

	e.publish(events.TopicItemRemoved, events.ItemRemoved{PackageID: removed.PackageID})
	e.publishUpdated()
	return nil
}

// UpdateQuantity replaces the line's quantity. A quantity of zero or
// less delegates to RemoveItem.
func (e *Engine) UpdateQuantity(ctx context.Context, packageID, quantity int) error {
	if quantity <= 0 {
		return e.RemoveItem(ctx, packageID)
	}

	resolved := e.remapper.GetMappedPackageID(packageID)

	e.mu.Lock()
	idx := findItem(e.state.items, packageID, resolved)
	if idx < 0 {
		e.mu.Unlock()
		return ErrItemNotFound
	}
	oldQuantity := e.state.items[idx].Quantity
	e.state.items[idx].Quantity = quantity
	updated := e.state.items[idx]
	e.recomputeLocked(ctx)
	e.persistLocked(ctx)
	e.mu.Unlock()

	e.publish(events.TopicQuantityChanged, events.QuantityChanged{
		PackageID:   updated.PackageID,
		Quantity:    quantity,
		OldQuantity: oldQuantity,
	})
	e.publishUpdated()
	return nil
}

// SwapPackage replaces one package with another in a single transition:
// the old line is filtered out and the new line inserted in the same
// state swap, so subscribers never observe a cart with neither line
// present. Used by product selectors when the chosen variant changes.
func (e *Engine) SwapPackage(ctx context.Context, removePackageID int, add AddItemRequest) (domain.CartItem, error) {
	resolvedRemove := e.remapper.GetMappedPackageID(removePackageID)
	newItem, err := e.resolveItem(ctx, add)
	if err != nil {
		return domain.CartItem{}, err
	}

	e.mu.Lock()
	var previous *domain.CartItem
	idx := findItem(e.state.items, removePackageID, resolvedRemove)
	if idx >= 0 {
		prev := e.state.items[idx]
		previous = &prev
		e.state.items = append(e.state.items[:idx], e.state.items[idx+1:]...)
	}
	e.state.items = upsertItem(e.state.items, newItem)
	e.recomputeLocked(ctx)
	e.persistLocked(ctx)
	e.mu.Unlock()

	priceDifference := newItem.LineTotal()
	if previous != nil {
		priceDifference = priceDifference.Sub(previous.LineTotal())
	}

	e.publish(events.TopicPackageSwapped, events.PackageSwapped{
		PreviousPackageID: removePackageID,
		NewPackageID:      newItem.PackageID,
		NewItem:           newItem,
		PreviousItem:      previous,
		PriceDifference:   priceDifference.InexactFloat64(),
		Source:            add.Source,
	})
	e.publishUpdated()
	return newItem, nil
}

// SwapCart replaces the entire line list wholesale. Unknown identifiers
// are logged and skipped rather than aborting the replacement. While
// the new lines are being resolved the swap-in-progress flag is up so
// cart-synchronization listeners do not mistake the transition for an
// emptied cart; the flag clears in the same transition that installs
// the final list.
func (e *Engine) SwapCart(ctx context.Context, reqs []AddItemRequest) error {
	e.mu.Lock()
	e.state.swapInProgress = true
	e.mu.Unlock()

	items := make([]domain.CartItem, 0, len(reqs))
	for _, req := range reqs {
		item, err := e.resolveItem(ctx, req)
		if errors.Is(err, catalog.ErrPackageNotFound) {
			log.Printf("cart %s: skipping unknown package %d in cart swap", e.id, req.PackageID)
			continue
		}
		if err != nil {
			e.mu.Lock()
			e.state.swapInProgress = false
			e.mu.Unlock()
			return fmt.Errorf("swap cart: %w", err)
		}
		items = upsertItem(items, item)
	}

	e.mu.Lock()
	e.state.items = items
	e.state.swapInProgress = false
	e.recomputeLocked(ctx)
	e.persistLocked(ctx)
	e.mu.Unlock()

	e.publishUpdated()
	return nil
}

// Clear empties items and coupons in one transition.
func (e *Engine) Clear(ctx context.Context) {
	e.mu.Lock()
	e.state.items = nil
	e.state.coupons = nil
	e.recomputeLocked(ctx)
	e.persistLocked(ctx)
	e.mu.Unlock()

	e.publishUpdated()
}

// RefreshItemPrices re-reads every line against the current catalog and
// overwrites price fields, preserving quantity, title overrides and
// variant metadata. Lines whose catalog entry vanished are left
// untouched; no line is ever dropped or reordered. Repricing happens on
// a copy that is installed only once every lookup has succeeded, so a
// catalog failure mid-way leaves the cart exactly as it was. Exists to
// resync the cart after a currency change invalidates fetched prices.
func (e *Engine) RefreshItemPrices(ctx context.Context) error {
	if inv, ok := e.catalog.(catalog.Invalidator); ok {
		inv.Invalidate()
	}

	e.mu.Lock()
	items := append([]domain.CartItem(nil), e.state.items...)
	for i := range items {
		record, err := e.catalog.GetPackage(ctx, items[i].PackageID)
		if errors.Is(err, catalog.ErrPackageNotFound) {
			log.Printf("cart %s: package %d no longer in catalog, keeping stored prices", e.id, items[i].PackageID)
			continue
		}
		if err != nil {
			e.mu.Unlock()
			return fmt.Errorf("refresh item prices: %w", err)
		}

		item := &items[i]
		item.Price = record.PriceTotal
		item.UnitPrice = record.Price
		item.RetailPrice = record.PriceRetail
		item.RetailTotal = record.PriceRetailTotal
		item.RecurringPrice = record.PriceRecurring
		item.IsRecurring = record.IsRecurring
		item.Interval = record.Interval
		item.IntervalCount = record.IntervalCount
	}
	e.state.items = items

	if e.state.shippingMethod != nil && e.shippingMethods != nil {
		method, err := e.shippingMethods.GetShippingMethod(ctx, e.state.shippingMethod.ID)
		if err != nil {
			log.Printf("cart %s: failed to refresh shipping method %d: %v", e.id, e.state.shippingMethod.ID, err)
		} else {
			e.state.shippingMethod.Price = method.Price
		}
	}

	e.recomputeLocked(ctx)
	e.persistLocked(ctx)
	e.mu.Unlock()

	e.publishUpdated()
	return nil
}

// SetShippingMethod selects a pre-priced method from the shipping
// catalog. Shipping is never computed, only selected.
func (e *Engine) SetShippingMethod(ctx context.Context, methodID int) error {
	if e.shippingMethods == nil {
		return catalog.ErrShippingMethodNotFound
	}
	method, err := e.shippingMethods.GetShippingMethod(ctx, methodID)
	if err != nil {
		return fmt.Errorf("set shipping method %d: %w", methodID, err)
	}

	e.mu.Lock()
	selected := *method
	e.state.shippingMethod = &selected
	e.recomputeLocked(ctx)
	e.persistLocked(ctx)
	e.mu.Unlock()

	e.publish(events.TopicShippingChanged, events.ShippingMethodChanged{MethodID: methodID, Method: *method})
	e.publishUpdated()
	return nil
}

// resolveItem remaps the requested identifier, prices it from the
// catalog and builds the cart line from catalog data plus caller
// overrides.
func (e *Engine) resolveItem(ctx context.Context, req AddItemRequest) (domain.CartItem, error) {
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	resolved := e.remapper.GetMappedPackageID(req.PackageID)
	record, err := e.catalog.GetPackage(ctx, resolved)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("resolve package %d: %w", req.PackageID, err)
	}

	item := domain.CartItem{
		PackageID:      resolved,
		Quantity:       req.Quantity,
		Price:          record.PriceTotal,
		Title:          record.Name,
		Image:          record.Image,
		SKU:            record.SKU,
		UnitPrice:      record.Price,
		RetailPrice:    record.PriceRetail,
		RetailTotal:    record.PriceRetailTotal,
		RecurringPrice: record.PriceRecurring,
		IsRecurring:    record.IsRecurring,
		Interval:       record.Interval,
		IntervalCount:  record.IntervalCount,
		ProductID:      record.ProductID,
		ProductName:    record.ProductName,
		VariantID:      record.VariantID,
		VariantName:    record.VariantName,
		IsUpsell:       req.IsUpsell,
	}
	if req.Title != "" {
		item.Title = req.Title
	}
	if resolved != req.PackageID {
		item.OriginalPackageID = req.PackageID
	}
	return item, nil
}

// findItem locates the line answering to either the caller-supplied or
// the resolved identifier; UI collaborators may still reference the
// pre-remap id.
func findItem(items []domain.CartItem, packageID, resolvedID int) int {
	for i, item := range items {
		if item.Matches(packageID) || item.Matches(resolvedID) {
			return i
		}
	}
	return -1
}

// upsertItem merges the line into an existing one for the same resolved
// identifier, or appends it. Exactly one line per resolved package id.
func upsertItem(items []domain.CartItem, item domain.CartItem) []domain.CartItem {
	for i := range items {
		if items[i].PackageID == item.PackageID {
			items[i].Quantity += item.Quantity
			return items
		}
	}
	return append(items, item)
}
