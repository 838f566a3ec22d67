package engine

import (
	"context"
	"fmt"

	"github.com/Sellmore-Co/campaign-cart-sub008/internal/coupon"
	"github.com/Sellmore-Co/campaign-cart-sub008/internal/domain"
	"github.com/shopspring/decimal"
)

// ApplyCoupon validates the code against the rule table and the current
// cart and appends it on success. Validation failures are user-facing
// soft failures carried in the result, never errors. The appended
// coupon starts with a zero discount; the recomputation that follows in
// the same call fills in the real value.
func (e *Engine) ApplyCoupon(ctx context.Context, code string) coupon.Result {
	normalized := coupon.Normalize(code)
	if normalized == "" {
		return coupon.Result{Success: false, Message: "Coupon code is required"}
	}
	if e.rules == nil {
		return coupon.Result{Success: false, Message: "Invalid coupon code"}
	}

	e.mu.Lock()
	for _, applied := range e.state.coupons {
		if applied.Code == normalized {
			e.mu.Unlock()
			return coupon.Result{Success: false, Message: "Coupon already applied"}
		}
	}

	def, err := e.rules.GetDiscount(normalized)
	if err != nil {
		e.mu.Unlock()
		return coupon.Result{Success: false, Message: "Invalid coupon code"}
	}

	subtotal := decimal.Zero
	for _, item := range e.state.items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	if !def.MinOrderValue.IsZero() && subtotal.LessThan(def.MinOrderValue) {
		e.mu.Unlock()
		return coupon.Result{
			Success: false,
			Message: fmt.Sprintf("Minimum order value of %s not met", def.MinOrderValue.StringFixed(2)),
		}
	}
	if len(e.state.coupons) > 0 {
		if !def.Combinable {
			e.mu.Unlock()
			return coupon.Result{Success: false, Message: "This coupon cannot be combined with other coupons"}
		}
		for _, applied := range e.state.coupons {
			if !applied.Definition.Combinable {
				e.mu.Unlock()
				return coupon.Result{Success: false, Message: "An applied coupon cannot be combined with other coupons"}
			}
		}
	}

	e.state.coupons = append(e.state.coupons, domain.AppliedCoupon{
		Code:       normalized,
		Discount:   domain.Money{Value: 0, Formatted: ""},
		Definition: *def,
	})
	e.recomputeLocked(ctx)
	e.persistLocked(ctx)
	e.mu.Unlock()

	e.publishUpdated()
	return coupon.Result{Success: true, Message: "Coupon applied"}
}

// RemoveCoupon filters the code out and recomputes. Removing a coupon
// that is not applied is a no-op.
func (e *Engine) RemoveCoupon(ctx context.Context, code string) {
	normalized := coupon.Normalize(code)

	e.mu.Lock()
	removed := false
	kept := e.state.coupons[:0]
	for _, applied := range e.state.coupons {
		if applied.Code == normalized {
			removed = true
			continue
		}
		kept = append(kept, applied)
	}
	if !removed {
		e.mu.Unlock()
		return
	}
	e.state.coupons = kept
	e.recomputeLocked(ctx)
	e.persistLocked(ctx)
	e.mu.Unlock()

	e.publishUpdated()
}
