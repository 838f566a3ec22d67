package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sellmore-Co/campaign-cart-sub008/internal/catalog"
	"github.com/Sellmore-Co/campaign-cart-sub008/internal/domain"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Calculator derives totals, coupon discounts and enriched display
// items from the current line items. It holds no state of its own; the
// same inputs always produce the same result.
type Calculator struct {
	catalog   catalog.Lookup
	formatter CurrencyFormatter
}

func NewCalculator(cat catalog.Lookup, formatter CurrencyFormatter) *Calculator {
	return &Calculator{catalog: cat, formatter: formatter}
}

// Result carries everything one recomputation produces. Coupons are the
// applied coupons with their Discount caches overwritten; nothing else
// may write that field.
type Result struct {
	Totals        domain.CartTotals
	EnrichedItems []domain.EnrichedItem
	Coupons       []domain.AppliedCoupon
}

// Compute runs the full derivation. On a catalog miss for a single line
// the stored copy of that line is used instead (a removed catalog entry
// must not zero the whole cart); any other catalog failure aborts and
// the caller falls back to SafeDefaults.
func (c *Calculator) Compute(ctx context.Context, items []domain.CartItem, coupons []domain.AppliedCoupon, shipping *domain.ShippingMethod) (*Result, error) {
	subtotal := decimal.Zero
	compareTotal := decimal.Zero
	count := 0
	enriched := make([]domain.EnrichedItem, 0, len(items))

	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(item.Price.Mul(qty))
		count += item.Quantity

		record, err := c.catalog.GetPackage(ctx, item.PackageID)
		if errors.Is(err, catalog.ErrPackageNotFound) {
			record = nil
		} else if err != nil {
			return nil, fmt.Errorf("catalog lookup for package %d: %w", item.PackageID, err)
		}

		compareTotal = compareTotal.Add(retailLineTotal(item, record))
		enriched = append(enriched, c.enrich(item, record))
	}

	savings := compareTotal.Sub(subtotal)
	if savings.IsNegative() {
		savings = decimal.Zero
	}

	shippingPrice := decimal.Zero
	if shipping != nil && len(items) > 0 {
		shippingPrice = shipping.Price
	}
	tax := decimal.Zero // tax computation is disabled

	// Recompute every coupon discount from its immutable definition
	// against the current items; stored discounts are never reused.
	totalDiscounts := decimal.Zero
	recomputed := make([]domain.AppliedCoupon, len(coupons))
	for i, applied := range coupons {
		discount := CouponDiscount(applied.Definition, items, subtotal)
		totalDiscounts = totalDiscounts.Add(discount)
		applied.Discount = c.money(discount)
		recomputed[i] = applied
	}
	if totalDiscounts.GreaterThan(subtotal) {
		totalDiscounts = subtotal
	}

	total := subtotal.Add(shippingPrice).Add(tax).Sub(totalDiscounts)
	totalExclShipping := subtotal.Add(tax).Sub(totalDiscounts)
	totalSavings := savings.Add(totalDiscounts)

	totals := domain.CartTotals{
		Subtotal:               c.money(subtotal),
		Shipping:               c.money(shippingPrice),
		Tax:                    c.money(tax),
		Discounts:              c.money(totalDiscounts),
		Total:                  c.money(total),
		TotalExclShipping:      c.money(totalExclShipping),
		Savings:                c.money(savings),
		SavingsPercentage:      c.percent(ratio(savings, compareTotal)),
		CompareTotal:           c.money(compareTotal),
		TotalSavings:           c.money(totalSavings),
		TotalSavingsPercentage: c.percent(ratio(totalSavings, compareTotal)),
		Count:                  count,
		IsEmpty:                len(items) == 0,
	}

	return &Result{Totals: totals, EnrichedItems: enriched, Coupons: recomputed}, nil
}

// CouponDiscount computes one coupon's discount against the current
// items. Order-scope rules discount the whole subtotal; package-scope
// rules discount only the eligible lines. Percentage discounts respect
// MaxDiscount, fixed discounts never exceed the eligible amount.
func CouponDiscount(def domain.DiscountDefinition, items []domain.CartItem, subtotal decimal.Decimal) decimal.Decimal {
	eligible := subtotal
	if def.Scope == domain.ScopePackage {
		eligible = decimal.Zero
		for _, item := range items {
			if def.AppliesTo(item) {
				eligible = eligible.Add(item.LineTotal())
			}
		}
	}

	var discount decimal.Decimal
	switch def.Type {
	case domain.TypePercentage:
		discount = eligible.Mul(def.Value).Div(oneHundred)
		if !def.MaxDiscount.IsZero() && discount.GreaterThan(def.MaxDiscount) {
			discount = def.MaxDiscount
		}
	case domain.TypeFixed:
		discount = def.Value
		if discount.GreaterThan(eligible) {
			discount = eligible
		}
	}

	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount
}

// SafeDefaults is the zeroed totals installed when a recomputation
// fails; the UI must never be left with stale or partial numbers.
func (c *Calculator) SafeDefaults() domain.CartTotals {
	zero := c.money(decimal.Zero)
	zeroPct := c.percent(decimal.Zero)
	return domain.CartTotals{
		Subtotal:               zero,
		Shipping:               zero,
		Tax:                    zero,
		Discounts:              zero,
		Total:                  zero,
		TotalExclShipping:      zero,
		Savings:                zero,
		SavingsPercentage:      zeroPct,
		CompareTotal:           zero,
		TotalSavings:           zero,
		TotalSavingsPercentage: zeroPct,
		Count:                  0,
		IsEmpty:                true,
	}
}

// enrich builds the display projection for one line. Unit prices come
// from the catalog record when it still exists so a currency switch is
// reflected immediately; the stored copy is only a fallback.
func (c *Calculator) enrich(item domain.CartItem, record *domain.PackageRecord) domain.EnrichedItem {
	unitPrice := item.UnitPrice
	unitRetail := item.RetailPrice
	lineTotal := item.LineTotal()
	lineRetail := item.RetailLineTotal()
	recurringPrice := item.RecurringPrice
	isRecurring := item.IsRecurring
	interval := item.Interval
	intervalCount := item.IntervalCount
	title := item.Title
	image := item.Image
	sku := item.SKU

	if record != nil {
		qty := decimal.NewFromInt(int64(item.Quantity))
		unitPrice = record.Price
		unitRetail = record.PriceRetail
		lineTotal = record.PriceTotal.Mul(qty)
		lineRetail = record.RetailTotal().Mul(qty)
		recurringPrice = record.PriceRecurring
		isRecurring = record.IsRecurring
		interval = record.Interval
		intervalCount = record.IntervalCount
		if image == "" {
			image = record.Image
		}
		if sku == "" {
			sku = record.SKU
		}
	}
	if unitRetail.IsZero() {
		unitRetail = unitPrice
	}

	lineSavings := lineRetail.Sub(lineTotal)
	if lineSavings.IsNegative() {
		lineSavings = decimal.Zero
	}
	hasSavings := lineSavings.IsPositive()

	return domain.EnrichedItem{
		PackageID:         item.PackageID,
		OriginalPackageID: item.OriginalPackageID,
		Quantity:          item.Quantity,
		Title:             title,
		Image:             image,
		SKU:               sku,
		UnitPrice:         c.money(unitPrice),
		UnitRetailPrice:   c.money(unitRetail),
		LineTotal:         c.money(lineTotal),
		LineRetailTotal:   c.money(lineRetail),
		LineSavings:       c.money(lineSavings),
		SavingsPercentage: c.percent(ratio(lineSavings, lineRetail)),
		RecurringPrice:    c.money(recurringPrice),
		IsRecurring:       isRecurring,
		Frequency:         FrequencyPhrase(isRecurring, interval, intervalCount),
		HasSavings:        hasSavings,
		ShowCompare:       hasSavings,
	}
}

// FrequencyPhrase renders recurring billing terms for display.
func FrequencyPhrase(isRecurring bool, interval string, intervalCount int) string {
	if !isRecurring || interval == "" {
		return "One time"
	}
	if intervalCount > 1 {
		return fmt.Sprintf("Every %d %ss", intervalCount, interval)
	}
	return "Per " + interval
}

func (c *Calculator) money(d decimal.Decimal) domain.Money {
	return domain.Money{Value: d.InexactFloat64(), Formatted: c.formatter.FormatCurrency(d)}
}

func (c *Calculator) percent(r decimal.Decimal) domain.Money {
	return domain.Money{Value: r.InexactFloat64(), Formatted: c.formatter.FormatPercentage(r)}
}

func ratio(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole)
}

func retailLineTotal(item domain.CartItem, record *domain.PackageRecord) decimal.Decimal {
	if record == nil {
		return item.RetailLineTotal()
	}
	return record.RetailTotal().Mul(decimal.NewFromInt(int64(item.Quantity)))
}
