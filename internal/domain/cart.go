package domain

import "github.com/shopspring/decimal"

// CartItem is one cart line, keyed by its resolved package identifier.
// Price is the package-level total for the line's unit bundle, not a
// per-unit price; every downstream multiplication is Price * Quantity.
type CartItem struct {
	PackageID int `json:"package_id"`
	// OriginalPackageID holds the identifier the caller asked for when a
	// profile remapping rewrote it. Zero when no remapping occurred.
	OriginalPackageID int             `json:"original_package_id,omitempty"`
	Quantity          int             `json:"quantity"`
	Price             decimal.Decimal `json:"price"`

	Title          string          `json:"title"`
	Image          string          `json:"image,omitempty"`
	SKU            string          `json:"sku,omitempty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	RetailPrice    decimal.Decimal `json:"retail_price"`
	RetailTotal    decimal.Decimal `json:"retail_total"`
	RecurringPrice decimal.Decimal `json:"recurring_price"`
	IsRecurring    bool            `json:"is_recurring"`
	Interval       string          `json:"interval,omitempty"`
	IntervalCount  int             `json:"interval_count,omitempty"`

	ProductID   string `json:"product_id,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	VariantID   string `json:"variant_id,omitempty"`
	VariantName string `json:"variant_name,omitempty"`

	// Provenance marker only, never used in pricing math.
	IsUpsell bool `json:"is_upsell,omitempty"`
}

// Matches reports whether the line answers to the given identifier,
// either as the resolved package id or as the pre-remap original.
func (i CartItem) Matches(packageID int) bool {
	return i.PackageID == packageID || (i.OriginalPackageID != 0 && i.OriginalPackageID == packageID)
}

// LineTotal is Price * Quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// RetailLineTotal is the retail total for the line, falling back to the
// sale total when the catalog publishes no retail price. Absence of a
// retail price means "no markup", not "free".
func (i CartItem) RetailLineTotal() decimal.Decimal {
	retail := i.RetailTotal
	if retail.IsZero() {
		retail = i.Price
	}
	return retail.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// AppliedCoupon is a coupon attached to the cart. Discount is a display
// cache only: it is overwritten from Definition on every recomputation
// and must never be treated as a source of truth.
type AppliedCoupon struct {
	Code       string             `json:"code"`
	Discount   Money              `json:"discount"`
	Definition DiscountDefinition `json:"definition"`
}

// ShippingMethod is a pre-priced selection from the shipping catalog.
// Price is never computed from weight or distance.
type ShippingMethod struct {
	ID    int             `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Code  string          `json:"code,omitempty"`
}
