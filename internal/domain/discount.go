package domain

import "github.com/shopspring/decimal"

// Discount scopes and types as they appear in the campaign rule table.
const (
	ScopeOrder   = "order"
	ScopePackage = "package"

	TypePercentage = "percentage"
	TypeFixed      = "fixed"
)

// DiscountDefinition is one coupon rule. An immutable copy is taken at
// apply-time; the live rule table is never consulted again for an
// applied coupon.
type DiscountDefinition struct {
	Scope string          `json:"scope"`
	Type  string          `json:"type"`
	Value decimal.Decimal `json:"value"`

	// MaxDiscount caps percentage discounts; zero means no cap.
	MaxDiscount decimal.Decimal `json:"max_discount,omitempty"`
	// MinOrderValue gates application; zero means no minimum.
	MinOrderValue decimal.Decimal `json:"min_order_value,omitempty"`
	Combinable    bool            `json:"combinable"`
	// PackageIDs is the eligibility allow-list for package-scope rules.
	PackageIDs []int `json:"package_ids,omitempty"`
}

// AppliesTo reports whether the rule's allow-list covers the line,
// matching the resolved id or the pre-remap original.
func (d DiscountDefinition) AppliesTo(item CartItem) bool {
	if d.Scope != ScopePackage {
		return true
	}
	for _, id := range d.PackageIDs {
		if item.Matches(id) {
			return true
		}
	}
	return false
}
