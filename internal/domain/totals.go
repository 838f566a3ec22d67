package domain

// Money pairs an authoritative numeric value with its display string.
// Value is always the number to compute with; Formatted is only ever
// produced by the currency formatter.
type Money struct {
	Value     float64 `json:"value"`
	Formatted string  `json:"formatted"`
}

// CartTotals is the fully derived monetary state of the cart. It is
// replaced wholesale on every recomputation, never patched field by
// field.
type CartTotals struct {
	Subtotal          Money `json:"subtotal"`
	Shipping          Money `json:"shipping"`
	Tax               Money `json:"tax"`
	Discounts         Money `json:"discounts"`
	Total             Money `json:"total"`
	TotalExclShipping Money `json:"total_excl_shipping"`

	// Savings compares retail against sale prices; TotalSavings adds
	// coupon discounts on top. Percentages are ratios of CompareTotal.
	Savings                Money `json:"savings"`
	SavingsPercentage      Money `json:"savings_percentage"`
	CompareTotal           Money `json:"compare_total"`
	TotalSavings           Money `json:"total_savings"`
	TotalSavingsPercentage Money `json:"total_savings_percentage"`

	Count   int  `json:"count"`
	IsEmpty bool `json:"is_empty"`
}

// EnrichedItem is a read-only display projection of a cart line,
// recomputed from current catalog data rather than the stored copy so a
// currency switch never leaves stale unit prices on screen.
type EnrichedItem struct {
	PackageID         int    `json:"package_id"`
	OriginalPackageID int    `json:"original_package_id,omitempty"`
	Quantity          int    `json:"quantity"`
	Title             string `json:"title"`
	Image             string `json:"image,omitempty"`
	SKU               string `json:"sku,omitempty"`

	UnitPrice         Money `json:"unit_price"`
	UnitRetailPrice   Money `json:"unit_retail_price"`
	LineTotal         Money `json:"line_total"`
	LineRetailTotal   Money `json:"line_retail_total"`
	LineSavings       Money `json:"line_savings"`
	SavingsPercentage Money `json:"savings_percentage"`

	RecurringPrice Money  `json:"recurring_price"`
	IsRecurring    bool   `json:"is_recurring"`
	Frequency      string `json:"frequency"`

	HasSavings  bool `json:"has_savings"`
	ShowCompare bool `json:"show_compare"`
}
