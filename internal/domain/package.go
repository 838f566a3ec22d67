package domain

import "github.com/shopspring/decimal"

// PackageRecord is one catalog entry: a purchasable bundle with its
// current pricing. Price fields arrive as decimal strings on the wire
// and stay decimal all the way through the calculator.
type PackageRecord struct {
	Ref              int             `json:"ref_id"`
	Price            decimal.Decimal `json:"price"`
	PriceTotal       decimal.Decimal `json:"price_total"`
	PriceRetail      decimal.Decimal `json:"price_retail"`
	PriceRetailTotal decimal.Decimal `json:"price_retail_total"`
	PriceRecurring   decimal.Decimal `json:"price_recurring"`
	IsRecurring      bool            `json:"is_recurring"`
	Interval         string          `json:"interval,omitempty"`
	IntervalCount    int             `json:"interval_count,omitempty"`
	Qty              int             `json:"qty"`
	Image            string          `json:"image,omitempty"`
	Name             string          `json:"name"`

	ProductID   string `json:"product_id,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	VariantID   string `json:"variant_id,omitempty"`
	VariantName string `json:"variant_name,omitempty"`
	SKU         string `json:"sku,omitempty"`
}

// RetailTotal is the package retail total, falling back to the sale
// total when the catalog publishes none.
func (p PackageRecord) RetailTotal() decimal.Decimal {
	if p.PriceRetailTotal.IsZero() {
		return p.PriceTotal
	}
	return p.PriceRetailTotal
}
