package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/Sellmore-Co/campaign-cart-sub008/internal/catalog"
	"github.com/Sellmore-Co/campaign-cart-sub008/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	packages map[int]domain.PackageRecord
	err      error
}

func (s *stubCatalog) GetPackage(_ context.Context, packageID int) (*domain.PackageRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.packages[packageID]
	if !ok {
		return nil, catalog.ErrPackageNotFound
	}
	return &p, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testPackage(ref int, price, total string) domain.PackageRecord {
	return domain.PackageRecord{
		Ref:        ref,
		Price:      dec(price),
		PriceTotal: dec(total),
		Qty:        1,
		Name:       "Test Package",
	}
}

func newTestCalculator(packages ...domain.PackageRecord) *Calculator {
	byRef := make(map[int]domain.PackageRecord, len(packages))
	for _, p := range packages {
		byRef[p.Ref] = p
	}
	return NewCalculator(&stubCatalog{packages: byRef}, NewUSDFormatter())
}

func item(packageID, quantity int, price string) domain.CartItem {
	return domain.CartItem{PackageID: packageID, Quantity: quantity, Price: dec(price)}
}

func TestComputeSubtotalFromPackageTotals(t *testing.T) {
	calc := newTestCalculator(testPackage(5, "19.99", "19.99"))

	result, err := calc.Compute(context.Background(), []domain.CartItem{item(5, 2, "19.99")}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 39.98, result.Totals.Subtotal.Value)
	assert.Equal(t, "$39.98", result.Totals.Subtotal.Formatted)
	assert.False(t, result.Totals.IsEmpty)
	assert.Equal(t, 2, result.Totals.Count)
}

func TestComputeEmptyCart(t *testing.T) {
	calc := newTestCalculator()

	result, err := calc.Compute(context.Background(), nil, nil, nil)
	require.NoError(t, err)

	assert.True(t, result.Totals.IsEmpty)
	assert.Equal(t, 0.0, result.Totals.Subtotal.Value)
	assert.Equal(t, 0.0, result.Totals.Total.Value)
	assert.Equal(t, "$0.00", result.Totals.Total.Formatted)
}

func TestComputeOrderScopePercentageCoupon(t *testing.T) {
	calc := newTestCalculator(testPackage(1, "100.00", "100.00"))

	coupons := []domain.AppliedCoupon{{
		Code: "SAVE10",
		Definition: domain.DiscountDefinition{
			Scope: domain.ScopeOrder,
			Type:  domain.TypePercentage,
			Value: dec("10"),
		},
	}}

	result, err := calc.Compute(context.Background(), []domain.CartItem{item(1, 1, "100.00")}, coupons, nil)
	require.NoError(t, err)

	assert.Equal(t, 10.0, result.Totals.Discounts.Value)
	assert.Equal(t, 90.0, result.Totals.Total.Value)
	// The stored discount cache is overwritten with the recomputed value.
	assert.Equal(t, 10.0, result.Coupons[0].Discount.Value)
}

func TestComputeCouponDiscountIsNeverReused(t *testing.T) {
	calc := newTestCalculator(testPackage(1, "50.00", "50.00"))

	coupons := []domain.AppliedCoupon{{
		Code:     "SAVE10",
		Discount: domain.Money{Value: 999, Formatted: "$999.00"}, // stale cache
		Definition: domain.DiscountDefinition{
			Scope: domain.ScopeOrder,
			Type:  domain.TypePercentage,
			Value: dec("10"),
		},
	}}

	result, err := calc.Compute(context.Background(), []domain.CartItem{item(1, 1, "50.00")}, coupons, nil)
	require.NoError(t, err)

	assert.Equal(t, 5.0, result.Coupons[0].Discount.Value)
	assert.Equal(t, 5.0, result.Totals.Discounts.Value)
}

func TestComputePackageScopeCoupon(t *testing.T) {
	calc := newTestCalculator(
		testPackage(1, "40.00", "40.00"),
		testPackage(2, "60.00", "60.00"),
	)

	coupons := []domain.AppliedCoupon{{
		Code: "PKG20",
		Definition: domain.DiscountDefinition{
			Scope:      domain.ScopePackage,
			Type:       domain.TypePercentage,
			Value:      dec("20"),
			PackageIDs: []int{1},
		},
	}}

	items := []domain.CartItem{item(1, 1, "40.00"), item(2, 1, "60.00")}
	result, err := calc.Compute(context.Background(), items, coupons, nil)
	require.NoError(t, err)

	// 20% of the eligible line only, not of the whole subtotal.
	assert.Equal(t, 8.0, result.Totals.Discounts.Value)
	assert.Equal(t, 92.0, result.Totals.Total.Value)
}

func TestComputePackageScopeCouponMatchesOriginalID(t *testing.T) {
	calc := newTestCalculator(testPackage(7, "30.00", "30.00"))

	coupons := []domain.AppliedCoupon{{
		Code: "PKG5",
		Definition: domain.DiscountDefinition{
			Scope:      domain.ScopePackage,
			Type:       domain.TypeFixed,
			Value:      dec("5"),
			PackageIDs: []int{5}, // pre-remap identifier
		},
	}}

	remapped := domain.CartItem{PackageID: 7, OriginalPackageID: 5, Quantity: 1, Price: dec("30.00")}
	result, err := calc.Compute(context.Background(), []domain.CartItem{remapped}, coupons, nil)
	require.NoError(t, err)

	assert.Equal(t, 5.0, result.Totals.Discounts.Value)
}

func TestComputeDiscountClampedToSubtotal(t *testing.T) {
	calc := newTestCalculator(testPackage(1, "10.00", "10.00"))

	coupons := []domain.AppliedCoupon{
		{Code: "BIG1", Definition: domain.DiscountDefinition{Scope: domain.ScopeOrder, Type: domain.TypeFixed, Value: dec("8"), Combinable: true}},
		{Code: "BIG2", Definition: domain.DiscountDefinition{Scope: domain.ScopeOrder, Type: domain.TypeFixed, Value: dec("8"), Combinable: true}},
	}

	result, err := calc.Compute(context.Background(), []domain.CartItem{item(1, 1, "10.00")}, coupons, nil)
	require.NoError(t, err)

	assert.Equal(t, 10.0, result.Totals.Discounts.Value)
	assert.Equal(t, 0.0, result.Totals.Total.Value)
	assert.GreaterOrEqual(t, result.Totals.Total.Value, 0.0)
}

func TestComputePercentageCouponRespectsMaxDiscount(t *testing.T) {
	def := domain.DiscountDefinition{
		Scope:       domain.ScopeOrder,
		Type:        domain.TypePercentage,
		Value:       dec("50"),
		MaxDiscount: dec("15"),
	}

	discount := CouponDiscount(def, []domain.CartItem{item(1, 1, "100.00")}, dec("100"))
	assert.True(t, discount.Equal(dec("15")), "got %s", discount)
}

func TestComputeFixedCouponCappedAtEligibleAmount(t *testing.T) {
	def := domain.DiscountDefinition{
		Scope:      domain.ScopePackage,
		Type:       domain.TypeFixed,
		Value:      dec("50"),
		PackageIDs: []int{1},
	}

	discount := CouponDiscount(def, []domain.CartItem{item(1, 1, "20.00")}, dec("20"))
	assert.True(t, discount.Equal(dec("20")), "got %s", discount)
}

func TestComputeSavingsAgainstRetail(t *testing.T) {
	pkg := testPackage(1, "75.00", "75.00")
	pkg.PriceRetail = dec("100.00")
	pkg.PriceRetailTotal = dec("100.00")
	calc := newTestCalculator(pkg)

	result, err := calc.Compute(context.Background(), []domain.CartItem{item(1, 1, "75.00")}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 100.0, result.Totals.CompareTotal.Value)
	assert.Equal(t, 25.0, result.Totals.Savings.Value)
	assert.InDelta(t, 0.25, result.Totals.SavingsPercentage.Value, 1e-9)
	assert.Equal(t, "25%", result.Totals.SavingsPercentage.Formatted)
}

func TestComputeNoRetailPriceMeansNoMarkup(t *testing.T) {
	// A package without a published retail total compares at its sale
	// total, never at zero.
	calc := newTestCalculator(testPackage(1, "75.00", "75.00"))

	result, err := calc.Compute(context.Background(), []domain.CartItem{item(1, 1, "75.00")}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 75.0, result.Totals.CompareTotal.Value)
	assert.Equal(t, 0.0, result.Totals.Savings.Value)
}

func TestComputeShippingOnlyWhenCartNonEmpty(t *testing.T) {
	calc := newTestCalculator(testPackage(1, "10.00", "10.00"))
	method := &domain.ShippingMethod{ID: 1, Name: "Standard", Price: dec("4.99")}

	result, err := calc.Compute(context.Background(), []domain.CartItem{item(1, 1, "10.00")}, nil, method)
	require.NoError(t, err)
	assert.Equal(t, 4.99, result.Totals.Shipping.Value)
	assert.Equal(t, 14.99, result.Totals.Total.Value)
	assert.Equal(t, 10.0, result.Totals.TotalExclShipping.Value)

	empty, err := calc.Compute(context.Background(), nil, nil, method)
	require.NoError(t, err)
	assert.Equal(t, 0.0, empty.Totals.Shipping.Value)
}

func TestComputeTaxAlwaysZero(t *testing.T) {
	calc := newTestCalculator(testPackage(1, "10.00", "10.00"))

	result, err := calc.Compute(context.Background(), []domain.CartItem{item(1, 1, "10.00")}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Totals.Tax.Value)
}

func TestComputeIsIdempotent(t *testing.T) {
	pkg := testPackage(5, "19.99", "19.99")
	pkg.PriceRetailTotal = dec("29.99")
	calc := newTestCalculator(pkg)

	items := []domain.CartItem{item(5, 2, "19.99")}
	coupons := []domain.AppliedCoupon{{
		Code:       "SAVE10",
		Definition: domain.DiscountDefinition{Scope: domain.ScopeOrder, Type: domain.TypePercentage, Value: dec("10")},
	}}

	first, err := calc.Compute(context.Background(), items, coupons, nil)
	require.NoError(t, err)
	second, err := calc.Compute(context.Background(), items, first.Coupons, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Totals, second.Totals)
	assert.Equal(t, first.Coupons, second.Coupons)
}

func TestComputeEnrichedItemsUseCurrentCatalogPrices(t *testing.T) {
	// The stored line still carries the old currency's prices; the
	// enriched projection must reflect the catalog as it is now.
	pkg := testPackage(1, "12.00", "12.00")
	calc := newTestCalculator(pkg)

	stale := item(1, 2, "10.00")
	result, err := calc.Compute(context.Background(), []domain.CartItem{stale}, nil, nil)
	require.NoError(t, err)

	require.Len(t, result.EnrichedItems, 1)
	assert.Equal(t, 12.0, result.EnrichedItems[0].UnitPrice.Value)
	assert.Equal(t, 24.0, result.EnrichedItems[0].LineTotal.Value)
	// The subtotal still follows the stored line until prices refresh.
	assert.Equal(t, 20.0, result.Totals.Subtotal.Value)
}

func TestComputeEnrichedItemFallsBackToStoredCopy(t *testing.T) {
	calc := newTestCalculator() // package no longer in catalog

	line := domain.CartItem{PackageID: 9, Quantity: 1, Price: dec("10.00"), UnitPrice: dec("10.00"), Title: "Gone"}
	result, err := calc.Compute(context.Background(), []domain.CartItem{line}, nil, nil)
	require.NoError(t, err)

	require.Len(t, result.EnrichedItems, 1)
	assert.Equal(t, 10.0, result.EnrichedItems[0].UnitPrice.Value)
	assert.Equal(t, "Gone", result.EnrichedItems[0].Title)
}

func TestComputeFailsWhenCatalogUnavailable(t *testing.T) {
	calc := NewCalculator(&stubCatalog{err: errors.New("catalog down")}, NewUSDFormatter())

	_, err := calc.Compute(context.Background(), []domain.CartItem{item(1, 1, "10.00")}, nil, nil)
	require.Error(t, err)
}

func TestSafeDefaultsAreZeroedAndFormatted(t *testing.T) {
	calc := newTestCalculator()
	totals := calc.SafeDefaults()

	assert.True(t, totals.IsEmpty)
	assert.Equal(t, 0.0, totals.Total.Value)
	assert.Equal(t, "$0.00", totals.Total.Formatted)
	assert.Equal(t, "0%", totals.SavingsPercentage.Formatted)
}

func TestFrequencyPhrase(t *testing.T) {
	assert.Equal(t, "One time", FrequencyPhrase(false, "month", 1))
	assert.Equal(t, "One time", FrequencyPhrase(true, "", 0))
	assert.Equal(t, "Per month", FrequencyPhrase(true, "month", 1))
	assert.Equal(t, "Every 3 months", FrequencyPhrase(true, "month", 3))
}

func TestSymbolFormatter(t *testing.T) {
	f := NewUSDFormatter()
	assert.Equal(t, "$19.99", f.FormatCurrency(dec("19.99")))
	assert.Equal(t, "$5.00", f.FormatCurrency(dec("5")))
	assert.Equal(t, "-$5.00", f.FormatCurrency(dec("-5")))
	assert.Equal(t, "33%", f.FormatPercentage(dec("0.333")))
}
