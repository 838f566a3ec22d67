package catalog

import (
	"context"
	"errors"

	"github.com/Sellmore-Co/campaign-cart-sub008/internal/domain"
)

// Lookup resolves a package identifier to its current catalog entry.
// Consumers define this interface, not the catalog implementation.
type Lookup interface {
	GetPackage(ctx context.Context, packageID int) (*domain.PackageRecord, error)
}

// Remapper optionally rewrites a requested package identifier to a
// different one (A/B profile substitution). Implementations return the
// input unchanged when no mapping is active.
type Remapper interface {
	GetMappedPackageID(packageID int) int
}

// Invalidator is implemented by lookups that hold cached catalog
// entries. A price refresh drops the cache first so repricing reads the
// live catalog instead of stale entries.
type Invalidator interface {
	Invalidate()
}

// ShippingMethods resolves a shipping method id to its pre-priced entry.
type ShippingMethods interface {
	GetShippingMethod(ctx context.Context, methodID int) (*domain.ShippingMethod, error)
}

var (
	ErrPackageNotFound        = errors.New("package not found in catalog")
	ErrShippingMethodNotFound = errors.New("shipping method not found")
)
