package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/Sellmore-Co/campaign-cart-sub008/internal/domain"
)

// Static holds an in-memory campaign catalog: packages keyed by ref id
// plus the shipping method table. Replace swaps the whole package table
// in one step, which is what a currency switch does before the engine
// refreshes item prices.
type Static struct {
	mu       sync.RWMutex
	packages map[int]domain.PackageRecord
	shipping map[int]domain.ShippingMethod
}

func NewStatic(packages []domain.PackageRecord, shipping []domain.ShippingMethod) *Static {
	s := &Static{
		packages: make(map[int]domain.PackageRecord, len(packages)),
		shipping: make(map[int]domain.ShippingMethod, len(shipping)),
	}
	for _, p := range packages {
		s.packages[p.Ref] = p
	}
	for _, m := range shipping {
		s.shipping[m.ID] = m
	}
	return s
}

// campaignFile is the on-disk shape of a campaign catalog export.
type campaignFile struct {
	Packages        []domain.PackageRecord  `json:"packages"`
	ShippingMethods []domain.ShippingMethod `json:"shipping_methods"`
}

// LoadFile reads a campaign catalog JSON export from disk.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var f campaignFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	return NewStatic(f.Packages, f.ShippingMethods), nil
}

func (s *Static) GetPackage(_ context.Context, packageID int) (*domain.PackageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.packages[packageID]
	if !ok {
		return nil, ErrPackageNotFound
	}
	return &p, nil
}

func (s *Static) GetShippingMethod(_ context.Context, methodID int) (*domain.ShippingMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.shipping[methodID]
	if !ok {
		return nil, ErrShippingMethodNotFound
	}
	return &m, nil
}

// Replace installs a new package table, e.g. after a currency change
// reloads the campaign. Shipping methods are replaced only when a
// non-nil slice is given. When a CachedLookup wraps this catalog the
// new prices become visible on the next refresh, which invalidates the
// cache before repricing.
func (s *Static) Replace(packages []domain.PackageRecord, shipping []domain.ShippingMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packages = make(map[int]domain.PackageRecord, len(packages))
	for _, p := range packages {
		s.packages[p.Ref] = p
	}
	if shipping != nil {
		s.shipping = make(map[int]domain.ShippingMethod, len(shipping))
		for _, m := range shipping {
			s.shipping[m.ID] = m
		}
	}
}

// ProfileRemapper substitutes package identifiers according to a
// configured profile. A nil or empty mapping is the identity.
type ProfileRemapper struct {
	mapping map[int]int
}

func NewProfileRemapper(mapping map[int]int) *ProfileRemapper {
	return &ProfileRemapper{mapping: mapping}
}

func (r *ProfileRemapper) GetMappedPackageID(packageID int) int {
	if r == nil || r.mapping == nil {
		return packageID
	}
	if mapped, ok := r.mapping[packageID]; ok {
		return mapped
	}
	return packageID
}
