package coupon

import (
	"errors"
	"strings"

	"github.com/Sellmore-Co/campaign-cart-sub008/internal/domain"
)

// RuleTable maps a normalized coupon code to its discount definition.
type RuleTable interface {
	GetDiscount(code string) (*domain.DiscountDefinition, error)
}

var ErrUnknownCoupon = errors.New("unknown coupon code")

// Result is the soft outcome of a coupon application. Validation
// failures are user-facing, so they are carried here instead of an
// error return.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Normalize is the canonical form coupon codes are compared in.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// StaticRules is an in-memory rule table keyed by normalized code.
type StaticRules struct {
	rules map[string]domain.DiscountDefinition
}

func NewStaticRules(rules map[string]domain.DiscountDefinition) *StaticRules {
	normalized := make(map[string]domain.DiscountDefinition, len(rules))
	for code, def := range rules {
		normalized[Normalize(code)] = def
	}
	return &StaticRules{rules: normalized}
}

func (s *StaticRules) GetDiscount(code string) (*domain.DiscountDefinition, error) {
	def, ok := s.rules[Normalize(code)]
	if !ok {
		return nil, ErrUnknownCoupon
	}
	return &def, nil
}
