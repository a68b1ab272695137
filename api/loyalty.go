package api

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/konturpay/kontur-go/types"
)

const loyaltyBase = "/loyalty"

// LoyaltyService reads the bonus currency accrual rules.
type LoyaltyService struct {
	api Requester
}

func NewLoyaltyService(api Requester) *LoyaltyService {
	return &LoyaltyService{api: api}
}

// Rules returns the configured accrual rules.
func (s *LoyaltyService) Rules(ctx context.Context) ([]types.LoyaltyRule, error) {
	var rules []types.LoyaltyRule
	err := s.api.Get(ctx, loyaltyBase+"/rules", &rules)
	return rules, err
}

// CalculateBonus returns the bonus amount a refill of the given amount
// would earn.
func (s *LoyaltyService) CalculateBonus(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	var bonus decimal.Decimal
	err := s.api.Post(ctx, loyaltyBase+"/calc", map[string]decimal.Decimal{"amount": amount}, &bonus)
	return bonus, err
}
