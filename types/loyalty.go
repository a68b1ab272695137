package types

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// LoyaltyRuleType selects how a rule maps a refill amount to bonus currency.
type LoyaltyRuleType string

const (
	// LoyaltyRuleFixed grants a fixed bonus amount.
	LoyaltyRuleFixed LoyaltyRuleType = "FIXED"
	// LoyaltyRulePercent grants a percentage of the refill amount.
	LoyaltyRulePercent LoyaltyRuleType = "PERCENT"
)

// LoyaltyRule is one configured bonus accrual rule. Min and Max bound the
// refill amount the rule applies to; Max is open-ended when nil.
type LoyaltyRule struct {
	ID    int64            `json:"id"`
	Type  LoyaltyRuleType  `json:"type"`
	Min   decimal.Decimal  `json:"min"`
	Max   *decimal.Decimal `json:"max,omitempty"`
	Value decimal.Decimal  `json:"value"`
}

// ActivityEventType names a client activity feed entry.
type ActivityEventType string

// ActivityEvent is one entry of the client activity feed. Payload shape
// depends on the event type and is left to the caller to interpret.
type ActivityEvent struct {
	Type      ActivityEventType `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   json.RawMessage   `json:"payload"`
}
