package events

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/konturpay/kontur-go/types"
)

// Kind names a server-pushed notification.
type Kind string

const (
	// KindTransactionStatusChanged: a payment moved to a new status.
	KindTransactionStatusChanged Kind = "transaction-status-changed"
	// KindRefillSucceeded: an account refill completed.
	KindRefillSucceeded Kind = "refill-succeeded"
	// KindRefillFailedByGateway: the payment gate declined the refill.
	KindRefillFailedByGateway Kind = "refill-failed-by-gateway"
	// KindRefillFailedByBackend: the Kontur backend failed to process the refill.
	KindRefillFailedByBackend Kind = "refill-failed-by-backend"
)

// Notification is a decoded server-pushed event. Payload holds
// *TransactionStatusChanged or *RefillResult depending on Kind; it is never
// a raw undecoded string.
type Notification struct {
	Kind    Kind
	Payload any
}

// TransactionStatusChanged is the payload of KindTransactionStatusChanged.
type TransactionStatusChanged struct {
	TransactionID string                  `json:"transactionId"`
	Status        types.TransactionStatus `json:"status"`
}

// RefillResult is the payload of the three refill outcome kinds. Reason
// carries the gateway or backend failure code on the failed kinds.
type RefillResult struct {
	TransactionID string          `json:"transactionId"`
	AccountID     string          `json:"accountId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Reason        string          `json:"reason,omitempty"`
}

// frame is the wire shape of one websocket message.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// decodePayload turns the encoded frame data into the typed payload for kind.
func decodePayload(kind Kind, data []byte) (any, error) {
	switch kind {
	case KindTransactionStatusChanged:
		var p TransactionStatusChanged
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", kind, err)
		}
		return &p, nil
	case KindRefillSucceeded, KindRefillFailedByGateway, KindRefillFailedByBackend:
		var p RefillResult
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", kind, err)
		}
		return &p, nil
	default:
		return nil, fmt.Errorf("unknown notification kind %q", kind)
	}
}
