package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the current state of a refill payment as it moves
// through the payment gate and the Kontur backend.
type TransactionStatus string

const (
	// TransactionCreated is the initial state of a new payment.
	TransactionCreated TransactionStatus = "CREATED"
	// TransactionAwaitingPaymentGate: the payment gate is being contacted.
	TransactionAwaitingPaymentGate TransactionStatus = "PG_AWAITING"
	// TransactionApprovedByPaymentGate: the gate accepted the payment.
	TransactionApprovedByPaymentGate TransactionStatus = "PG_APPROVED"
	// TransactionCompletedByPaymentGate: funds were withdrawn by the gate.
	TransactionCompletedByPaymentGate TransactionStatus = "PG_COMPLETED"
	// TransactionReversedByPaymentGate: the merchant cancelled the operation.
	TransactionReversedByPaymentGate TransactionStatus = "PG_REVERSED"
	// TransactionRefundedByPaymentGate: funds were returned to the client.
	TransactionRefundedByPaymentGate TransactionStatus = "PG_REFUNDED"
	// TransactionRejectedByPaymentGate: the gate declined the payment.
	TransactionRejectedByPaymentGate TransactionStatus = "PG_REJECTED"
	// TransactionAwaitingKontur: gate processing done, Kontur processing pending.
	TransactionAwaitingKontur TransactionStatus = "KONTUR_AWAITING"
	// TransactionRejectedByKontur: the Kontur backend failed to process the payment.
	TransactionRejectedByKontur TransactionStatus = "KONTUR_REJECTED"
	// TransactionCompleted: the client account has been refilled.
	TransactionCompleted TransactionStatus = "COMPLETED"
	// TransactionAborted: aborted by the client or timed out.
	TransactionAborted TransactionStatus = "ABORTED"
)

// Transaction is a single refill payment.
type Transaction struct {
	ID       string            `json:"id"`
	ClientID int64             `json:"clientId"`
	Amount   decimal.Decimal   `json:"amount"`
	Currency string            `json:"currency"`
	Status   TransactionStatus `json:"status"`
	Date     time.Time         `json:"date"`
}
