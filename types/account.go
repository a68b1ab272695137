package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a Kontur account attached to a client, with its cards,
// balances and recent transactions.
type Account struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	IsMutable    bool                 `json:"isMutable"`
	IsRefillable bool                 `json:"isRefillable"`
	Cards        []AccountCard        `json:"cards"`
	Balance      []AccountBalance     `json:"balance"`
	Transactions []AccountTransaction `json:"transactions"`
}

// AccountCard is a physical or virtual card bound to an account.
type AccountCard struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Active bool   `json:"active"`
}

// AccountBalance is the account balance in one currency.
type AccountBalance struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// AccountTransaction is a movement on a Kontur account. Unlike Transaction
// it may reference the payment gate operation that produced it.
type AccountTransaction struct {
	ID            string            `json:"id,omitempty"`
	KonturID      string            `json:"konturId,omitempty"`
	PaymentGateID string            `json:"paymentGateId,omitempty"`
	Date          time.Time         `json:"date"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency"`
	Status        TransactionStatus `json:"status"`
}
