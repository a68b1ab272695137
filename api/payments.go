package api

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/konturpay/kontur-go/types"
)

const paymentsBase = "/payment"

// PaymentsService starts account refills and reads payment state.
type PaymentsService struct {
	api Requester
}

func NewPaymentsService(api Requester) *PaymentsService {
	return &PaymentsService{api: api}
}

// RefillParams describes one refill payment.
type RefillParams struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	AccountID   string          `json:"accountId"`
	CallbackURL string          `json:"callbackUrl"`
}

// Refill starts a refill through the given payment gate and returns the URL
// the user must be redirected to. Completion arrives asynchronously on the
// push channel as a refill outcome notification.
func (s *PaymentsService) Refill(ctx context.Context, params RefillParams, paymentGateID string) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := s.api.Post(ctx, paymentsBase+"/refill-card/"+paymentGateID, params, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// Transaction returns the current state of one payment.
func (s *PaymentsService) Transaction(ctx context.Context, transactionID string) (*types.Transaction, error) {
	var tx types.Transaction
	if err := s.api.Get(ctx, paymentsBase+"/transaction/"+transactionID, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}
