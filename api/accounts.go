package api

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/konturpay/kontur-go/types"
)

const accountsBase = "/client"

// AccountsService reads and updates client data and the Kontur accounts
// attached to it.
type AccountsService struct {
	api Requester
}

func NewAccountsService(api Requester) *AccountsService {
	return &AccountsService{api: api}
}

// CreateAccountParams names a new Kontur account.
type CreateAccountParams struct {
	Name         string `json:"name"`
	IsMutable    bool   `json:"isMutable,omitempty"`
	IsRefillable bool   `json:"isRefillable,omitempty"`
}

// AttachAccountParams binds an existing Kontur account by its code.
type AttachAccountParams struct {
	CreateAccountParams
	Code string `json:"code"`
}

// CreateRefilledAccountParams creates an account and immediately starts a
// refill through a payment gate.
type CreateRefilledAccountParams struct {
	CreateAccountParams
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	CallbackURL string          `json:"callbackUrl"`
}

// ClientUpdate carries the client fields to change; nil fields are left
// untouched.
type ClientUpdate struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// ExistsWithPhone reports whether a client account is bound to the phone.
func (s *AccountsService) ExistsWithPhone(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := s.api.Post(ctx, accountsBase+"/exists-with-phone", map[string]string{"phone": phone}, &exists)
	return exists, err
}

// CheckCard verifies that a card number is registered in the Kontur system.
// An unknown card comes back as an application failure.
func (s *AccountsService) CheckCard(ctx context.Context, card string) error {
	return s.api.Post(ctx, accountsBase+"/check-card", map[string]string{"card": card}, nil)
}

// Register creates a client account for a Kontur card holder. The card must
// pass CheckCard first; the password is used by PasswordLogin afterwards.
func (s *AccountsService) Register(ctx context.Context, card, password string) error {
	return s.api.Post(ctx, accountsBase+"/register", map[string]string{"card": card, "password": password}, nil)
}

// Update changes the authenticated client's profile data.
func (s *AccountsService) Update(ctx context.Context, update ClientUpdate) error {
	return s.api.Post(ctx, accountsBase+"/update", update, nil)
}

// Accounts lists Kontur accounts attached to the authenticated client.
func (s *AccountsService) Accounts(ctx context.Context) ([]types.Account, error) {
	var accounts []types.Account
	err := s.api.Get(ctx, accountsBase+"/accounts", &accounts)
	return accounts, err
}

// Attach binds an existing Kontur account to the client.
func (s *AccountsService) Attach(ctx context.Context, params AttachAccountParams) error {
	return s.api.Post(ctx, accountsBase+"/accounts/attach", params, nil)
}

// Create makes a new Kontur account for the client and returns its id.
func (s *AccountsService) Create(ctx context.Context, params CreateAccountParams) (string, error) {
	var resp struct {
		AccountID string `json:"accountId"`
	}
	if err := s.api.Post(ctx, accountsBase+"/accounts/create", params, &resp); err != nil {
		return "", err
	}
	return resp.AccountID, nil
}

// CreateRefilled makes a new account and returns the payment gate URL the
// user must be redirected to for the initial refill.
func (s *AccountsService) CreateRefilled(ctx context.Context, params CreateRefilledAccountParams, paymentGateID string) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := s.api.Post(ctx, accountsBase+"/accounts/create-refilled/"+paymentGateID, params, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// Activity returns the client activity feed.
func (s *AccountsService) Activity(ctx context.Context) ([]types.ActivityEvent, error) {
	var feed []types.ActivityEvent
	err := s.api.Get(ctx, accountsBase+"/activity", &feed)
	return feed, err
}
