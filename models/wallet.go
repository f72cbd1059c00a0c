package models

import "github.com/pkg/errors"

var ErrInvalidAmount = errors.New("amount must be a positive integer")

// RecipientRequest is one intended transfer from the distribution list.
// Amount is in the token's smallest denomination; zero means it was missing.
type RecipientRequest struct {
	PublicKey string `json:"publicKey"`
	Amount    uint64 `json:"amount"`
}

func (r RecipientRequest) ValidateAmount() error {
	if r.Amount == 0 {
		return errors.Wrapf(ErrInvalidAmount, "recipient %q", r.PublicKey)
	}
	return nil
}
