package models

// TransferRequest is what the engine hands to a transfer client:
// send Amount units of Mint from the owner of the Owner keypair to Recipient.
type TransferRequest struct {
	Recipient string
	Amount    uint64
	Mint      string
	Owner     string // path to the signer keypair
}
