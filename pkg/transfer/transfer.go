package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"token_airdrop/models"
)

var ErrTransfer = errors.New("transfer failed")

const (
	BackendSolana   = "solana"
	BackendSplToken = "spl-token"
)

// Client sends one token transfer and blocks until its result is known.
// A returned error is a per-item failure; the engine records it and moves on.
type Client interface {
	Transfer(ctx context.Context, req models.TransferRequest) (string, error)
}

// Error carries the detail recorded in a FAILED distribution record.
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Detail + ": " + e.Err.Error()
	}
	return e.Detail
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrTransfer
}

func newError(err error, format string, args ...interface{}) *Error {
	return &Error{Detail: fmt.Sprintf(format, args...), Err: err}
}

type Config struct {
	Backend        string
	Solana         SolanaConfig
	SplTokenBinary string
}

type SolanaConfig struct {
	RPCURL         string
	Commitment     string
	Confirm        bool
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	AccountTTL     time.Duration
}

// New builds the client for the configured backend.
func New(cfg Config) (Client, error) {
	switch cfg.Backend {
	case "", BackendSolana:
		return NewSolanaClient(cfg.Solana), nil
	case BackendSplToken:
		return NewSplTokenCLI(cfg.SplTokenBinary, cfg.Solana.RPCURL), nil
	default:
		return nil, errors.Errorf("unknown transfer backend %q", cfg.Backend)
	}
}
