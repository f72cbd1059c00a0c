package transfer

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"token_airdrop/internal/wallet"
	"token_airdrop/models"
	"token_airdrop/pkg/cache"
)

const (
	DevnetRPC = "https://api.devnet.solana.com"

	defaultCommitment     = "confirmed"
	defaultConfirmTimeout = 60 * time.Second
	defaultPollInterval   = 2 * time.Second
	defaultAccountTTL     = 10 * time.Minute
)

// chainRPC is the part of the Solana RPC the transfer needs.
type chainRPC interface {
	AccountExists(ctx context.Context, address string) (bool, error)
	LatestBlockhash(ctx context.Context) (string, error)
	SendTransaction(ctx context.Context, tx types.Transaction) (string, error)
}

type confirmer interface {
	Confirm(ctx context.Context, signature string) error
}

// SolanaClient transfers SPL tokens with the native SDK: it funds the
// recipient's associated token account when missing, signs with the owner
// keypair and, when configured, waits for the signature to be confirmed.
type SolanaClient struct {
	rpc       chainRPC
	confirmer confirmer
	accounts  *cache.AccountCache
	log       *logrus.Entry

	mu      sync.Mutex
	signers map[string]types.Account
}

func NewSolanaClient(cfg SolanaConfig) *SolanaClient {
	cfg = cfg.withDefaults()

	c := &SolanaClient{
		rpc:      &sdkRPC{rpc: client.NewClient(cfg.RPCURL)},
		accounts: cache.NewAccountCache(cfg.AccountTTL),
		log:      logrus.WithField("component", "solana_transfer"),
		signers:  make(map[string]types.Account),
	}
	if cfg.Confirm {
		c.confirmer = NewSignatureConfirmer(cfg.RPCURL, cfg.Commitment, cfg.PollInterval, cfg.ConfirmTimeout)
	}
	return c
}

func (cfg SolanaConfig) withDefaults() SolanaConfig {
	if strings.TrimSpace(cfg.RPCURL) == "" {
		cfg.RPCURL = DevnetRPC
	}
	if cfg.Commitment == "" {
		cfg.Commitment = defaultCommitment
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = defaultConfirmTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.AccountTTL <= 0 {
		cfg.AccountTTL = defaultAccountTTL
	}
	return cfg
}

func (c *SolanaClient) Transfer(ctx context.Context, req models.TransferRequest) (string, error) {
	if err := wallet.ValidateAddress(req.Recipient); err != nil {
		return "", newError(err, "invalid recipient")
	}
	if err := wallet.ValidateAddress(req.Mint); err != nil {
		return "", newError(err, "invalid token mint")
	}
	if req.Amount == 0 {
		return "", newError(models.ErrInvalidAmount, "invalid amount")
	}

	signer, err := c.signer(req.Owner)
	if err != nil {
		return "", newError(err, "load signer")
	}

	mint := common.PublicKeyFromString(req.Mint)
	owner := signer.PublicKey
	recipient := common.PublicKeyFromString(req.Recipient)

	fromATA, _, err := common.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return "", newError(err, "derive source token account")
	}
	toATA, _, err := common.FindAssociatedTokenAddress(recipient, mint)
	if err != nil {
		return "", newError(err, "derive recipient token account")
	}

	fromExists, err := c.accountExists(ctx, fromATA.ToBase58())
	if err != nil {
		return "", newError(err, "check source token account %s", fromATA.ToBase58())
	}
	if !fromExists {
		return "", newError(nil, "source token account %s not found for owner %s", fromATA.ToBase58(), owner.ToBase58())
	}

	toExists, err := c.accountExists(ctx, toATA.ToBase58())
	if err != nil {
		return "", newError(err, "check recipient token account %s", toATA.ToBase58())
	}

	instructions := make([]types.Instruction, 0, 2)
	if !toExists {
		instructions = append(instructions, associated_token_account.CreateAssociatedTokenAccount(
			associated_token_account.CreateAssociatedTokenAccountParam{
				Funder:                 owner,
				Owner:                  recipient,
				Mint:                   mint,
				AssociatedTokenAccount: toATA,
			},
		))
	}
	instructions = append(instructions, token.Transfer(token.TransferParam{
		From:   fromATA,
		To:     toATA,
		Auth:   owner,
		Amount: req.Amount,
	}))

	blockhash, err := c.rpc.LatestBlockhash(ctx)
	if err != nil {
		return "", newError(err, "get latest blockhash")
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        owner,
			RecentBlockhash: blockhash,
			Instructions:    instructions,
		}),
		Signers: []types.Account{signer},
	})
	if err != nil {
		return "", newError(err, "build transaction")
	}

	c.log.WithFields(logrus.Fields{
		"mint":      req.Mint,
		"recipient": req.Recipient,
		"amount":    req.Amount,
		"createATA": !toExists,
	}).Info("sending transfer")

	sig, err := c.rpc.SendTransaction(ctx, tx)
	if err != nil {
		return "", newError(err, "send transaction")
	}

	if c.confirmer != nil {
		if err := c.confirmer.Confirm(ctx, sig); err != nil {
			c.accounts.Forget(toATA.ToBase58())
			c.log.WithField("txn", sig).Warn("transfer submitted but not confirmed")
			return "", err
		}
	}

	c.accounts.Remember(fromATA.ToBase58())
	c.accounts.Remember(toATA.ToBase58())
	return sig, nil
}

func (c *SolanaClient) accountExists(ctx context.Context, address string) (bool, error) {
	if c.accounts.Known(address) {
		return true, nil
	}
	exists, err := c.rpc.AccountExists(ctx, address)
	if err != nil {
		return false, err
	}
	if exists {
		c.accounts.Remember(address)
	}
	return exists, nil
}

func (c *SolanaClient) signer(path string) (types.Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if acc, ok := c.signers[path]; ok {
		return acc, nil
	}
	acc, err := wallet.LoadKeypair(path)
	if err != nil {
		return types.Account{}, err
	}
	c.signers[path] = acc
	return acc, nil
}

type sdkRPC struct {
	rpc *client.Client
}

func (s *sdkRPC) AccountExists(ctx context.Context, address string) (bool, error) {
	info, err := s.rpc.GetAccountInfo(ctx, address)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "not found") ||
			strings.Contains(msg, "could not find account") ||
			strings.Contains(msg, "account does not exist") {
			return false, nil
		}
		return false, errors.Wrap(err, "get account info")
	}
	return info.Lamports > 0, nil
}

func (s *sdkRPC) LatestBlockhash(ctx context.Context) (string, error) {
	latest, err := s.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", err
	}
	return latest.Blockhash, nil
}

func (s *sdkRPC) SendTransaction(ctx context.Context, tx types.Transaction) (string, error) {
	return s.rpc.SendTransaction(ctx, tx)
}

func (s *sdkRPC) MintDecimals(ctx context.Context, mint string) (uint8, error) {
	supply, err := s.rpc.GetTokenSupply(ctx, mint)
	if err != nil {
		return 0, errors.Wrap(err, "get token supply")
	}
	return supply.Decimals, nil
}
