package transfer

import (
	"bufio"
	"bytes"
	"context"
	"math/big"
	"os/exec"
	"strings"
	"sync"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"token_airdrop/models"
)

// mintInfo looks up how many decimals a mint uses.
type mintInfo interface {
	MintDecimals(ctx context.Context, mint string) (uint8, error)
}

// SplTokenCLI transfers by running the spl-token command line tool.
// Amounts are in base units and converted to the CLI's token amount
// with the mint's decimals.
type SplTokenCLI struct {
	binary string
	mints  mintInfo
	log    *logrus.Entry

	mu       sync.Mutex
	decimals map[string]uint8
}

func NewSplTokenCLI(binary, rpcURL string) *SplTokenCLI {
	if strings.TrimSpace(binary) == "" {
		binary = "spl-token"
	}
	if strings.TrimSpace(rpcURL) == "" {
		rpcURL = DevnetRPC
	}
	return &SplTokenCLI{
		binary:   binary,
		mints:    &sdkRPC{rpc: client.NewClient(rpcURL)},
		log:      logrus.WithField("component", "spl_token_cli"),
		decimals: make(map[string]uint8),
	}
}

// FormatTokenAmount renders base units as an exact decimal token amount,
// 1500 with 3 decimals is "1.5".
func FormatTokenAmount(amount uint64, decimals uint8) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals)).String()
}

func (c *SplTokenCLI) Args(req models.TransferRequest, decimals uint8) []string {
	return []string{
		"transfer",
		req.Mint,
		FormatTokenAmount(req.Amount, decimals),
		req.Recipient,
		"--owner", req.Owner,
		"--allow-unfunded-recipient",
		"--fund-recipient",
	}
}

func (c *SplTokenCLI) Transfer(ctx context.Context, req models.TransferRequest) (string, error) {
	if req.Amount == 0 {
		return "", newError(models.ErrInvalidAmount, "invalid amount")
	}
	decimals, err := c.mintDecimals(ctx, req.Mint)
	if err != nil {
		return "", newError(err, "read decimals of mint %s", req.Mint)
	}

	args := c.Args(req, decimals)
	c.log.Infof("running %s %s", c.binary, strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		return "", newError(err, "%s transfer failed: %s", c.binary, detail)
	}

	sig := parseSignature(stdout.String())
	if sig == "" {
		return "", newError(nil, "%s transfer printed no signature, check the recipient before re-running: %s",
			c.binary, strings.TrimSpace(stdout.String()+" "+stderr.String()))
	}
	return sig, nil
}

func (c *SplTokenCLI) mintDecimals(ctx context.Context, mint string) (uint8, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.decimals[mint]; ok {
		return d, nil
	}
	d, err := c.mints.MintDecimals(ctx, mint)
	if err != nil {
		return 0, err
	}
	c.decimals[mint] = d
	return d, nil
}

// parseSignature picks the value of the "Signature:" line spl-token prints.
// Output that is a single word is taken as the signature itself.
func parseSignature(out string) string {
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "Signature:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "Signature:"))
		}
	}
	if fields := strings.Fields(out); len(fields) == 1 {
		return fields[0]
	}
	return ""
}
