package transfer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var commitmentRank = map[string]int{
	"processed": 1,
	"confirmed": 2,
	"finalized": 3,
}

// SignatureConfirmer polls getSignatureStatuses until a submitted
// transaction reaches the wanted commitment, fails on chain, or times out.
type SignatureConfirmer struct {
	http       *resty.Client
	commitment string
	interval   time.Duration
	timeout    time.Duration
	log        *logrus.Entry
}

func NewSignatureConfirmer(rpcURL, commitment string, interval, timeout time.Duration) *SignatureConfirmer {
	if _, ok := commitmentRank[commitment]; !ok {
		commitment = defaultCommitment
	}
	return &SignatureConfirmer{
		http: resty.New().
			SetBaseURL(rpcURL).
			SetTimeout(15*time.Second).
			SetHeader("Content-Type", "application/json"),
		commitment: commitment,
		interval:   interval,
		timeout:    timeout,
		log:        logrus.WithField("component", "signature_confirmer"),
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type signatureStatus struct {
	Slot               uint64          `json:"slot"`
	Confirmations      *uint64         `json:"confirmations"`
	Err                json.RawMessage `json:"err"`
	ConfirmationStatus string          `json:"confirmationStatus"`
}

type signatureStatusesResponse struct {
	Result *struct {
		Value []*signatureStatus `json:"value"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

func (c *SignatureConfirmer) Confirm(ctx context.Context, signature string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		status, err := c.status(ctx, signature)
		switch {
		case err != nil:
			c.log.WithError(err).WithField("txn", signature).Warn("signature status poll failed")
		case status == nil:
		case hasChainError(status.Err):
			return newError(nil, "transaction %s failed on chain: %s", signature, string(status.Err))
		case c.reached(status.ConfirmationStatus):
			return nil
		}

		select {
		case <-ctx.Done():
			return newError(ctx.Err(), "transaction %s not confirmed within %s, check it before re-running", signature, c.timeout)
		case <-ticker.C:
		}
	}
}

func (c *SignatureConfirmer) status(ctx context.Context, signature string) (*signatureStatus, error) {
	var out signatureStatusesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(rpcRequest{
			JSONRPC: "2.0",
			ID:      1,
			Method:  "getSignatureStatuses",
			Params: []interface{}{
				[]string{signature},
				map[string]bool{"searchTransactionHistory": true},
			},
		}).
		SetResult(&out).
		Post("")
	if err != nil {
		return nil, errors.Wrap(err, "getSignatureStatuses")
	}
	if resp.IsError() {
		return nil, errors.Errorf("getSignatureStatuses: http status %d", resp.StatusCode())
	}
	if out.Error != nil {
		return nil, errors.Errorf("getSignatureStatuses: rpc error %d: %s", out.Error.Code, out.Error.Message)
	}
	if out.Result == nil || len(out.Result.Value) == 0 {
		return nil, nil
	}
	return out.Result.Value[0], nil
}

func (c *SignatureConfirmer) reached(status string) bool {
	rank, ok := commitmentRank[status]
	return ok && rank >= commitmentRank[c.commitment]
}

func hasChainError(raw json.RawMessage) bool {
	s := string(raw)
	return len(raw) > 0 && s != "null"
}
