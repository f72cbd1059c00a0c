package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"token_airdrop/models"
	"token_airdrop/pkg/repository"
	"token_airdrop/pkg/transfer"
)

var (
	ErrInterrupted      = errors.New("distribution interrupted")
	ErrMissingRecipient = errors.New("recipient address is missing")
	ErrMissingTxn       = errors.New("transfer reported success without a transaction id")
)

// DistributionService runs the resumable airdrop loop. Requests are handled
// strictly one at a time in input order; the log is persisted after every
// attempt, before the next transfer is issued.
type DistributionService struct {
	progress repository.Progress
	client   transfer.Client
	mint     string
	owner    string
	dryRun   bool
	log      *logrus.Entry
}

type DistributionOption func(*DistributionService)

func WithDryRun(dryRun bool) DistributionOption {
	return func(s *DistributionService) {
		s.dryRun = dryRun
	}
}

func WithLogger(log *logrus.Entry) DistributionOption {
	return func(s *DistributionService) {
		if log != nil {
			s.log = log
		}
	}
}

func NewDistributionService(progress repository.Progress, client transfer.Client, mint, owner string, opts ...DistributionOption) *DistributionService {
	s := &DistributionService{
		progress: progress,
		client:   client,
		mint:     mint,
		owner:    owner,
		log:      logrus.WithField("component", "distribution"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes requests against the prior log. Item failures are recorded
// and summarised; the returned error is set only when the log could not be
// persisted or ctx was cancelled between items. The summary is valid either way.
func (s *DistributionService) Run(ctx context.Context, requests []models.RecipientRequest, prior []models.DistributionRecord) (models.RunSummary, error) {
	summary := models.RunSummary{Total: len(requests)}

	records := make([]models.DistributionRecord, len(prior), len(prior)+len(requests))
	copy(records, prior)

	// an item in flight is always finished and persisted, even after ctx is cancelled
	itemCtx := context.WithoutCancel(ctx)

	for i, req := range requests {
		if err := ctx.Err(); err != nil {
			s.log.WithField("remaining", len(requests)-i).Warn("distribution interrupted, re-run to resume")
			return summary, errors.Wrapf(ErrInterrupted, "%v after %d of %d requests", err, i, len(requests))
		}

		entry := s.log.WithFields(logrus.Fields{
			"publicKey": req.PublicKey,
			"amount":    req.Amount,
		})

		if repository.IsCompleted(records, req.PublicKey) {
			summary.AlreadyCompleted++
			entry.Debug("already completed, skipping")
			continue
		}

		record := models.NewPendingRecord(req)
		if err := validateRequest(req); err != nil {
			record.Fail(err.Error())
		} else if s.dryRun {
			summary.Pending++
			entry.Info("would transfer")
			continue
		} else {
			entry.Infof("transferring %d tokens of %s to %s", req.Amount, s.mint, req.PublicKey)
			txn, err := s.client.Transfer(itemCtx, models.TransferRequest{
				Recipient: req.PublicKey,
				Amount:    req.Amount,
				Mint:      s.mint,
				Owner:     s.owner,
			})
			switch {
			case err != nil:
				record.Fail(err.Error())
			case strings.TrimSpace(txn) == "":
				record.Fail(ErrMissingTxn.Error() + ", check the recipient before re-running")
			default:
				record.Complete(strings.TrimSpace(txn))
			}
		}

		entry = entry.WithField("status", record.Status.String())
		switch record.Status {
		case models.StatusDone:
			summary.Completed++
			entry.WithField("txn", record.Txn).Info("transfer done")
		case models.StatusFailed:
			summary.Failed++
			summary.Failures = append(summary.Failures, record)
			entry.WithField("error", record.Error).Error("transfer failed")
		}

		if s.dryRun {
			continue
		}

		records = repository.Append(records, record)
		if err := s.progress.Persist(itemCtx, records); err != nil {
			return summary, errors.Wrapf(err, "persist distribution log after %s", req.PublicKey)
		}
	}

	return summary, nil
}

// validateRequest rejects requests that must never reach the transfer client.
// Address encoding is chain specific and left to the client.
func validateRequest(req models.RecipientRequest) error {
	if strings.TrimSpace(req.PublicKey) == "" {
		return ErrMissingRecipient
	}
	return req.ValidateAmount()
}
