package service

import (
	"context"

	"github.com/pkg/errors"

	"token_airdrop/models"
	"token_airdrop/pkg/repository"
)

type RecipientStatus struct {
	PublicKey string                      `json:"publicKey"`
	Completed bool                        `json:"completed"`
	Records   []models.DistributionRecord `json:"records"`
}

// StatusService answers read-only questions about the persisted log.
type StatusService struct {
	log repository.LogReader
}

func NewStatusService(log repository.LogReader) *StatusService {
	return &StatusService{log: log}
}

func (s *StatusService) Summary(ctx context.Context) (models.LogSummary, error) {
	records, err := s.log.Records(ctx)
	if err != nil {
		return models.LogSummary{}, errors.Wrap(err, "load distribution log")
	}
	return models.SummarizeLog(records), nil
}

// Records returns the log in order, filtered by status when one is given.
func (s *StatusService) Records(ctx context.Context, status *models.Status) ([]models.DistributionRecord, error) {
	records, err := s.log.Records(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load distribution log")
	}
	if status == nil {
		return records, nil
	}
	out := make([]models.DistributionRecord, 0, len(records))
	for _, r := range records {
		if r.Status == *status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *StatusService) Recipient(ctx context.Context, publicKey string) (RecipientStatus, error) {
	records, err := s.log.Records(ctx)
	if err != nil {
		return RecipientStatus{}, errors.Wrap(err, "load distribution log")
	}
	return RecipientStatus{
		PublicKey: publicKey,
		Completed: repository.IsCompleted(records, publicKey),
		Records:   repository.RecordsFor(records, publicKey),
	}, nil
}
