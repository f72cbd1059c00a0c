package service

import (
	"context"

	"token_airdrop/models"
	"token_airdrop/pkg/repository"
	"token_airdrop/pkg/transfer"
	"token_airdrop/pkg/utils"
)

type Distribution interface {
	Run(ctx context.Context, requests []models.RecipientRequest, prior []models.DistributionRecord) (models.RunSummary, error)
}

type Report interface {
	Send(ctx context.Context, token string, summary models.RunSummary) error
}

type Status interface {
	Summary(ctx context.Context) (models.LogSummary, error)
	Records(ctx context.Context, status *models.Status) ([]models.DistributionRecord, error)
	Recipient(ctx context.Context, publicKey string) (RecipientStatus, error)
}

type Service struct {
	Distribution
	Report
}

func NewService(repos *repository.Repository, client transfer.Client, mint, owner string, mail utils.MailConfig, opts ...DistributionOption) *Service {
	return &Service{
		Distribution: NewDistributionService(repos.Progress, client, mint, owner, opts...),
		Report:       NewReportService(mail),
	}
}
