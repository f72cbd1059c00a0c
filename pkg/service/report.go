package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"token_airdrop/models"
	"token_airdrop/pkg/utils"
)

type mailSender func(cfg utils.MailConfig, report utils.RunReport) error

// ReportService mails the run summary to the operator.
type ReportService struct {
	cfg  utils.MailConfig
	send mailSender
}

func NewReportService(cfg utils.MailConfig) *ReportService {
	s := &ReportService{cfg: cfg}
	switch cfg.Provider {
	case utils.ProviderMailjet:
		s.send = utils.SendMailMailjet
	case utils.ProviderSMTP:
		s.send = utils.SendMail
	}
	return s
}

func (s *ReportService) Enabled() bool {
	return s.send != nil && len(s.cfg.To) > 0
}

func (s *ReportService) Send(_ context.Context, token string, summary models.RunSummary) error {
	if !s.Enabled() {
		return nil
	}
	report := utils.RenderRunReport(token, summary)
	if err := s.send(s.cfg, report); err != nil {
		return errors.Wrapf(err, "send run report via %s", s.cfg.Provider)
	}
	logrus.WithField("to", s.cfg.To).Info("run report sent")
	return nil
}
