package service

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token_airdrop/models"
	"token_airdrop/pkg/utils"
)

func TestReportServiceDisabled(t *testing.T) {
	s := NewReportService(utils.MailConfig{Provider: utils.ProviderNone, To: []string{"ops@example.com"}})
	assert.False(t, s.Enabled())
	require.NoError(t, s.Send(context.Background(), "Mint", models.RunSummary{}))

	s = NewReportService(utils.MailConfig{Provider: utils.ProviderSMTP})
	assert.False(t, s.Enabled(), "no recipients configured")
}

func TestReportServiceSends(t *testing.T) {
	var got utils.RunReport
	s := NewReportService(utils.MailConfig{Provider: utils.ProviderMailjet, To: []string{"ops@example.com"}})
	s.send = func(_ utils.MailConfig, report utils.RunReport) error {
		got = report
		return nil
	}

	summary := models.RunSummary{
		Total:     2,
		Completed: 1,
		Failed:    1,
		Failures:  []models.DistributionRecord{{PublicKey: "Y", Amount: 3, Status: models.StatusFailed, Error: "<rejected>"}},
	}
	require.NoError(t, s.Send(context.Background(), "Mint", summary))

	assert.Contains(t, got.Subject, "needs re-run")
	assert.Contains(t, got.Text, "Y (3): <rejected>")
	assert.Contains(t, got.HTML, "&lt;rejected&gt;")
	assert.Contains(t, got.Text, "Please re-run")

	s.send = func(utils.MailConfig, utils.RunReport) error { return errors.New("smtp down") }
	err := s.Send(context.Background(), "Mint", summary)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailjet")
}
