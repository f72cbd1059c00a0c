package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"token_airdrop/models"
)

func TestRenderRunReportCompleted(t *testing.T) {
	r := RenderRunReport("Mint", models.RunSummary{Total: 3, Completed: 1, AlreadyCompleted: 2})

	assert.Equal(t, "AirDrop of Mint completed: 3 done, 0 failed", r.Subject)
	assert.Contains(t, r.Text, "Completed in previous runs: 2\n")
	assert.NotContains(t, r.Text, "re-run")
	assert.NotContains(t, r.HTML, "Failed transfers")
}

func TestRenderRunReportFailures(t *testing.T) {
	r := RenderRunReport("<Mint>", models.RunSummary{
		Total:     2,
		Completed: 1,
		Failed:    1,
		Failures:  []models.DistributionRecord{{PublicKey: "Y", Amount: 3, Status: models.StatusFailed, Error: "rejected"}},
	})

	assert.Contains(t, r.Subject, "needs re-run")
	assert.Contains(t, r.Text, "  Y (3): rejected\n")
	assert.Contains(t, r.HTML, "AirDrop of &lt;Mint&gt;")
	assert.Contains(t, r.HTML, "<code>Y</code> (3): rejected")
}

func TestSendMailMailjetNeedsCredentials(t *testing.T) {
	err := SendMailMailjet(MailConfig{Provider: ProviderMailjet, To: []string{"a@b.c"}}, RunReport{})
	assert.Error(t, err)
}
