package utils

import (
	"fmt"
	"html"
	"strings"

	"github.com/mailjet/mailjet-apiv3-go/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"token_airdrop/models"
)

const (
	ProviderNone    = "none"
	ProviderMailjet = "mailjet"
	ProviderSMTP    = "smtp"
)

type MailConfig struct {
	Provider      string
	From          string
	To            []string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	MailjetKey    string
	MailjetSecret string
}

type RunReport struct {
	Subject string
	Text    string
	HTML    string
}

// RenderRunReport formats the summary of a finished run for the operator.
func RenderRunReport(token string, s models.RunSummary) RunReport {
	status := "completed"
	if s.NeedsRerun() {
		status = "needs re-run"
	}
	subject := fmt.Sprintf("AirDrop of %s %s: %d done, %d failed", token, status, s.Completed+s.AlreadyCompleted, s.Failed)

	var text strings.Builder
	fmt.Fprintf(&text, "Token: %s\n", token)
	fmt.Fprintf(&text, "Requested: %d\n", s.Total)
	fmt.Fprintf(&text, "Completed in this run: %d\n", s.Completed)
	fmt.Fprintf(&text, "Completed in previous runs: %d\n", s.AlreadyCompleted)
	fmt.Fprintf(&text, "Failed: %d\n", s.Failed)
	for _, f := range s.Failures {
		fmt.Fprintf(&text, "  %s (%d): %s\n", f.PublicKey, f.Amount, f.Error)
	}
	if s.NeedsRerun() {
		text.WriteString("Please re-run the AirDrop command.\n")
	}

	var body strings.Builder
	body.WriteString(`<body style="font-family:Arial,sans-serif;">`)
	fmt.Fprintf(&body, `<h1 style="font-size:20px;">AirDrop of %s</h1>`, html.EscapeString(token))
	body.WriteString(`<table cellpadding="4" cellspacing="0" border="0">`)
	for _, row := range []struct {
		label string
		value int
	}{
		{"Requested", s.Total},
		{"Completed in this run", s.Completed},
		{"Completed in previous runs", s.AlreadyCompleted},
		{"Failed", s.Failed},
	} {
		fmt.Fprintf(&body, `<tr><td style="color:#555;">%s</td><td><b>%d</b></td></tr>`, row.label, row.value)
	}
	body.WriteString(`</table>`)
	if len(s.Failures) > 0 {
		body.WriteString(`<h2 style="font-size:16px;">Failed transfers</h2><ul>`)
		for _, f := range s.Failures {
			fmt.Fprintf(&body, `<li><code>%s</code> (%d): %s</li>`,
				html.EscapeString(f.PublicKey), f.Amount, html.EscapeString(f.Error))
		}
		body.WriteString(`</ul>`)
	}
	if s.NeedsRerun() {
		body.WriteString(`<p>Please re-run the AirDrop command.</p>`)
	}
	body.WriteString(`</body>`)

	return RunReport{Subject: subject, Text: text.String(), HTML: body.String()}
}

// SendMailMailjet sends the report through the Mailjet v3.1 API.
func SendMailMailjet(cfg MailConfig, report RunReport) error {
	if cfg.MailjetKey == "" || cfg.MailjetSecret == "" {
		return errors.New("MAILJET_API_KEY or MAILJET_SECRET_KEY is not set")
	}

	to := make(mailjet.RecipientsV31, 0, len(cfg.To))
	for _, addr := range cfg.To {
		to = append(to, mailjet.RecipientV31{Email: addr})
	}

	mj := mailjet.NewMailjetClient(cfg.MailjetKey, cfg.MailjetSecret)
	messages := &mailjet.MessagesV31{Info: []mailjet.InfoMessagesV31{
		{
			From:     &mailjet.RecipientV31{Email: cfg.From, Name: "AirDrop"},
			To:       &to,
			Subject:  report.Subject,
			TextPart: report.Text,
			HTMLPart: report.HTML,
		},
	}}

	res, err := mj.SendMailV31(messages)
	if err != nil {
		return errors.Wrap(err, "mailjet send")
	}
	logrus.Debugf("mailjet response: %+v", res)
	return nil
}

// SendMail sends the report over SMTP.
func SendMail(cfg MailConfig, report RunReport) error {
	m := gomail.NewMessage()
	m.SetHeader("From", cfg.From)
	m.SetHeader("To", cfg.To...)
	m.SetHeader("Subject", report.Subject)
	m.SetBody("text/plain", report.Text)
	m.AddAlternative("text/html", report.HTML)

	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		return errors.Wrap(err, "smtp send")
	}
	return nil
}
