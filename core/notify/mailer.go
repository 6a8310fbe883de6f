package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	gomail "gopkg.in/gomail.v2"

	"veestributes/config"
	"veestributes/core/distribution"
	"veestributes/logger"
	"veestributes/model"
)

// messageSender abstracts the SMTP dialer so tests can capture the
// outgoing message instead of opening a connection.
type messageSender interface {
	DialAndSend(messages ...*gomail.Message) error
}

// Mailer sends HTML distribution summaries over SMTP.
type Mailer struct {
	from         string
	dashboardURL string
	sender       messageSender
}

// NewMailer builds a Mailer from the mail section of the configuration.
func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		from:         cfg.MailFrom,
		dashboardURL: cfg.DashboardURL,
		sender:       gomail.NewDialer(cfg.MailHost, cfg.MailPort, cfg.MailUsername, cfg.MailPassword),
	}
}

// NotifyDistributionComplete mails the per-platform outcome list to the
// release owner. One message per run; failed outcomes are listed inline
// rather than sent separately.
func (m *Mailer) NotifyDistributionComplete(ctx context.Context, recipient, releaseTitle string, outcomes []distribution.Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", fmt.Sprintf("Veestributes - %s Distribution Complete", releaseTitle))
	msg.SetBody("text/html", buildDistributionBody(releaseTitle, m.dashboardURL, outcomes))

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send distribution notification to %s: %w", recipient, err)
	}

	logger.Info("Distribution notification sent",
		logger.String("recipient", recipient),
		logger.String("title", releaseTitle))
	return nil
}

func buildDistributionBody(releaseTitle, dashboardURL string, outcomes []distribution.Outcome) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h2>Your release &quot;%s&quot; has been distributed!</h2>", html.EscapeString(releaseTitle))
	b.WriteString("<p>Here's the distribution status:</p><ul>")

	for _, outcome := range outcomes {
		platform := html.EscapeString(outcome.Platform)
		if outcome.Status == model.AttemptStatusDistributed {
			fmt.Fprintf(&b, `<li><strong>%s:</strong> Successfully distributed - <a href="%s">View</a></li>`,
				platform, html.EscapeString(outcome.URL))
		} else {
			message := outcome.Error
			if message == "" {
				message = "Unknown error"
			}
			fmt.Fprintf(&b, "<li><strong>%s:</strong> Failed - %s</li>", platform, html.EscapeString(message))
		}
	}

	b.WriteString("</ul>")
	fmt.Fprintf(&b, `<p>You can view detailed analytics in your <a href="%s">dashboard</a>.</p>`, html.EscapeString(dashboardURL))
	b.WriteString("<p>Thank you for using Veestributes!</p></body></html>")
	return b.String()
}
