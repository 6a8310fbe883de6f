// Package notify delivers user-facing notifications about finished
// distribution runs. Mail is the only channel; when SMTP is not
// configured the package degrades to a no-op service so the rest of
// the pipeline keeps working.
package notify

import (
	"context"

	"veestributes/config"
	"veestributes/core/distribution"
	"veestributes/logger"
)

// Service sends a notification summarizing one distribution run.
type Service interface {
	NotifyDistributionComplete(ctx context.Context, recipient, releaseTitle string, outcomes []distribution.Outcome) error
}

// NewService builds the mail-backed service, or a no-op when the
// mail host or sender address is missing from the configuration.
func NewService(cfg *config.Config) Service {
	if cfg.MailHost == "" || cfg.MailFrom == "" {
		logger.Warn("Mail not configured, distribution notifications disabled")
		return &noopService{}
	}
	return NewMailer(cfg)
}

type noopService struct{}

func (n *noopService) NotifyDistributionComplete(ctx context.Context, recipient, releaseTitle string, outcomes []distribution.Outcome) error {
	logger.Debug("Skipping distribution notification, mail disabled",
		logger.String("recipient", recipient),
		logger.String("title", releaseTitle))
	return nil
}
