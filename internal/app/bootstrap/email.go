package bootstrap

import (
	"strings"

	appconfig "github.com/wolfman30/clinic-calendar/internal/config"
	"github.com/wolfman30/clinic-calendar/internal/notify"
	"github.com/wolfman30/clinic-calendar/pkg/logging"
)

// BuildEmailSender picks the confirmation email provider. It falls back to
// the logging stub when the chosen provider is not configured and returns
// the provider name actually used.
func BuildEmailSender(cfg *appconfig.Config, ses notify.SESAPI, logger *logging.Logger) (notify.EmailSender, string) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil {
		return notify.NewStubEmailSender(logger), "stub"
	}

	switch strings.ToLower(strings.TrimSpace(cfg.EmailProvider)) {
	case "ses":
		if ses != nil && cfg.SESFromEmail != "" {
			return notify.NewSESSender(ses, notify.SESConfig{
				FromEmail:        cfg.SESFromEmail,
				FromName:         cfg.SESFromName,
				ConfigurationSet: cfg.SESConfigSet,
			}, logger), "ses"
		}
		logger.Warn("ses email selected but not configured; using stub sender")
	case "sendgrid", "":
		if cfg.SendGridAPIKey != "" && cfg.SendGridFromEmail != "" {
			return notify.NewSendGridSender(notify.SendGridConfig{
				APIKey:    cfg.SendGridAPIKey,
				FromEmail: cfg.SendGridFromEmail,
				FromName:  cfg.SendGridFromName,
			}, logger), "sendgrid"
		}
		logger.Info("sendgrid not configured; using stub sender")
	case "stub":
	default:
		logger.Warn("unknown email provider; using stub sender", "provider", cfg.EmailProvider)
	}
	return notify.NewStubEmailSender(logger), "stub"
}
