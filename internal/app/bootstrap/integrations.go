package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/wolfman30/telehealth-platform/internal/archive"
	"github.com/wolfman30/telehealth-platform/internal/chat"
	appconfig "github.com/wolfman30/telehealth-platform/internal/config"
	"github.com/wolfman30/telehealth-platform/internal/events"
	"github.com/wolfman30/telehealth-platform/internal/notify"
	"github.com/wolfman30/telehealth-platform/pkg/logging"
)

// BuildEmailSender selects the outbound e-mail provider. SES and SendGrid
// fall back to the logging stub when their credentials are missing.
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.EmailProvider {
	case "ses":
		if awsCfg != nil {
			return notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
				FromEmail: cfg.EmailFromAddress,
				FromName:  cfg.EmailFromName,
			}, logger)
		}
		logger.Warn("ses email provider requested without aws config; using stub sender")
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger); sender != nil {
			return sender
		}
		logger.Warn("sendgrid email provider requested without api key; using stub sender")
	}
	return notify.NewStubEmailSender(logger)
}

// BuildArchiver returns nil unless an archive bucket and AWS config exist.
func BuildArchiver(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) chat.Archiver {
	bucket := strings.TrimSpace(cfg.TranscriptArchiveBucket)
	if bucket == "" || awsCfg == nil {
		return nil
	}
	client := s3.NewFromConfig(*awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.AWSEndpointOverride != ""
	})
	return archive.NewStore(client, bucket, logger)
}

// BuildEventHandler fans each outbox entry out to the log, patient e-mail and
// the events queue when one is configured.
func BuildEventHandler(cfg *appconfig.Config, awsCfg *aws.Config, notifier *notify.Service, directory notify.Directory, logger *logging.Logger) events.DeliveryHandler {
	handlers := events.MultiHandler{events.NewLogHandler(logger)}
	if notifier != nil && directory != nil {
		handlers = append(handlers, notify.NewEventHandler(notifier, directory, logger))
	}
	if queueURL := strings.TrimSpace(cfg.EventsQueueURL); queueURL != "" && awsCfg != nil {
		handlers = append(handlers, events.NewSQSHandler(sqs.NewFromConfig(*awsCfg), queueURL))
	}
	return handlers
}
