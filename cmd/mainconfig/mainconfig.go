// Package mainconfig centralizes the wiring shared by the binaries: AWS SDK
// initialization and outbound sender construction.
package mainconfig

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/stillwater-counseling/practice-platform/internal/config"
	"github.com/stillwater-counseling/practice-platform/internal/notify"
	"github.com/stillwater-counseling/practice-platform/pkg/logging"
)

// LoadAWSConfig centralizes AWS SDK initialization so all binaries share the
// same LocalStack/production wiring.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return aws.Config{}, err
	}

	if endpoint := cfg.AWSEndpointOverride; endpoint != "" {
		awsCfg.EndpointResolverWithOptions = aws.EndpointResolverWithOptionsFunc(
			func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
				switch service {
				case sesv2.ServiceID:
					return aws.Endpoint{
						URL:           endpoint,
						PartitionID:   "aws",
						SigningRegion: cfg.AWSRegion,
					}, nil
				default:
					return aws.Endpoint{}, &aws.EndpointNotFoundError{}
				}
			},
		)
	}

	return awsCfg, nil
}

// BuildEmailSender selects the configured email provider. "auto" prefers
// SendGrid when an API key is present, then SES, then the logging stub.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	provider := cfg.EmailProvider

	if provider == "sendgrid" || (provider == "auto" && cfg.SendGridAPIKey != "") {
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			logger.Info("email provider: sendgrid")
			return sender
		}
	}

	if provider == "ses" || (provider == "auto" && cfg.SESFromEmail != "") {
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config, falling back to stub email", "error", err)
		} else if sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger); sender != nil {
			logger.Info("email provider: ses")
			return sender
		}
	}

	logger.Info("email provider: stub")
	return notify.NewStubEmailSender(logger)
}

// BuildSMSSender returns the Telnyx sender when configured, otherwise a stub.
func BuildSMSSender(cfg *appconfig.Config, logger *logging.Logger) notify.SMSSender {
	if sender := notify.NewTelnyxSender(notify.TelnyxConfig{
		APIKey: cfg.TelnyxAPIKey,
		From:   cfg.SMSFrom,
	}, logger); sender != nil {
		logger.Info("sms provider: telnyx")
		return sender
	}
	logger.Info("sms provider: stub")
	return notify.NewStubSMSSender(logger)
}
