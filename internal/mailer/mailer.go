// Package mailer delivers outbound email through AWS SES or a logging no-op.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"
)

const charset = "UTF-8"

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer sends email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	InsecureSkipVerify bool
}

// Config selects the provider and the sender identity.
type Config struct {
	Provider    string // "ses" or "noop"
	FromAddress string
	FromName    string
	SES         SESConfig
}

// New creates a mailer from config. Provider "ses" uses AWS SES; "noop" or unknown logs instead of sending.
func New(cfg Config, logger *zap.Logger) Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Provider {
	case "ses":
		if cfg.SES.InsecureSkipVerify {
			logger.Warn("TLS certificate verification is disabled for SES, use only in development")
		}
		httpClient := &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: cfg.SES.InsecureSkipVerify,
					MinVersion:         tls.VersionTLS12,
				},
			},
		}
		awsCfg := aws.Config{
			Region: cfg.SES.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(cfg.SES.AccessKeyID, cfg.SES.SecretAccessKey, ""),
			),
			HTTPClient: httpClient,
		}
		return &SES{
			client: ses.NewFromConfig(awsCfg),
			source: source(cfg.FromAddress, cfg.FromName),
			logger: logger,
		}
	case "noop":
		return &Noop{logger: logger}
	default:
		logger.Warn("unknown email provider, using noop", zap.String("provider", cfg.Provider))
		return &Noop{logger: logger}
	}
}

func source(address, name string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}

// sesAPI is the slice of the SES client the mailer calls.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SES sends email through Amazon SES.
type SES struct {
	client sesAPI
	source string
	logger *zap.Logger
}

// Send delivers msg. An empty HTML or text part is omitted.
func (s *SES) Send(ctx context.Context, msg Message) error {
	result, err := s.client.SendEmail(ctx, buildInput(s.source, msg))
	if err != nil {
		return fmt.Errorf("send email via SES: %w", err)
	}
	s.logger.Info("email sent via SES", zap.String("to", msg.To), zap.String("message_id", aws.ToString(result.MessageId)))
	return nil
}

func buildInput(from string, msg Message) *ses.SendEmailInput {
	input := &ses.SendEmailInput{
		Source:      aws.String(from),
		Destination: &types.Destination{ToAddresses: []string{msg.To}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(charset)},
			Body:    &types.Body{},
		},
	}
	if msg.HTML != "" {
		input.Message.Body.Html = &types.Content{Data: aws.String(msg.HTML), Charset: aws.String(charset)}
	}
	if msg.Text != "" {
		input.Message.Body.Text = &types.Content{Data: aws.String(msg.Text), Charset: aws.String(charset)}
	}
	return input
}

// Noop logs the email instead of sending it.
type Noop struct {
	logger *zap.Logger
}

// Send logs recipient and subject.
func (n *Noop) Send(_ context.Context, msg Message) error {
	n.logger.Info("email would be sent (noop)", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
