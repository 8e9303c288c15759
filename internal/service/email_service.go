package service

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sirupsen/logrus"
)

// sesSender is the part of the SES client the email service uses
type sesSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends invitation codes via Amazon SES
type EmailService struct {
	client    sesSender
	fromEmail string
	fromName  string
	enabled   bool
	log       *logrus.Logger
}

// NewEmailService creates a new email service. An empty fromEmail returns a
// disabled service.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName string, log *logrus.Logger) (*EmailService, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if fromEmail == "" {
		log.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, log: log}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.WithFields(logrus.Fields{"from": fromEmail, "region": awsRegion}).Info("email service enabled")
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, log), nil
}

func newEmailService(client sesSender, fromEmail, fromName string, log *logrus.Logger) *EmailService {
	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
		log:       log,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s != nil && s.enabled
}

// SendInvitationCode emails a parent's invitation code to a child's address
func (s *EmailService) SendInvitationCode(ctx context.Context, toEmail, parentName, code string, expiresAt *time.Time) error {
	if !s.enabled {
		s.log.WithField("to", toEmail).Info("skipping invitation email (service disabled)")
		return nil
	}

	if parentName == "" {
		parentName = "Your parent"
	}
	expiry := "It does not expire."
	if expiresAt != nil {
		expiry = "It expires on " + expiresAt.UTC().Format("2 January 2006") + "."
	}

	subject := fmt.Sprintf("%s invited you to KidCoins", parentName)
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.code { font-size: 28px; letter-spacing: 4px; font-weight: bold; text-align: center; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<p>%s invited you to join their family on KidCoins.</p>
		<p>Sign up as a child and enter this code:</p>
		<div class="code">%s</div>
		<p>%s</p>
		<div class="footer">The code works once.</div>
	</div>
</body>
</html>
`, html.EscapeString(parentName), html.EscapeString(code), expiry)

	textBody := fmt.Sprintf("%s invited you to join their family on KidCoins.\n\nSign up as a child and enter this code: %s\n\n%s\nThe code works once.\n",
		parentName, code, expiry)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	entry := s.log.WithFields(logrus.Fields{"to": toEmail, "subject": subject})
	if result.MessageId != nil {
		entry = entry.WithField("message_id", *result.MessageId)
	}
	entry.Info("email sent")
	return nil
}
