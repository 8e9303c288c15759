package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"kidcoins/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestEmailServiceDisabledWithoutSender(t *testing.T) {
	svc, err := NewEmailService(context.Background(), "us-east-1", "", "", logger.Discard())
	require.NoError(t, err)
	assert.False(t, svc.IsEnabled())

	var nilSvc *EmailService
	assert.False(t, nilSvc.IsEnabled())
}

func TestSendInvitationCode(t *testing.T) {
	client := &fakeSES{}
	svc := newEmailService(client, "noreply@kidcoins.example", "KidCoins", logger.Discard())
	require.True(t, svc.IsEnabled())

	expires := time.Date(2026, 6, 9, 0, 0, 0, 0, time.UTC)
	err := svc.SendInvitationCode(context.Background(), "kid@example.com", "Pat <script>", "ABCD1234", &expires)
	require.NoError(t, err)

	require.Len(t, client.inputs, 1)
	input := client.inputs[0]
	assert.Equal(t, "KidCoins <noreply@kidcoins.example>", aws.ToString(input.FromEmailAddress))
	assert.Equal(t, []string{"kid@example.com"}, input.Destination.ToAddresses)

	htmlBody := aws.ToString(input.Content.Simple.Body.Html.Data)
	assert.Contains(t, htmlBody, "ABCD1234")
	assert.Contains(t, htmlBody, "Pat &lt;script&gt;")
	assert.NotContains(t, htmlBody, "<script>")
	assert.Contains(t, aws.ToString(input.Content.Simple.Body.Text.Data), "ABCD1234")
}

func TestSendInvitationCodeError(t *testing.T) {
	client := &fakeSES{err: errors.New("throttled")}
	svc := newEmailService(client, "noreply@kidcoins.example", "", logger.Discard())

	err := svc.SendInvitationCode(context.Background(), "kid@example.com", "Pat", "ABCD1234", nil)
	assert.Error(t, err)
}
