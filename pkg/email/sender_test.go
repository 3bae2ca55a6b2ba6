package email_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/email"
)

func TestSendEmailParams_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  email.SendEmailParams
		message string
	}{
		{
			name:   "html body",
			params: email.SendEmailParams{SendTo: "user@example.com", Subject: "Hi", BodyHTML: "<p>hi</p>"},
		},
		{
			name:   "text body only",
			params: email.SendEmailParams{SendTo: "user@example.com", Subject: "Hi", BodyText: "hi"},
		},
		{
			name:   "valid reply-to",
			params: email.SendEmailParams{SendTo: "user@example.com", Subject: "Hi", BodyText: "hi", ReplyTo: "team@example.com"},
		},
		{
			name:    "missing recipient",
			params:  email.SendEmailParams{Subject: "Hi", BodyText: "hi"},
			message: "SendTo is required",
		},
		{
			name:    "blank recipient",
			params:  email.SendEmailParams{SendTo: "   ", Subject: "Hi", BodyText: "hi"},
			message: "SendTo is required",
		},
		{
			name:    "malformed recipient",
			params:  email.SendEmailParams{SendTo: "user@", Subject: "Hi", BodyText: "hi"},
			message: "SendTo must be a valid email address",
		},
		{
			name:    "missing subject",
			params:  email.SendEmailParams{SendTo: "user@example.com", BodyText: "hi"},
			message: "Subject is required",
		},
		{
			name:    "missing body",
			params:  email.SendEmailParams{SendTo: "user@example.com", Subject: "Hi", BodyHTML: "  "},
			message: "BodyHTML or BodyText is required",
		},
		{
			name:    "malformed reply-to",
			params:  email.SendEmailParams{SendTo: "user@example.com", Subject: "Hi", BodyText: "hi", ReplyTo: "nope"},
			message: "ReplyTo must be a valid email address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.params.Validate()
			if tt.message == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, email.ErrInvalidParams)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestSenderFunc(t *testing.T) {
	t.Parallel()

	var got email.SendEmailParams
	sender := email.SenderFunc(func(_ context.Context, p email.SendEmailParams) error {
		got = p
		return nil
	})

	params := email.SendEmailParams{SendTo: "user@example.com", Subject: "Hi", BodyText: "hi"}
	require.NoError(t, sender.SendEmail(context.Background(), params))
	assert.Equal(t, params, got)

	failing := email.SenderFunc(func(context.Context, email.SendEmailParams) error {
		return errors.New("boom")
	})
	assert.EqualError(t, failing.SendEmail(context.Background(), params), "boom")
}

func TestNewSender(t *testing.T) {
	t.Parallel()

	t.Run("dev is the default", func(t *testing.T) {
		t.Parallel()

		sender, err := email.NewSender(email.Config{DevOutputDir: t.TempDir()}, email.SMTPConfig{})
		require.NoError(t, err)
		assert.IsType(t, &email.DevSender{}, sender)
	})

	t.Run("postmark", func(t *testing.T) {
		t.Parallel()

		sender, err := email.NewSender(validPostmarkConfig(), email.SMTPConfig{})
		require.NoError(t, err)
		assert.NotNil(t, sender)
	})

	t.Run("smtp", func(t *testing.T) {
		t.Parallel()

		cfg := email.Config{Provider: email.ProviderSMTP, SenderEmail: "sender@example.com"}
		sender, err := email.NewSender(cfg, email.SMTPConfig{Host: "localhost", Port: 2525})
		require.NoError(t, err)
		assert.NotNil(t, sender)
	})

	t.Run("smtp without host", func(t *testing.T) {
		t.Parallel()

		cfg := email.Config{Provider: email.ProviderSMTP, SenderEmail: "sender@example.com"}
		_, err := email.NewSender(cfg, email.SMTPConfig{Port: 25})
		assert.ErrorIs(t, err, email.ErrInvalidConfig)
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Parallel()

		_, err := email.NewSender(email.Config{Provider: "pigeon"}, email.SMTPConfig{})
		assert.ErrorIs(t, err, email.ErrUnknownProvider)
		assert.Contains(t, err.Error(), "pigeon")
	})
}

func TestNewSMTPSender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     email.Config
		smtp    email.SMTPConfig
		message string
	}{
		{"missing host", email.Config{SenderEmail: "a@example.com"}, email.SMTPConfig{Port: 25}, "SMTP host is required"},
		{"bad port", email.Config{SenderEmail: "a@example.com"}, email.SMTPConfig{Host: "mx", Port: 0}, "SMTP port must be positive"},
		{"missing sender", email.Config{}, email.SMTPConfig{Host: "mx", Port: 25}, "SenderEmail is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender, err := email.NewSMTPSender(tt.cfg, tt.smtp)
			assert.Nil(t, sender)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	t.Run("invalid params never dial", func(t *testing.T) {
		t.Parallel()

		sender, err := email.NewSMTPSender(
			email.Config{SenderEmail: "a@example.com"},
			email.SMTPConfig{Host: "127.0.0.1", Port: 1},
		)
		require.NoError(t, err)

		err = sender.SendEmail(context.Background(), email.SendEmailParams{SendTo: "user@example.com"})
		assert.ErrorIs(t, err, email.ErrInvalidParams)
	})
}
