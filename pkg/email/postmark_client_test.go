package email_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/email"
)

func validPostmarkConfig() email.Config {
	return email.Config{
		Provider:             email.ProviderPostmark,
		PostmarkServerToken:  "test-server-token",
		PostmarkAccountToken: "test-account-token",
		SenderEmail:          "sender@example.com",
		SupportEmail:         "support@example.com",
	}
}

func TestNewPostmarkClient(t *testing.T) {
	t.Parallel()

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()

		client, err := email.NewPostmarkClient(validPostmarkConfig())
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("support email is optional", func(t *testing.T) {
		t.Parallel()

		cfg := validPostmarkConfig()
		cfg.SupportEmail = ""
		client, err := email.NewPostmarkClient(cfg)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	tests := []struct {
		name    string
		mutate  func(*email.Config)
		message string
	}{
		{"empty server token", func(c *email.Config) { c.PostmarkServerToken = "" }, "PostmarkServerToken is required"},
		{"empty account token", func(c *email.Config) { c.PostmarkAccountToken = "" }, "PostmarkAccountToken is required"},
		{"missing sender email", func(c *email.Config) { c.SenderEmail = "" }, "SenderEmail is required"},
		{"invalid sender email", func(c *email.Config) { c.SenderEmail = "invalid-email" }, "SenderEmail must be a valid email address"},
		{"invalid support email", func(c *email.Config) { c.SupportEmail = "@invalid.com" }, "SupportEmail must be a valid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validPostmarkConfig()
			tt.mutate(&cfg)

			client, err := email.NewPostmarkClient(cfg)
			assert.Nil(t, client)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestMustNewPostmarkClient(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { email.MustNewPostmarkClient(validPostmarkConfig()) })
	assert.Panics(t, func() { email.MustNewPostmarkClient(email.Config{}) })
}

func TestPostmarkClient_SendEmail_ValidatesBeforeSending(t *testing.T) {
	t.Parallel()

	client, err := email.NewPostmarkClient(validPostmarkConfig())
	require.NoError(t, err)

	err = client.SendEmail(context.Background(), email.SendEmailParams{
		SendTo:  "user@example.com",
		Subject: "Test Email",
	})
	assert.ErrorIs(t, err, email.ErrInvalidParams)
	assert.Contains(t, err.Error(), "BodyHTML or BodyText is required")
}
