package email

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// EmailSender represents an interface for sending emails.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

// SenderFunc adapts a function to EmailSender.
type SenderFunc func(ctx context.Context, params SendEmailParams) error

// SendEmail calls f.
func (f SenderFunc) SendEmail(ctx context.Context, params SendEmailParams) error {
	return f(ctx, params)
}

// SendEmailParams represents the parameters for sending an email.
type SendEmailParams struct {
	SendTo   string            `json:"send_to"`
	Subject  string            `json:"subject"`
	BodyHTML string            `json:"body_html,omitempty"`
	BodyText string            `json:"body_text,omitempty"`
	ReplyTo  string            `json:"reply_to,omitempty"` // overrides Config.SupportEmail
	Tag      string            `json:"tag,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Validate checks recipient, subject and that at least one body is present.
func (p SendEmailParams) Validate() error {
	to := strings.TrimSpace(p.SendTo)
	switch {
	case to == "":
		return fmt.Errorf("%w: SendTo is required", ErrInvalidParams)
	case !emailRegex.MatchString(to):
		return fmt.Errorf("%w: SendTo must be a valid email address", ErrInvalidParams)
	case strings.TrimSpace(p.Subject) == "":
		return fmt.Errorf("%w: Subject is required", ErrInvalidParams)
	case strings.TrimSpace(p.BodyHTML) == "" && strings.TrimSpace(p.BodyText) == "":
		return fmt.Errorf("%w: BodyHTML or BodyText is required", ErrInvalidParams)
	case p.ReplyTo != "" && !emailRegex.MatchString(p.ReplyTo):
		return fmt.Errorf("%w: ReplyTo must be a valid email address", ErrInvalidParams)
	}
	return nil
}

// NewSender picks a sender by cfg.Provider.
func NewSender(cfg Config, smtp SMTPConfig) (EmailSender, error) {
	switch cfg.Provider {
	case ProviderPostmark:
		return NewPostmarkClient(cfg)
	case ProviderSMTP:
		return NewSMTPSender(cfg, smtp)
	case ProviderDev, "":
		return NewDevSender(cfg.DevOutputDir), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
