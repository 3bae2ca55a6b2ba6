package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"
)

type smtpSender struct {
	config Config
	smtp   SMTPConfig
}

// NewSMTPSender creates a sender that relays through an SMTP server.
// A connection is opened per message.
func NewSMTPSender(cfg Config, smtp SMTPConfig) (EmailSender, error) {
	if smtp.Host == "" {
		return nil, errConfig("SMTP host is required")
	}
	if smtp.Port <= 0 {
		return nil, errConfig("SMTP port must be positive")
	}
	if err := validateSender(cfg); err != nil {
		return nil, err
	}
	return &smtpSender{config: cfg, smtp: smtp}, nil
}

// SendEmail implements EmailSender.
func (s *smtpSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	m, err := s.message(params)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.smtp.Port),
		mail.WithTLSPolicy(tlsPolicy(s.smtp.Encryption)),
	}
	if s.smtp.Encryption == "ssl_tls" {
		opts = append(opts, mail.WithSSL())
	}
	if s.smtp.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.smtp.Username),
			mail.WithPassword(s.smtp.Password),
		)
	}

	client, err := mail.NewClient(s.smtp.Host, opts...)
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, fmt.Errorf("create smtp client: %w", err))
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	return nil
}

func (s *smtpSender) message(params SendEmailParams) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.config.SenderEmail); err != nil {
		return nil, errConfig("invalid sender address")
	}
	if err := m.To(params.SendTo); err != nil {
		return nil, fmt.Errorf("%w: invalid recipient %q", ErrInvalidParams, params.SendTo)
	}

	replyTo := params.ReplyTo
	if replyTo == "" {
		replyTo = s.config.SupportEmail
	}
	if replyTo != "" {
		if err := m.ReplyTo(replyTo); err != nil {
			return nil, fmt.Errorf("%w: invalid reply-to %q", ErrInvalidParams, replyTo)
		}
	}

	m.Subject(params.Subject)
	if params.Tag != "" {
		m.SetGenHeader("X-Tag", params.Tag)
	}

	switch {
	case params.BodyText != "" && params.BodyHTML != "":
		m.SetBodyString(mail.TypeTextPlain, params.BodyText)
		m.AddAlternativeString(mail.TypeTextHTML, params.BodyHTML)
	case params.BodyHTML != "":
		m.SetBodyString(mail.TypeTextHTML, params.BodyHTML)
	default:
		m.SetBodyString(mail.TypeTextPlain, params.BodyText)
	}
	return m, nil
}

func tlsPolicy(enc string) mail.TLSPolicy {
	switch enc {
	case "ssl_tls":
		return mail.TLSMandatory
	case "starttls":
		return mail.TLSOpportunistic
	default:
		return mail.NoTLS
	}
}
