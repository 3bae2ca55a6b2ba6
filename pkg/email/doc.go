// Package email sends transactional email through a pluggable EmailSender.
//
// Three providers ship with the package:
//   - PostmarkClient delivers through the Postmark API with open and link tracking
//   - the SMTP sender relays through any SMTP server using go-mail
//   - DevSender writes each message to disk for local inspection
//
// NewSender picks one from Config.Provider, so the choice can live in the
// environment:
//
//	var cfg email.Config
//	var smtp email.SMTPConfig
//	// load both with caarlos0/env
//	sender, err := email.NewSender(cfg, smtp)
//	if err != nil {
//	    return err
//	}
//
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "user@example.com",
//	    Subject:  "Welcome!",
//	    BodyHTML: html,
//	    Tag:      "welcome",
//	})
//
// Bodies are usually produced by templ components:
//
//	html, err := email.Render(ctx, views.Welcome(user))
//
// Every sender validates SendEmailParams before talking to the provider.
// A message needs a recipient, a subject and at least one of BodyHTML or
// BodyText. ReplyTo defaults to Config.SupportEmail.
//
// # Errors
//
//   - ErrInvalidConfig: the provider configuration is incomplete
//   - ErrInvalidParams: the message failed validation
//   - ErrFailedToSendEmail: the provider rejected or failed the delivery
//   - ErrUnknownProvider: Config.Provider names no known provider
//
// The mailer package builds on EmailSender to provide action-based mailers
// usable as a delivery line.
package email
