package email

import "errors"

var (
	ErrFailedToSendEmail = errors.New("email.errors.failed_to_send_email")
	ErrInvalidConfig     = errors.New("email.errors.invalid_config")
	ErrInvalidParams     = errors.New("email.errors.invalid_params")
	ErrUnknownProvider   = errors.New("email.errors.unknown_provider")
)
