package mailer

import "errors"

var (
	ErrSenderMissing       = errors.New("mailer: email sender not configured")
	ErrAsyncAdapterMissing = errors.New("mailer: async adapter not configured")
	ErrRecipientRequired   = errors.New("mailer: message recipient is required")
)
