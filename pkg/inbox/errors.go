package inbox

import "errors"

var (
	ErrItemNotFound      = errors.New("inbox: item not found")
	ErrIDRequired        = errors.New("inbox: item id is required")
	ErrRecipientRequired = errors.New("inbox: recipient is required")
	ErrInvalidPayload    = errors.New("inbox: invalid payload")
)
