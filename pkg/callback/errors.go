package callback

import "errors"

// ErrNilHook is returned when a hook is registered without a function.
var ErrNilHook = errors.New("callback: hook function is nil")
