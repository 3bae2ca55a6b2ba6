package notifier

import "fmt"

// Mode controls what happens when a notification is delivered.
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeNoop   Mode = "noop"
	ModeTest   Mode = "test"
)

// ParseMode validates s.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeNormal, ModeNoop, ModeTest:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: normal, noop, test)", ErrInvalidMode, s)
	}
}

// Config holds process-level notifier settings.
type Config struct {
	Mode string `env:"NOTIFIER_DELIVERY_MODE" envDefault:"normal"`
}
