package email

// Providers accepted by NewSender.
const (
	ProviderPostmark = "postmark"
	ProviderSMTP     = "smtp"
	ProviderDev      = "dev"
)

// Config holds email service configuration. Postmark tokens are only needed
// for the postmark provider.
type Config struct {
	Provider             string `env:"EMAIL_PROVIDER" envDefault:"dev"`
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL"`
	SupportEmail         string `env:"SUPPORT_EMAIL"`
	DevOutputDir         string `env:"EMAIL_DEV_OUTPUT_DIR" envDefault:"./tmp/emails"`
}

// SMTPConfig describes an SMTP relay.
type SMTPConfig struct {
	Host       string `env:"SMTP_HOST"`
	Port       int    `env:"SMTP_PORT" envDefault:"587"`
	Username   string `env:"SMTP_USERNAME"`
	Password   string `env:"SMTP_PASSWORD"`
	Encryption string `env:"SMTP_ENCRYPTION" envDefault:"starttls"` // ssl_tls, starttls or none
}

func validateSender(cfg Config) error {
	if cfg.SenderEmail == "" {
		return errConfig("SenderEmail is required")
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return errConfig("SenderEmail must be a valid email address")
	}
	if cfg.SupportEmail != "" && !emailRegex.MatchString(cfg.SupportEmail) {
		return errConfig("SupportEmail must be a valid email address")
	}
	return nil
}
