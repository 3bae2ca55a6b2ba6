package delivery

// Config holds process-wide dispatch settings.
type Config struct {
	// CacheClasses memoizes resolved handlers per line. Disable it when
	// handlers are replaced at runtime, e.g. during live reload.
	CacheClasses bool `env:"DELIVERY_CACHE_CLASSES" envDefault:"true"`

	// RequireDeclaredActions rejects actions not listed with Delivers.
	RequireDeclaredActions bool `env:"DELIVERY_REQUIRE_DECLARED_ACTIONS" envDefault:"false"`
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{CacheClasses: true}
}
