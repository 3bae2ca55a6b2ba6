package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/config"
	"github.com/dmitrymomot/notifykit/pkg/delivery"
	"github.com/dmitrymomot/notifykit/pkg/job"
)

type defaultsConfig struct {
	Name  string `env:"TEST_DEFAULT_NAME" envDefault:"notifykit"`
	Count int    `env:"TEST_DEFAULT_COUNT" envDefault:"42"`
	On    bool   `env:"TEST_DEFAULT_ON" envDefault:"true"`
}

type cachedConfig struct {
	Value string `env:"TEST_CACHED_VALUE"`
}

type requiredConfig struct {
	Required string `env:"TEST_REQUIRED_VALUE,required"`
}

type customConfig struct {
	String string   `env:"TEST_CUSTOM_STRING"`
	Int    int      `env:"TEST_CUSTOM_INT"`
	Bool   bool     `env:"TEST_CUSTOM_BOOL"`
	Array  []string `env:"TEST_CUSTOM_ARRAY" envSeparator:","`
	Quoted string   `env:"TEST_CUSTOM_WITH_QUOTES"`
	Empty  string   `env:"TEST_CUSTOM_EMPTY"`
}

type overrideConfig struct {
	String string `env:"TEST_CUSTOM_STRING"`
	Unique string `env:"TEST_OVERRIDE_UNIQUE"`
}

type appConfig struct {
	Delivery delivery.Config
	Job      job.Config
}

func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { os.Setenv(k, v) })
		} else {
			t.Cleanup(func() { os.Unsetenv(k) })
		}
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	config.ResetCache()
	unsetenv(t, "TEST_DEFAULT_NAME", "TEST_DEFAULT_COUNT", "TEST_DEFAULT_ON")

	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, defaultsConfig{Name: "notifykit", Count: 42, On: true}, cfg)
}

func TestLoad_CachedPerType(t *testing.T) {
	config.ResetCache()
	t.Setenv("TEST_CACHED_VALUE", "first")

	var first cachedConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("TEST_CACHED_VALUE", "second")

	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value)

	require.NoError(t, config.ForceReload(&second))
	assert.Equal(t, "second", second.Value)
}

func TestLoad_MissingRequired(t *testing.T) {
	config.ResetCache()
	unsetenv(t, "TEST_REQUIRED_VALUE")

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)

	assert.Panics(t, func() { config.MustLoad(&cfg) })
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *defaultsConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	assert.ErrorIs(t, config.ForceReload(cfg), config.ErrNilPointer)
}

func TestLoad_PackageConfigs(t *testing.T) {
	config.ResetCache()
	t.Setenv("DELIVERY_CACHE_CLASSES", "false")
	t.Setenv("DELIVERY_REQUIRE_DECLARED_ACTIONS", "true")
	unsetenv(t, "DELIVERY_QUEUE")

	var cfg appConfig
	require.NoError(t, config.Load(&cfg))
	assert.False(t, cfg.Delivery.CacheClasses)
	assert.True(t, cfg.Delivery.RequireDeclaredActions)
	assert.Equal(t, job.DefaultQueue, cfg.Job.Queue)
}

func TestLoadEnv(t *testing.T) {
	config.ResetCache()
	unsetenv(t,
		"TEST_CUSTOM_STRING", "TEST_CUSTOM_INT", "TEST_CUSTOM_BOOL", "TEST_CUSTOM_ARRAY",
		"TEST_CUSTOM_WITH_QUOTES", "TEST_CUSTOM_EMPTY", "TEST_OVERRIDE_UNIQUE",
		"DELIVERY_REQUIRE_DECLARED_ACTIONS",
	)

	require.NoError(t, config.LoadEnv("testdata/.env.custom"))

	var cfg customConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, customConfig{
		String: "custom_value",
		Int:    1234,
		Bool:   true,
		Array:  []string{"item1", "item2", "item3"},
		Quoted: "quoted value",
	}, cfg)

	require.NoError(t, config.LoadEnv("testdata/.env.custom", "testdata/.env.override"))

	var over overrideConfig
	require.NoError(t, config.Load(&over))
	assert.Equal(t, overrideConfig{String: "overridden_value", Unique: "unique"}, over)
}

func TestLoadEnv_MissingFile(t *testing.T) {
	err := config.LoadEnv("testdata/missing.env")
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
	assert.Panics(t, func() { config.MustLoadEnv("testdata/missing.env") })
}
