package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "Flutterwave", cfg.Checkout.HostedGateway)
	assert.Equal(t, 5*time.Second, cfg.Checkout.RetryDelay)
	assert.Equal(t, 6, cfg.Checkout.MaxRetries)
	assert.Equal(t, 10*time.Second, cfg.Checkout.PollInterval)
	assert.Equal(t, time.Second, cfg.Checkout.TickInterval)
	assert.Equal(t, 30*time.Second, cfg.Ledger.Timeout)
}

func TestLoadFromEnvironment(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("LEDGER_BASE_URL", "https://ledger.test/api/v1")
	t.Setenv("LEDGER_TENANT_PREFIX", "/tenant/admin")
	t.Setenv("CHECKOUT_RETRY_DELAY", "250ms")
	t.Setenv("CHECKOUT_POLL_INTERVAL", "not-a-duration")
	t.Setenv("BOT_REPORT_CHAT", "-100123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://ledger.test/api/v1", cfg.Ledger.BaseURL)
	assert.Equal(t, "/tenant/admin", cfg.Ledger.TenantPrefix)
	assert.Equal(t, 250*time.Millisecond, cfg.Checkout.RetryDelay)
	assert.Equal(t, 10*time.Second, cfg.Checkout.PollInterval, "unparsable durations fall back")
	assert.Equal(t, int64(-100123), cfg.Bot.ReportChat)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "3306", Name: "checkout", User: "u", Pass: "p", Charset: "utf8mb4"}
	assert.Equal(t, "u:p@tcp(db:3306)/checkout?charset=utf8mb4&parseTime=True&loc=Local", d.DSN())
}
