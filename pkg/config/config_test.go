package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("APP_CONFIG_FILE", path)
}

func TestNew_FileAndDefaults(t *testing.T) {
	writeConfig(t, `
env: prod
database:
  driver: memory
razorpay:
  webhook_secret: whsec_file
reconcile:
  enabled: true
`)
	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, EnvProd, c.Env)
	assert.Equal(t, DBDriverMemory, c.Database.Driver)
	assert.Equal(t, "whsec_file", c.Razorpay.WebhookSecret)
	assert.Equal(t, 10*time.Second, c.Razorpay.Timeout)
	assert.Equal(t, 8888, c.Server.Port)
	assert.Equal(t, 50, c.Token.HistoryLimit)
	assert.Equal(t, "@every 30m", c.Reconcile.Spec)
	assert.Equal(t, "info", c.Log.Level)
}

func TestNew_EnvOverridesFile(t *testing.T) {
	writeConfig(t, "razorpay:\n  webhook_secret: whsec_file\n")
	t.Setenv("APP_RAZORPAY_WEBHOOK_SECRET", "whsec_env")
	t.Setenv("APP_SERVER_PORT", "9000")

	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, "whsec_env", c.Razorpay.WebhookSecret)
	assert.Equal(t, 9000, c.Server.Port)
}

func TestValidate(t *testing.T) {
	writeConfig(t, "database:\n  driver: sqlite\n")
	_, err := New()
	require.Error(t, err)

	c := &Config{
		Env:       EnvDev,
		Server:    ServerConfig{Port: 8080},
		Database:  DBConfig{Driver: DBDriverMongo},
		Razorpay:  RazorpayConfig{WebhookSecret: "s", Timeout: time.Second},
		Token:     TokenConfig{HistoryLimit: 50, LockTTL: time.Second, LockTries: 1},
		Log:       LogConfig{Level: "info"},
		Reconcile: ReconcileConfig{},
	}
	require.Error(t, c.Validate(), "mongo needs a uri")
	c.Database.MongoURI = "mongodb://localhost:27017"
	require.NoError(t, c.Validate())
}

func TestNew_MalformedFileFails(t *testing.T) {
	writeConfig(t, "razorpay: [unterminated\n  webhook_secret: x\n")
	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestNew_MissingExplicitFileFails(t *testing.T) {
	t.Setenv("APP_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("APP_RAZORPAY_WEBHOOK_SECRET", "whsec_env")
	_, err := New()
	require.Error(t, err)
}

func TestNew_NoConfigFileUsesDefaults(t *testing.T) {
	t.Setenv("APP_CONFIG_FILE", "")
	t.Setenv("APP_CONFIG_NAME", "billing-absent")
	t.Setenv("APP_RAZORPAY_WEBHOOK_SECRET", "whsec_env")

	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, "whsec_env", c.Razorpay.WebhookSecret)
	assert.Equal(t, DBDriverPostgres, c.Database.Driver)
}
