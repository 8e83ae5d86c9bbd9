package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", c.Database.Driver)
	assert.Equal(t, ":8080", c.HTTP.BindAddr)
	assert.Equal(t, 12*time.Hour, c.Auth.SessionTTL)
	assert.Equal(t, "kairos_session", c.Auth.CookieName)
	assert.True(t, c.Sales.AllowNegativeStock)
	assert.False(t, c.Sales.VerifyTotal)
	assert.Equal(t, int64(5), c.Reports.LowStockThreshold)
	assert.Equal(t, "info", c.Log.Level)
	assert.False(t, c.HTTP.TLS())

	assert.EqualError(t, c.Validate(), "database DSN is required")
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kairos.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: sqlite3
  dsn: file:kairos.db
auth:
  secret: from-file
  session_ttl: 30m
sales:
  allow_negative_stock: false
reports:
  timezone: America/Sao_Paulo
`), 0o600))

	t.Setenv("KAIROS_AUTH_SECRET", "from-env")
	t.Setenv("KAIROS_SALES_VERIFY_TOTAL", "true")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", c.Database.Driver)
	assert.Equal(t, "from-env", c.Auth.Secret)
	assert.Equal(t, 30*time.Minute, c.Auth.SessionTTL)
	assert.False(t, c.Sales.AllowNegativeStock)
	assert.True(t, c.Sales.VerifyTotal)

	loc, err := c.Reports.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", loc.String())

	require.NoError(t, c.ValidateServe())
}

func TestLoadLegacyEnv(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://legacy")
	t.Setenv("BIND_ADDR", ":9000")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://legacy", c.Database.DSN)
	assert.Equal(t, ":9000", c.HTTP.BindAddr)

	t.Setenv("KAIROS_DATABASE_DSN", "postgres://new")
	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://new", c.Database.DSN)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c, err := Load("")
		require.NoError(t, err)
		c.Database.DSN = "postgres://x"
		c.Auth.Secret = "s"
		return c
	}

	c := base()
	require.NoError(t, c.ValidateServe())

	c = base()
	c.Database.Driver = "mysql"
	assert.Error(t, c.Validate())

	c = base()
	c.Auth.Secret = ""
	assert.NoError(t, c.Validate())
	assert.Error(t, c.ValidateServe())

	c = base()
	c.HTTP.TLSCert = "cert.pem"
	assert.Error(t, c.ValidateServe())

	c = base()
	c.Reports.Timezone = "Mars/Olympus"
	assert.Error(t, c.Validate())
}

func TestSetupLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.GetLevel())
	defer logrus.SetFormatter(logrus.StandardLogger().Formatter)

	require.NoError(t, SetupLogging(Log{Level: "debug", Format: "json"}))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)

	assert.Error(t, SetupLogging(Log{Level: "loud"}))
	assert.Error(t, SetupLogging(Log{Level: "info", Format: "xml"}))
}
