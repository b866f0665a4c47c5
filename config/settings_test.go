package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]interface{}) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestSettingsDefaults(t *testing.T) {
	s, err := settingsFrom(newViper(map[string]interface{}{"JWT_SECRET": "s3cret"}))
	require.NoError(t, err)

	assert.Equal(t, "8080", s.Port)
	assert.Equal(t, 24*time.Hour, s.JWTTTL)
	assert.Equal(t, 30, s.ExpiringWindowDays)
	assert.Equal(t, 30, s.DefaultGracePeriodDays)
	assert.Equal(t, time.Hour, s.AutoRenewInterval)
	assert.Equal(t, []string{"*"}, s.CORSOrigins)
	assert.False(t, s.AllowCredentials())

	p := s.ConsentPolicy()
	assert.Equal(t, 30, p.ExpiringWindowDays)
	assert.Equal(t, 30, p.DefaultGracePeriodDays)
}

func TestSettingsRequireJWTSecret(t *testing.T) {
	_, err := settingsFrom(newViper(nil))
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestSettingsRejectNegativeWindows(t *testing.T) {
	_, err := settingsFrom(newViper(map[string]interface{}{
		"JWT_SECRET":                   "x",
		"CONSENT_EXPIRING_WINDOW_DAYS": -1,
	}))
	assert.Error(t, err)
}

func TestParseCorsOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, parseCorsOrigins(""))
	assert.Equal(t, []string{"*"}, parseCorsOrigins(" , "))
	assert.Equal(t,
		[]string{"https://app.chkin.health", "http://localhost:3000"},
		parseCorsOrigins("https://app.chkin.health, http://localhost:3000,"),
	)

	s := &Settings{CORSOrigins: parseCorsOrigins("https://app.chkin.health")}
	assert.True(t, s.AllowCredentials())
}

func TestResolveMySQLDSN(t *testing.T) {
	t.Run("from url", func(t *testing.T) {
		t.Setenv("MYSQL_URL", "mysql://chkin:pw@db.internal:3307/chkin_prod")
		dsn, err := ResolveMySQLDSN()
		require.NoError(t, err)
		assert.Contains(t, dsn, "chkin:pw@tcp(db.internal:3307)/chkin_prod?")
		assert.Contains(t, dsn, "parseTime=True")
	})

	t.Run("url without database", func(t *testing.T) {
		t.Setenv("MYSQL_URL", "mysql://chkin:pw@db.internal:3307/")
		_, err := ResolveMySQLDSN()
		assert.Error(t, err)
	})

	t.Run("raw dsn must parse times", func(t *testing.T) {
		t.Setenv("MYSQL_URL", "")
		t.Setenv("DATABASE_URL", "root:pw@tcp(127.0.0.1:3306)/chkin")
		_, err := ResolveMySQLDSN()
		assert.ErrorContains(t, err, "parseTime")
	})

	t.Run("from parts", func(t *testing.T) {
		t.Setenv("MYSQL_URL", "")
		t.Setenv("DATABASE_URL", "")
		t.Setenv("DB_USER", "app")
		t.Setenv("DB_PASS", "pw")
		t.Setenv("DB_NAME", "intake")
		dsn, err := ResolveMySQLDSN()
		require.NoError(t, err)
		assert.Contains(t, dsn, "app:pw@tcp(127.0.0.1:3306)/intake?")
	})
}
