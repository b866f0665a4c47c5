package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"chkin-backend/consent"
)

// Settings holds everything the service reads from the environment.
type Settings struct {
	Port        string
	LogLevel    string
	CORSOrigins []string
	FrontendURL string

	JWTSecret string
	JWTTTL    time.Duration

	ExpiringWindowDays     int
	DefaultGracePeriodDays int

	AutoRenewInterval time.Duration
	AutoRenewMonths   int

	AdminEmail    string
	AdminPassword string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("JWT_TTL_HOURS", 24)
	v.SetDefault("CONSENT_EXPIRING_WINDOW_DAYS", consent.DefaultExpiringWindowDays)
	v.SetDefault("CONSENT_DEFAULT_GRACE_DAYS", consent.DefaultGracePeriodDays)
	v.SetDefault("AUTO_RENEW_INTERVAL_MINUTES", 60)
	v.SetDefault("AUTO_RENEW_MONTHS", 12)
	v.SetDefault("ADMIN_EMAIL", "admin@chkin.local")
}

// LoadSettings reads settings from the environment and, when present, a
// config.yaml in the working directory or ./config.
func LoadSettings() (*Settings, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	setDefaults(v)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return settingsFrom(v)
}

func settingsFrom(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		Port:                   strings.TrimSpace(v.GetString("PORT")),
		LogLevel:               v.GetString("LOG_LEVEL"),
		CORSOrigins:            parseCorsOrigins(v.GetString("CORS_ORIGINS")),
		FrontendURL:            strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
		JWTSecret:              v.GetString("JWT_SECRET"),
		JWTTTL:                 time.Duration(v.GetInt("JWT_TTL_HOURS")) * time.Hour,
		ExpiringWindowDays:     v.GetInt("CONSENT_EXPIRING_WINDOW_DAYS"),
		DefaultGracePeriodDays: v.GetInt("CONSENT_DEFAULT_GRACE_DAYS"),
		AutoRenewInterval:      time.Duration(v.GetInt("AUTO_RENEW_INTERVAL_MINUTES")) * time.Minute,
		AutoRenewMonths:        v.GetInt("AUTO_RENEW_MONTHS"),
		AdminEmail:             strings.TrimSpace(v.GetString("ADMIN_EMAIL")),
		AdminPassword:          v.GetString("ADMIN_PASSWORD"),
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

func (s *Settings) validate() error {
	if s.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if s.Port == "" {
		return errors.New("PORT must not be empty")
	}
	if s.JWTTTL <= 0 {
		return errors.New("JWT_TTL_HOURS must be positive")
	}
	if s.ExpiringWindowDays < 0 || s.DefaultGracePeriodDays < 0 {
		return errors.New("consent windows must not be negative")
	}
	if s.AutoRenewMonths <= 0 {
		return errors.New("AUTO_RENEW_MONTHS must be positive")
	}
	return nil
}

// ConsentPolicy returns the status policy built from these settings.
func (s *Settings) ConsentPolicy() consent.Policy {
	return consent.Policy{
		ExpiringWindowDays:     s.ExpiringWindowDays,
		DefaultGracePeriodDays: s.DefaultGracePeriodDays,
	}
}

// AllowCredentials is false whenever a wildcard origin is configured.
func (s *Settings) AllowCredentials() bool {
	for _, origin := range s.CORSOrigins {
		if origin == "*" {
			return false
		}
	}
	return true
}

func parseCorsOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
