package config

import (
	"fmt"
	"strings"

	"github.com/chrissnell/celestial/internal/constants"
)

// SettingsProvider defines the interface for configuration data sources
type SettingsProvider interface {
	// LoadSettings returns the defaults overlaid with this source's values
	LoadSettings() (*Settings, error)

	IsReadOnly() bool
	Close() error
}

// Settings holds the complete service configuration. A loaded Settings is
// treated as read-only.
type Settings struct {
	AppName     string   `yaml:"app_name" json:"app_name"`
	AppVersion  string   `yaml:"app_version" json:"app_version"`
	Debug       bool     `yaml:"debug" json:"debug"`
	Host        string   `yaml:"host" json:"host"`
	Port        int      `yaml:"port" json:"port"`
	CORSOrigins []string `yaml:"cors_origins" json:"cors_origins"`
	APIV1Prefix string   `yaml:"api_v1_prefix" json:"api_v1_prefix"`

	// MetricsEnabled exposes Prometheus metrics on /metrics
	MetricsEnabled bool `yaml:"metrics_enabled" json:"metrics_enabled"`

	// GRPCHealth serves grpc.health.v1 on the HTTP listener
	GRPCHealth bool `yaml:"grpc_health" json:"grpc_health"`

	// RateLimitRPS <= 0 disables rate limiting
	RateLimitRPS   float64 `yaml:"rate_limit_rps" json:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst" json:"rate_limit_burst"`
}

// DefaultSettings returns the built-in configuration
func DefaultSettings() *Settings {
	return &Settings{
		AppName:        constants.AppName,
		AppVersion:     constants.AppVersion,
		Debug:          false,
		Host:           "0.0.0.0",
		Port:           8000,
		CORSOrigins:    []string{"http://localhost:3000", "http://localhost:5173"},
		APIV1Prefix:    "/api/v1",
		MetricsEnabled: true,
		GRPCHealth:     true,
	}
}

// ListenAddr returns host:port
func (s *Settings) ListenAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Clone returns a deep copy of s
func (s *Settings) Clone() *Settings {
	c := *s
	c.CORSOrigins = append([]string(nil), s.CORSOrigins...)
	return &c
}

// Validate checks ranges and normalizes the API prefix
func (s *Settings) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", s.Port)
	}

	s.APIV1Prefix = strings.TrimRight(strings.TrimSpace(s.APIV1Prefix), "/")
	if !strings.HasPrefix(s.APIV1Prefix, "/") {
		return fmt.Errorf("api_v1_prefix %q must start with /", s.APIV1Prefix)
	}

	if s.RateLimitRPS > 0 && s.RateLimitBurst < 1 {
		s.RateLimitBurst = 1
	}
	if s.RateLimitBurst < 0 {
		return fmt.Errorf("rate_limit_burst %d must not be negative", s.RateLimitBurst)
	}
	return nil
}
