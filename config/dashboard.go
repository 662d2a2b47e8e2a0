package config

import (
	"fmt"
	"time"
)

// DashboardConfig configures the dashboard HTTP server.
type DashboardConfig struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address"`
	// Token, when set, must be sent as "Authorization: Bearer <token>" on
	// every /api and /admin request.
	Token               string `json:"token"`
	ReadTimeoutSeconds  int    `json:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `json:"write_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *DashboardConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":5000"
	}
	if c.ReadTimeoutSeconds == 0 {
		c.ReadTimeoutSeconds = 10
	}
	if c.WriteTimeoutSeconds == 0 {
		c.WriteTimeoutSeconds = 10
	}
}

// Validate checks the timeouts.
func (c DashboardConfig) Validate() error {
	if c.ReadTimeoutSeconds < 0 || c.WriteTimeoutSeconds < 0 {
		return fmt.Errorf("dashboard timeouts must not be negative")
	}
	return nil
}

// ReadTimeout returns the server read timeout.
func (c DashboardConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the server write timeout.
func (c DashboardConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}
