package tickets

import "fmt"

// Config locates the state files.
type Config struct {
	Dir string `json:"dir"`
	// NotificationLimit caps the stored notifications; the oldest are
	// discarded first.
	NotificationLimit int `json:"notification_limit"`
	// ResolvedLimit caps the resolved issues kept; open issues are never
	// discarded.
	ResolvedLimit int `json:"resolved_limit"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "."
	}
	if c.NotificationLimit == 0 {
		c.NotificationLimit = 500
	}
	if c.ResolvedLimit == 0 {
		c.ResolvedLimit = 1000
	}
}

// Validate rejects negative limits.
func (c Config) Validate() error {
	if c.NotificationLimit < 0 || c.ResolvedLimit < 0 {
		return fmt.Errorf("tickets limits must not be negative")
	}
	return nil
}
