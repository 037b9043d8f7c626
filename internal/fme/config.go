package fme

import (
	"time"

	"github.com/dukerupert/fmewatch/internal/schedule"
)

// Config is the user configuration read at the start of every tick.
type Config struct {
	DisplayEnabled       bool
	NotificationsEnabled bool
	GeneralWindow        time.Duration
	RoleWindow           time.Duration
	LeadTime             time.Duration
	Enabled              schedule.EventSet
	Language             string
}

// DefaultConfig matches the settings a new user starts with.
func DefaultConfig() Config {
	return Config{
		DisplayEnabled:       true,
		NotificationsEnabled: false,
		GeneralWindow:        30 * time.Minute,
		RoleWindow:           60 * time.Minute,
		LeadTime:             10 * time.Minute,
		Enabled:              schedule.AllEvents(),
		Language:             "en",
	}
}

// Window returns the display window for a group.
func (c Config) Window(g schedule.Group) time.Duration {
	if g == schedule.Role {
		return c.RoleWindow
	}
	return c.GeneralWindow
}

// ConfigSource supplies the current configuration.
type ConfigSource interface {
	FMEConfig() (Config, error)
}

// StaticConfig is a ConfigSource that always returns the same value.
type StaticConfig Config

func (s StaticConfig) FMEConfig() (Config, error) { return Config(s), nil }
