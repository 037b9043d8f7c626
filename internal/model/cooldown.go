package model

import "time"

// Cooldown marks a legendary animal species as recently hunted.
type Cooldown struct {
	Species   string    `json:"species"`
	StartedAt time.Time `json:"started_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Remaining returns the time left at now, never negative.
func (c Cooldown) Remaining(now time.Time) time.Duration {
	d := c.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
