// Package fme schedules the recurring free-roam events: it resolves the next
// occurrence of each event against the map clock, decides which ones are
// upcoming for display, and notifies once per occurrence ahead of its start.
package fme

import (
	"time"

	"github.com/dukerupert/fmewatch/internal/schedule"
)

const day = 24 * time.Hour

// Occurrence is one concrete future instance of a scheduled event.
type Occurrence struct {
	ID       string         `json:"id"`
	Group    schedule.Group `json:"group"`
	Instant  time.Time      `json:"instant"`
	Eta      time.Duration  `json:"eta_ns"`
	Name     string         `json:"name"`
	EtaText  string         `json:"eta"`
	ImageRef string         `json:"image"`
}

// Key identifies the occurrence for notification suppression.
func (o Occurrence) Key() string {
	return o.ID + "@" + o.Instant.UTC().Format(time.RFC3339)
}

// EtaMillis returns the eta in milliseconds.
func (o Occurrence) EtaMillis() int64 {
	return o.Eta.Milliseconds()
}

// Resolve finds the occurrence of def relative to now.
//
// The trigger time is first placed on now's UTC date. An eta beyond the
// window is retried on the previous date, and a non-positive eta is then
// moved to the next date. The second check must run after the first one
// regardless of whether it fired, otherwise a window longer than a day can
// leave the eta negative. Finally the result is pulled back to within one
// day of now.
func Resolve(now time.Time, def schedule.Definition, window time.Duration) Occurrence {
	now = now.UTC()

	candidate := def.TimeOfDay.On(now)
	eta := candidate.Sub(now)

	if eta > window {
		candidate = def.TimeOfDay.On(now.Add(-day))
		eta = candidate.Sub(now)
	}

	if eta <= 0 {
		candidate = def.TimeOfDay.On(now.Add(day))
		eta = candidate.Sub(now)
	}

	for eta > day {
		candidate = candidate.Add(-day)
		eta = candidate.Sub(now)
	}

	return Occurrence{
		ID:      def.ID,
		Group:   def.Group,
		Instant: candidate,
		Eta:     eta,
	}
}
