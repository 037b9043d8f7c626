package fme

import (
	"time"

	"github.com/dukerupert/fmewatch/internal/schedule"
)

// Display is the "next event" slot shown for one group.
type Display struct {
	Group    schedule.Group `json:"group"`
	ID       string         `json:"id,omitempty"`
	ImageRef string         `json:"image,omitempty"`
	Name     string         `json:"name,omitempty"`
	EtaText  string         `json:"eta,omitempty"`
	Body     string         `json:"body,omitempty"`
	Visible  bool           `json:"visible"`
}

// IsUpcoming reports whether occ is enabled and starts within the window.
func IsUpcoming(occ Occurrence, enabled schedule.EventSet, window time.Duration) bool {
	if !enabled.Enabled(occ.ID) {
		return false
	}
	return occ.Eta > 0 && occ.Eta < window
}

// Project builds a group's display slot from its occurrences, which must be
// in schedule declaration order. Each upcoming occurrence overwrites the slot,
// so the last upcoming one in declaration order is shown even when an earlier
// entry starts sooner. The upcoming occurrences are returned in the same order.
func Project(group schedule.Group, occs []Occurrence, enabled schedule.EventSet, window time.Duration, msgs Messages) (Display, []Occurrence) {
	display := Display{Group: group}
	var upcoming []Occurrence

	for _, occ := range occs {
		if !IsUpcoming(occ, enabled, window) {
			continue
		}
		upcoming = append(upcoming, occ)

		display = Display{
			Group:    group,
			ID:       occ.ID,
			ImageRef: occ.ImageRef,
			Name:     occ.Name,
			EtaText:  occ.EtaText,
			Body:     msgs.startsIn(occ.EtaText),
			Visible:  true,
		}
	}

	return display, upcoming
}
