// Package calendar renders upcoming event occurrences as an iCalendar feed
// so they can be subscribed to from a calendar app.
package calendar

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/dukerupert/fmewatch/internal/fme"
)

// EventDuration is how long each occurrence is shown in the calendar.
const EventDuration = 15 * time.Minute

const productID = "-//fmewatch//Free Roam Events//EN"

// Feed builds a calendar with one VEVENT per occurrence.
func Feed(occs []fme.Occurrence, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName("Free Roam Events")
	cal.SetRefreshInterval("PT1H")

	stamp := now.UTC()
	for _, occ := range occs {
		ev := cal.AddEvent(occ.Key())
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(occ.Instant.UTC())
		ev.SetEndAt(occ.Instant.UTC().Add(EventDuration))
		ev.SetSummary(occ.Name)
		ev.SetDescription(fmt.Sprintf("%s event (%s)", occ.Group, occ.ID))
	}
	return cal
}

// Serialize renders the feed as text/calendar.
func Serialize(occs []fme.Occurrence, now time.Time) string {
	return Feed(occs, now).Serialize()
}
