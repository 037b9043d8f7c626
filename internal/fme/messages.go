package fme

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Messages holds the user-facing templates. Placeholders are written as
// {name}, {time} and {minutes}.
type Messages struct {
	LessThanAMinute  string
	Minute           string
	Minutes          string
	StartsIn         string
	NotificationBody string
}

// DefaultMessages is the English catalogue.
var DefaultMessages = Messages{
	LessThanAMinute:  "less than a minute",
	Minute:           "{minutes} minute",
	Minutes:          "{minutes} minutes",
	StartsIn:         "Starts in {time}",
	NotificationBody: "{name} starts in {time}",
}

// EtaText renders the time remaining, rounded to whole minutes.
func (m Messages) EtaText(eta time.Duration) string {
	seconds := eta.Seconds()
	if seconds < 60 {
		return m.LessThanAMinute
	}
	minutes := int(math.Round(seconds / 60))
	tmpl := m.Minutes
	if minutes == 1 {
		tmpl = m.Minute
	}
	return strings.ReplaceAll(tmpl, "{minutes}", strconv.Itoa(minutes))
}

func (m Messages) startsIn(etaText string) string {
	return strings.ReplaceAll(m.StartsIn, "{time}", etaText)
}

func (m Messages) notificationBody(name, etaText string) string {
	r := strings.NewReplacer("{name}", name, "{time}", etaText)
	return r.Replace(m.NotificationBody)
}
