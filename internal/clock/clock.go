// Package clock provides the map time source used by the event engine and
// the in-game clock derived from it.
package clock

import (
	"fmt"
	"time"
)

// GameSpeed is how many in-game seconds pass per real second.
const GameSpeed = 30

// Clock returns the current map time.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// Map is the wall clock shifted by a fixed offset, used to line the map up
// with the game server's notion of time.
type Map struct {
	offset time.Duration
	now    func() time.Time
}

// NewMap creates a Map clock with the given offset from the wall clock.
func NewMap(offset time.Duration) *Map {
	return &Map{offset: offset, now: time.Now}
}

func (m *Map) Now() time.Time {
	return m.now().Add(m.offset).UTC()
}

// Offset returns the configured offset.
func (m *Map) Offset() time.Duration {
	return m.offset
}

// GameTime converts a map instant into in-game time.
func GameTime(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli() * GameSpeed).UTC()
}

// IsNight reports whether the in-game hour is between 22:00 and 05:00.
func IsNight(game time.Time) bool {
	h := game.UTC().Hour()
	return h >= 22 || h < 5
}

// UntilDailyReset returns the time left until the next UTC midnight.
func UntilDailyReset(t time.Time) time.Duration {
	t = t.UTC()
	next := time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, time.UTC)
	return next.Sub(t)
}

// Status is a snapshot of the clocks for display.
type Status struct {
	MapTime     time.Time     `json:"map_time"`
	GameTime    time.Time     `json:"game_time"`
	GameHour    int           `json:"game_hour"`
	Night       bool          `json:"night"`
	ResetIn     time.Duration `json:"reset_in_ns"`
	ResetInText string        `json:"reset_in"`
}

// Snapshot reads c once and derives the display status.
func Snapshot(c Clock) Status {
	now := c.Now().UTC()
	game := GameTime(now)
	reset := UntilDailyReset(now)
	return Status{
		MapTime:     now,
		GameTime:    game,
		GameHour:    game.Hour(),
		Night:       IsNight(game),
		ResetIn:     reset,
		ResetInText: formatHMS(reset),
	}
}

func formatHMS(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	sec := int(d%time.Minute) / int(time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}
