package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTime is returned when a trigger time is not HH:MM or HH:MM:SS.
var ErrInvalidTime = errors.New("invalid time of day")

// Group separates general free-roam events from role events. Each group has
// its own display window and its own "next event" slot.
type Group string

const (
	General Group = "general"
	Role    Group = "role"
)

// Groups lists the groups in evaluation order.
var Groups = []Group{General, Role}

// payloadKeys maps the keys used by the schedule payload to groups.
var payloadKeys = map[string]Group{
	"default": General,
	"themed":  Role,
}

// TimeOfDay is a UTC-anchored daily trigger time.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS". Single-digit hours are accepted.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	vals := make([]int, 3)
	limits := []int{23, 59, 59}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > limits[i] {
			return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		vals[i] = n
	}
	return TimeOfDay{Hour: vals[0], Minute: vals[1], Second: vals[2]}, nil
}

// On returns the instant this time of day falls on for the UTC date of t.
func (tod TimeOfDay) On(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), tod.Hour, tod.Minute, tod.Second, 0, time.UTC)
}

func (tod TimeOfDay) String() string {
	if tod.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", tod.Hour, tod.Minute, tod.Second)
	}
	return fmt.Sprintf("%02d:%02d", tod.Hour, tod.Minute)
}

// Definition is one recurring event: a daily trigger time and its identity.
type Definition struct {
	TimeOfDay TimeOfDay
	ID        string
	Group     Group
}

// Table is the immutable schedule, keeping each group's entries in the order
// they were declared in the payload.
type Table struct {
	groups map[Group][]Definition
}

// NewTable builds a table from definitions, preserving their order per group.
func NewTable(defs []Definition) *Table {
	t := &Table{groups: make(map[Group][]Definition)}
	for _, d := range defs {
		t.groups[d.Group] = append(t.groups[d.Group], d)
	}
	return t
}

// Entries returns a copy of a group's definitions in declaration order.
func (t *Table) Entries(g Group) []Definition {
	if t == nil {
		return nil
	}
	src := t.groups[g]
	out := make([]Definition, len(src))
	copy(out, src)
	return out
}

// Len returns the number of definitions across all groups.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, defs := range t.groups {
		n += len(defs)
	}
	return n
}
