package schedule

import (
	"sort"
	"strings"
)

// Event is one of the known free-roam event identities.
type Event int

const (
	MasterArcher Event = iota
	DispatchRider
	ChallengeRiverFishing
	FoolsGold
	ColdDeadHands
	KingOfTheCastle
	RailroadBaron
	Challenges
	RoleAnimalTagging
	RoleCondorEgg
	RoleDayOfReckoning
	RoleProtectLegendaryAnimal
	RoleManhunt
	RoleTradeRoute
	WildlifePhotographer
	RoleSalvage
	ChallengeWildAnimalsKills
	ChallengeLakeFishing
	ChallengeSwampFishing

	eventCount
)

var eventIDs = [eventCount]string{
	MasterArcher:               "fme_master_archer",
	DispatchRider:              "fme_dispatch_rider",
	ChallengeRiverFishing:      "fme_challenge_river_fishing",
	FoolsGold:                  "fme_fools_gold",
	ColdDeadHands:              "fme_cold_dead_hands",
	KingOfTheCastle:            "fme_king_of_the_castle",
	RailroadBaron:              "fme_railroad_baron",
	Challenges:                 "fme_challenges",
	RoleAnimalTagging:          "fme_role_animal_tagging",
	RoleCondorEgg:              "fme_role_condor_egg",
	RoleDayOfReckoning:         "fme_role_day_of_reckoning",
	RoleProtectLegendaryAnimal: "fme_role_protect_legendary_animal",
	RoleManhunt:                "fme_role_manhunt",
	RoleTradeRoute:             "fme_role_trade_route",
	WildlifePhotographer:       "fme_wildlife_photographer",
	RoleSalvage:                "fme_role_salvage",
	ChallengeWildAnimalsKills:  "fme_challenge_wild_animals_kills",
	ChallengeLakeFishing:       "fme_challenge_lake_fishing",
	ChallengeSwampFishing:      "fme_challenge_swamp_fishing",
}

var eventNames = [eventCount]string{
	MasterArcher:               "Master Archer",
	DispatchRider:              "Dispatch Rider",
	ChallengeRiverFishing:      "River Fishing Challenge",
	FoolsGold:                  "Fool's Gold",
	ColdDeadHands:              "Cold Dead Hands",
	KingOfTheCastle:            "King of the Castle",
	RailroadBaron:              "Railroad Baron",
	Challenges:                 "Challenges",
	RoleAnimalTagging:          "Animal Tagging",
	RoleCondorEgg:              "Condor Egg",
	RoleDayOfReckoning:         "Day of Reckoning",
	RoleProtectLegendaryAnimal: "Protect Legendary Animal",
	RoleManhunt:                "Manhunt",
	RoleTradeRoute:             "Trade Route",
	WildlifePhotographer:       "Wildlife Photographer",
	RoleSalvage:                "Salvage",
	ChallengeWildAnimalsKills:  "Wild Animal Kills Challenge",
	ChallengeLakeFishing:       "Lake Fishing Challenge",
	ChallengeSwampFishing:      "Swamp Fishing Challenge",
}

var eventFromID = func() map[string]Event {
	m := make(map[string]Event, eventCount)
	for e, id := range eventIDs {
		m[id] = Event(e)
	}
	return m
}()

// Events returns every known event in flag order.
func Events() []Event {
	out := make([]Event, 0, eventCount)
	for e := Event(0); e < eventCount; e++ {
		out = append(out, e)
	}
	return out
}

// Lookup maps an identity string to its Event.
func Lookup(id string) (Event, bool) {
	e, ok := eventFromID[id]
	return e, ok
}

// ID returns the identity string used in schedule payloads and settings.
func (e Event) ID() string {
	if e < 0 || e >= eventCount {
		return ""
	}
	return eventIDs[e]
}

// Flag is the bit this event occupies in the legacy settings bitmask.
func (e Event) Flag() uint32 {
	if e < 0 || e >= eventCount {
		return 0
	}
	return 1 << uint(e)
}

func (e Event) String() string { return e.ID() }

// DisplayName returns the English display name for an identity. Unknown
// identities are humanized from their id.
func DisplayName(id string) string {
	if e, ok := Lookup(id); ok {
		return eventNames[e]
	}
	name := strings.TrimPrefix(id, "fme_")
	name = strings.TrimPrefix(name, "role_")
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// EventSet is the user-selected subset of events eligible for display and
// notification.
type EventSet struct {
	members map[Event]struct{}
}

// NewEventSet returns a set containing the given events.
func NewEventSet(events ...Event) EventSet {
	s := EventSet{members: make(map[Event]struct{}, len(events))}
	for _, e := range events {
		s.Add(e)
	}
	return s
}

// AllEvents returns the default set: every known event enabled.
func AllEvents() EventSet {
	return NewEventSet(Events()...)
}

// SetFromMask decodes the legacy integer bitmask. Unknown bits are ignored.
func SetFromMask(mask uint32) EventSet {
	s := NewEventSet()
	for _, e := range Events() {
		if mask&e.Flag() != 0 {
			s.Add(e)
		}
	}
	return s
}

// AllMask is the bitmask with every known event set.
func AllMask() uint32 {
	return AllEvents().Mask()
}

// Mask encodes the set as the legacy integer bitmask.
func (s EventSet) Mask() uint32 {
	var mask uint32
	for e := range s.members {
		mask |= e.Flag()
	}
	return mask
}

func (s *EventSet) Add(e Event) {
	if e < 0 || e >= eventCount {
		return
	}
	if s.members == nil {
		s.members = make(map[Event]struct{})
	}
	s.members[e] = struct{}{}
}

func (s *EventSet) Remove(e Event) {
	delete(s.members, e)
}

func (s EventSet) Has(e Event) bool {
	_, ok := s.members[e]
	return ok
}

// Enabled reports whether the identity is a known event present in the set.
func (s EventSet) Enabled(id string) bool {
	e, ok := Lookup(id)
	if !ok {
		return false
	}
	return s.Has(e)
}

func (s EventSet) Len() int { return len(s.members) }

// IDs returns the identities in the set, sorted.
func (s EventSet) IDs() []string {
	ids := make([]string, 0, len(s.members))
	for e := range s.members {
		ids = append(ids, e.ID())
	}
	sort.Strings(ids)
	return ids
}
