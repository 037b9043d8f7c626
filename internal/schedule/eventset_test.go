package schedule

import "testing"

func TestEventFlags(t *testing.T) {
	tests := []struct {
		id   string
		flag uint32
	}{
		{"fme_master_archer", 1},
		{"fme_dispatch_rider", 2},
		{"fme_challenges", 128},
		{"fme_role_animal_tagging", 256},
		{"fme_role_trade_route", 8192},
		{"fme_role_salvage", 32768},
		{"fme_challenge_swamp_fishing", 262144},
	}

	for _, tt := range tests {
		e, ok := Lookup(tt.id)
		if !ok {
			t.Errorf("Lookup(%q) not found", tt.id)
			continue
		}
		if e.Flag() != tt.flag {
			t.Errorf("%s flag = %d, want %d", tt.id, e.Flag(), tt.flag)
		}
		if e.ID() != tt.id {
			t.Errorf("ID() = %q, want %q", e.ID(), tt.id)
		}
	}
}

func TestAllMask(t *testing.T) {
	// Sum of the 19 flags.
	const want = 1<<19 - 1
	if got := AllMask(); got != want {
		t.Errorf("AllMask = %d, want %d", got, want)
	}
	if AllEvents().Len() != 19 {
		t.Errorf("AllEvents len = %d, want 19", AllEvents().Len())
	}
}

func TestSetFromMaskRoundTrip(t *testing.T) {
	mask := MasterArcher.Flag() | RoleManhunt.Flag() | ChallengeLakeFishing.Flag()
	set := SetFromMask(mask | 1<<30)

	if !set.Has(MasterArcher) || !set.Has(RoleManhunt) || !set.Has(ChallengeLakeFishing) {
		t.Errorf("missing members: %v", set.IDs())
	}
	if set.Has(DispatchRider) {
		t.Error("DispatchRider should not be set")
	}
	if set.Mask() != mask {
		t.Errorf("Mask = %d, want %d (unknown bits dropped)", set.Mask(), mask)
	}
}

func TestEventSetEnabled(t *testing.T) {
	set := NewEventSet(FoolsGold)

	if !set.Enabled("fme_fools_gold") {
		t.Error("fme_fools_gold should be enabled")
	}
	if set.Enabled("fme_cold_dead_hands") {
		t.Error("fme_cold_dead_hands should be disabled")
	}
	if set.Enabled("fme_not_a_real_event") {
		t.Error("unknown identities are never enabled")
	}

	set.Remove(FoolsGold)
	if set.Enabled("fme_fools_gold") {
		t.Error("removed event still enabled")
	}

	var zero EventSet
	zero.Add(Challenges)
	if !zero.Has(Challenges) {
		t.Error("zero value set should accept Add")
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"fme_fools_gold", "Fool's Gold"},
		{"fme_role_condor_egg", "Condor Egg"},
		{"fme_role_new_thing", "New Thing"},
		{"fme_halloween_hunt", "Halloween Hunt"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.id); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
