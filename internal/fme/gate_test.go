package fme

import (
	"testing"
	"time"

	"github.com/dukerupert/fmewatch/internal/schedule"
)

func TestIsUpcoming(t *testing.T) {
	enabled := schedule.AllEvents()
	window := 30 * time.Minute

	tests := []struct {
		name string
		eta  time.Duration
		want bool
	}{
		{"inside", 10 * time.Minute, true},
		{"just started", 0, false},
		{"at window", window, false},
		{"beyond window", 45 * time.Minute, false},
		{"one second", time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occ := Occurrence{ID: "fme_fools_gold", Eta: tt.eta}
			if got := IsUpcoming(occ, enabled, window); got != tt.want {
				t.Errorf("IsUpcoming(eta=%v) = %v, want %v", tt.eta, got, tt.want)
			}
		})
	}
}

func TestIsUpcomingDisabledBit(t *testing.T) {
	enabled := schedule.AllEvents()
	enabled.Remove(schedule.FoolsGold)

	occ := Occurrence{ID: "fme_fools_gold", Eta: 5 * time.Minute}
	if IsUpcoming(occ, enabled, 30*time.Minute) {
		t.Error("disabled event reported as upcoming")
	}
}

func TestProjectLastWriteWins(t *testing.T) {
	occs := []Occurrence{
		{ID: "fme_fools_gold", Name: "Fool's Gold", Eta: 2 * time.Minute, EtaText: "2 minutes"},
		{ID: "fme_master_archer", Name: "Master Archer", Eta: 20 * time.Minute, EtaText: "20 minutes"},
	}

	display, upcoming := Project(schedule.General, occs, schedule.AllEvents(), 30*time.Minute, DefaultMessages)

	if !display.Visible {
		t.Fatal("expected visible display")
	}
	if display.ID != "fme_master_archer" {
		t.Errorf("display ID = %q, want the later declared event", display.ID)
	}
	if display.Body != "Starts in 20 minutes" {
		t.Errorf("Body = %q", display.Body)
	}
	if len(upcoming) != 2 || upcoming[0].ID != "fme_fools_gold" {
		t.Errorf("upcoming = %+v, want both in declaration order", upcoming)
	}
}

func TestProjectNothingUpcoming(t *testing.T) {
	occs := []Occurrence{
		{ID: "fme_fools_gold", Eta: 3 * time.Hour},
	}

	display, upcoming := Project(schedule.Role, occs, schedule.AllEvents(), time.Hour, DefaultMessages)
	if display.Visible {
		t.Error("expected hidden display")
	}
	if display.Group != schedule.Role {
		t.Errorf("Group = %q, want role", display.Group)
	}
	if len(upcoming) != 0 {
		t.Errorf("upcoming = %d, want 0", len(upcoming))
	}
}

func TestEtaText(t *testing.T) {
	tests := []struct {
		eta  time.Duration
		want string
	}{
		{30 * time.Second, "less than a minute"},
		{59 * time.Second, "less than a minute"},
		{60 * time.Second, "1 minute"},
		{89 * time.Second, "1 minute"},
		{90 * time.Second, "2 minutes"},
		{595 * time.Second, "10 minutes"},
	}
	for _, tt := range tests {
		if got := DefaultMessages.EtaText(tt.eta); got != tt.want {
			t.Errorf("EtaText(%v) = %q, want %q", tt.eta, got, tt.want)
		}
	}
}
