package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/fmewatch/internal/clock"
	"github.com/dukerupert/fmewatch/internal/fme"
	"github.com/dukerupert/fmewatch/internal/schedule"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 5, 0, time.UTC)

func newFMEHandler(t *testing.T, loaded bool) (*FMEHandler, *fme.Engine) {
	t.Helper()
	c := clock.Func(func() time.Time { return fixedNow })
	engine := fme.NewEngine(c, fme.StaticConfig(fme.DefaultConfig()), nil, nil, fme.Options{}, discardLogger())
	if loaded {
		engine.SetTable(schedule.NewTable([]schedule.Definition{
			{TimeOfDay: schedule.TimeOfDay{Hour: 12, Minute: 10}, ID: "fme_fools_gold", Group: schedule.General},
			{TimeOfDay: schedule.TimeOfDay{Hour: 18, Minute: 0}, ID: "fme_king_of_the_castle", Group: schedule.General},
			{TimeOfDay: schedule.TimeOfDay{Hour: 12, Minute: 45}, ID: "fme_role_manhunt", Group: schedule.Role},
			{TimeOfDay: schedule.TimeOfDay{Hour: 12, Minute: 5}, ID: "fme_role_salvage", Group: schedule.Role},
		}))
	}
	return NewFMEHandler(engine, c, discardLogger()), engine
}

func TestFMESnapshot(t *testing.T) {
	h, engine := newFMEHandler(t, true)
	engine.Tick(context.Background())

	rec := doRequest(h.Snapshot, http.MethodGet, "/api/fme", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	snap := decodeBody[fme.Snapshot](t, rec)
	if !snap.Loaded || len(snap.Groups) != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	general, _ := snap.Group(schedule.General)
	if general.ID != "fme_fools_gold" || general.EtaText != "10 minutes" {
		t.Errorf("general = %+v", general)
	}
}

func TestFMEUpcoming(t *testing.T) {
	h, _ := newFMEHandler(t, false)
	rec := doRequest(h.Upcoming, http.MethodGet, "/api/fme/upcoming", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("body without table = %s", rec.Body.String())
	}

	h, _ = newFMEHandler(t, true)
	rec = doRequest(h.Upcoming, http.MethodGet, "/api/fme/upcoming", "")
	occs := decodeBody[[]fme.Occurrence](t, rec)

	want := []struct {
		id  string
		eta time.Duration
	}{
		{"fme_role_salvage", 5*time.Minute - 5*time.Second},
		{"fme_fools_gold", 10*time.Minute - 5*time.Second},
		{"fme_role_manhunt", 45*time.Minute - 5*time.Second},
	}
	if len(occs) != len(want) {
		t.Fatalf("occurrences = %d, want %d", len(occs), len(want))
	}
	for i, w := range want {
		if occs[i].ID != w.id || occs[i].Eta != w.eta {
			t.Errorf("occurrence %d = %s %v, want %s %v", i, occs[i].ID, occs[i].Eta, w.id, w.eta)
		}
	}
}

func TestFMECalendar(t *testing.T) {
	h, _ := newFMEHandler(t, false)
	if rec := doRequest(h.Calendar, http.MethodGet, "/api/fme.ics", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status without table = %d, want 503", rec.Code)
	}

	h, _ = newFMEHandler(t, true)
	rec := doRequest(h.Calendar, http.MethodGet, "/api/fme.ics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"BEGIN:VCALENDAR", "Fool's Gold", "King of the Castle", "END:VCALENDAR"} {
		if !strings.Contains(body, want) {
			t.Errorf("calendar missing %q", want)
		}
	}
}

func TestFMEClock(t *testing.T) {
	h, _ := newFMEHandler(t, false)

	rec := doRequest(h.Clock, http.MethodGet, "/api/clock", "")
	got := decodeBody[clock.Status](t, rec)
	if !got.MapTime.Equal(fixedNow) {
		t.Errorf("map_time = %v, want %v", got.MapTime, fixedNow)
	}
	if got.ResetInText == "" {
		t.Error("reset_in empty")
	}
}
