package schedule

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const samplePayload = `{
	"default": {
		"00:30": {"name": "fme_railroad_baron"},
		"01:10": {"name": "fme_master_archer"},
		"00:05": {"name": "fme_king_of_the_castle"}
	},
	"themed": {
		"00:15": {"name": "fme_role_trade_route", "variation": "fme_role_salvage"},
		"02:45": {"name": "fme_role_manhunt"}
	},
	"extra": {"ignored": true}
}`

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input string
		want  TimeOfDay
	}{
		{"00:00", TimeOfDay{0, 0, 0}},
		{"23:59", TimeOfDay{23, 59, 0}},
		{"7:05", TimeOfDay{7, 5, 0}},
		{"12:30:15", TimeOfDay{12, 30, 15}},
	}

	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.input)
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimeOfDay(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestParseTimeOfDayInvalid(t *testing.T) {
	for _, input := range []string{"", "24:00", "12", "12:60", "ab:cd", "1:2:3:4", "-1:00"} {
		if _, err := ParseTimeOfDay(input); !errors.Is(err, ErrInvalidTime) {
			t.Errorf("ParseTimeOfDay(%q) error = %v, want ErrInvalidTime", input, err)
		}
	}
}

func TestTimeOfDayOn(t *testing.T) {
	tod := TimeOfDay{Hour: 0, Minute: 5}
	loc := time.FixedZone("UTC-5", -5*3600)
	// 20:00 at UTC-5 is 01:00 UTC on the next day.
	now := time.Date(2024, 3, 9, 20, 0, 0, 0, loc)

	got := tod.On(now)
	want := time.Date(2024, 3, 10, 0, 5, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("On = %v, want %v", got, want)
	}
}

func TestParseJSONKeepsDeclarationOrder(t *testing.T) {
	table, err := ParseJSON([]byte(samplePayload))
	if err != nil {
		t.Fatalf("ParseJSON error: %v", err)
	}

	general := table.Entries(General)
	wantGeneral := []string{"fme_railroad_baron", "fme_master_archer", "fme_king_of_the_castle"}
	if len(general) != len(wantGeneral) {
		t.Fatalf("general len = %d, want %d", len(general), len(wantGeneral))
	}
	for i, d := range general {
		if d.ID != wantGeneral[i] {
			t.Errorf("general[%d] = %s, want %s", i, d.ID, wantGeneral[i])
		}
		if d.Group != General {
			t.Errorf("general[%d].Group = %s", i, d.Group)
		}
	}
	if general[2].TimeOfDay != (TimeOfDay{Hour: 0, Minute: 5}) {
		t.Errorf("general[2] time = %v", general[2].TimeOfDay)
	}

	role := table.Entries(Role)
	if len(role) != 2 {
		t.Fatalf("role len = %d, want 2", len(role))
	}
	if role[0].ID != "fme_role_salvage" {
		t.Errorf("variation should win over name, got %s", role[0].ID)
	}
	if table.Len() != 5 {
		t.Errorf("Len = %d, want 5", table.Len())
	}
}

func TestParseJSONErrors(t *testing.T) {
	tests := []string{
		``,
		`[]`,
		`{"default": {"25:00": {"name": "fme_fools_gold"}}}`,
		`{"default": {"10:00": {"name": ""}}}`,
		`{"default": []}`,
	}
	for _, input := range tests {
		if _, err := ParseJSON([]byte(input)); err == nil {
			t.Errorf("ParseJSON(%q) expected error", input)
		}
	}
}

func TestParseYAML(t *testing.T) {
	payload := `
default:
  "00:30": {name: fme_railroad_baron}
  "00:10": {name: fme_fools_gold}
themed:
  "01:00":
    name: fme_role_trade_route
    variation: fme_role_condor_egg
`
	table, err := ParseYAML([]byte(payload))
	if err != nil {
		t.Fatalf("ParseYAML error: %v", err)
	}
	general := table.Entries(General)
	if len(general) != 2 || general[0].ID != "fme_railroad_baron" || general[1].ID != "fme_fools_gold" {
		t.Errorf("general = %+v", general)
	}
	role := table.Entries(Role)
	if len(role) != 1 || role[0].ID != "fme_role_condor_egg" {
		t.Errorf("role = %+v", role)
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	table := NewTable([]Definition{{ID: "fme_fools_gold", Group: General}})
	entries := table.Entries(General)
	entries[0].ID = "changed"
	if table.Entries(General)[0].ID != "fme_fools_gold" {
		t.Error("Entries should not expose internal slice")
	}
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	table, err := NewHTTPSource(srv.URL).Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if table.Len() != 5 {
		t.Errorf("Len = %d, want 5", table.Len())
	}
}

func TestHTTPSourceStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := NewHTTPSource(srv.URL).Load(context.Background()); err == nil {
		t.Error("expected error for 404")
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "fme.json")
	if err := os.WriteFile(jsonPath, []byte(samplePayload), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := NewFileSource(jsonPath).Load(context.Background())
	if err != nil {
		t.Fatalf("json load: %v", err)
	}
	if table.Len() != 5 {
		t.Errorf("json Len = %d", table.Len())
	}

	yamlPath := filepath.Join(dir, "fme.yaml")
	if err := os.WriteFile(yamlPath, []byte("default:\n  \"03:00\": {name: fme_challenges}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err = NewFileSource(yamlPath).Load(context.Background())
	if err != nil {
		t.Fatalf("yaml load: %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("yaml Len = %d", table.Len())
	}

	if _, err := NewFileSource(filepath.Join(dir, "missing.json")).Load(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}
