package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dukerupert/fmewatch/internal/fme"
	"github.com/dukerupert/fmewatch/internal/model"
	"github.com/dukerupert/fmewatch/internal/schedule"
)

// ErrInvalidSetting is returned when an update is out of range.
var ErrInvalidSetting = errors.New("invalid setting")

const (
	KeyDisplayEnabled      = "fme_display_enabled"
	KeyNotificationEnabled = "fme_notification_enabled"
	KeyGeneralPeriod       = "fme_display_general_period"
	KeyRolePeriod          = "fme_display_role_period"
	KeyNotificationPeriod  = "fme_notification_period"
	KeyEnabledEvents       = "fme_enabled_events"
	KeyLanguage            = "language"
	KeyNotificationHelp    = "fme_notification_help"
)

type minuteRange struct {
	min, max, def int
}

var periodRanges = map[string]minuteRange{
	KeyGeneralPeriod:      {min: 10, max: 45, def: 30},
	KeyRolePeriod:         {min: 10, max: 90, def: 60},
	KeyNotificationPeriod: {min: 1, max: 30, def: 10},
}

var fmeKeys = []string{
	KeyDisplayEnabled,
	KeyNotificationEnabled,
	KeyGeneralPeriod,
	KeyRolePeriod,
	KeyNotificationPeriod,
	KeyEnabledEvents,
	KeyLanguage,
	KeyNotificationHelp,
}

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("setting %q not found", key)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *SettingsStore) GetAll() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("get all settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

func (s *SettingsStore) Set(key, value string) error {
	return setSetting(s.db, key, value)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func setSetting(db execer, key, value string) error {
	_, err := db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// FMESettings reads the event settings. Missing or malformed values fall back
// to their defaults.
func (s *SettingsStore) FMESettings() (model.FMESettings, error) {
	raw := make(map[string]string, len(fmeKeys))
	for _, key := range fmeKeys {
		var value string
		err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return model.FMESettings{}, fmt.Errorf("get fme setting %q: %w", key, err)
		}
		raw[key] = value
	}

	mask := parseMask(raw[KeyEnabledEvents])
	return model.FMESettings{
		DisplayEnabled:       parseBool(raw[KeyDisplayEnabled], true),
		NotificationsEnabled: parseBool(raw[KeyNotificationEnabled], false),
		GeneralPeriod:        parsePeriod(KeyGeneralPeriod, raw[KeyGeneralPeriod]),
		RolePeriod:           parsePeriod(KeyRolePeriod, raw[KeyRolePeriod]),
		NotificationPeriod:   parsePeriod(KeyNotificationPeriod, raw[KeyNotificationPeriod]),
		EnabledMask:          mask,
		EnabledEvents:        schedule.SetFromMask(mask).IDs(),
		Language:             parseLanguage(raw[KeyLanguage]),
		NotificationHelp:     raw[KeyNotificationHelp],
	}, nil
}

// FMEConfig converts the stored settings into the engine configuration.
func (s *SettingsStore) FMEConfig() (fme.Config, error) {
	settings, err := s.FMESettings()
	if err != nil {
		return fme.Config{}, err
	}
	return fme.Config{
		DisplayEnabled:       settings.DisplayEnabled,
		NotificationsEnabled: settings.NotificationsEnabled,
		GeneralWindow:        time.Duration(settings.GeneralPeriod) * time.Minute,
		RoleWindow:           time.Duration(settings.RolePeriod) * time.Minute,
		LeadTime:             time.Duration(settings.NotificationPeriod) * time.Minute,
		Enabled:              schedule.SetFromMask(settings.EnabledMask),
		Language:             settings.Language,
	}, nil
}

// UpdateFMESettings validates and applies a partial update in one transaction.
func (s *SettingsStore) UpdateFMESettings(u model.FMESettingsUpdate) (model.FMESettings, error) {
	values, err := updateValues(u)
	if err != nil {
		return model.FMESettings{}, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return model.FMESettings{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, kv := range values {
		if err := setSetting(tx, kv[0], kv[1]); err != nil {
			return model.FMESettings{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.FMESettings{}, fmt.Errorf("commit settings: %w", err)
	}

	return s.FMESettings()
}

// DisableNotifications switches notifications off and stores the reason shown
// next to the setting.
func (s *SettingsStore) DisableNotifications(help string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := setSetting(tx, KeyNotificationEnabled, "false"); err != nil {
		return err
	}
	if err := setSetting(tx, KeyNotificationHelp, help); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings: %w", err)
	}
	return nil
}

// EnableNotifications switches notifications on and clears the help text.
func (s *SettingsStore) EnableNotifications() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := setSetting(tx, KeyNotificationEnabled, "true"); err != nil {
		return err
	}
	if err := setSetting(tx, KeyNotificationHelp, ""); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings: %w", err)
	}
	return nil
}

func updateValues(u model.FMESettingsUpdate) ([][2]string, error) {
	var values [][2]string

	if u.DisplayEnabled != nil {
		values = append(values, [2]string{KeyDisplayEnabled, strconv.FormatBool(*u.DisplayEnabled)})
	}
	if u.NotificationsEnabled != nil {
		values = append(values, [2]string{KeyNotificationEnabled, strconv.FormatBool(*u.NotificationsEnabled)})
		if *u.NotificationsEnabled {
			values = append(values, [2]string{KeyNotificationHelp, ""})
		}
	}

	periods := []struct {
		key   string
		value *int
	}{
		{KeyGeneralPeriod, u.GeneralPeriod},
		{KeyRolePeriod, u.RolePeriod},
		{KeyNotificationPeriod, u.NotificationPeriod},
	}
	for _, p := range periods {
		if p.value == nil {
			continue
		}
		r := periodRanges[p.key]
		if *p.value < r.min || *p.value > r.max {
			return nil, fmt.Errorf("%w: %s must be between %d and %d", ErrInvalidSetting, p.key, r.min, r.max)
		}
		values = append(values, [2]string{p.key, strconv.Itoa(*p.value)})
	}

	if u.EnabledEvents != nil {
		set := schedule.NewEventSet()
		for _, id := range *u.EnabledEvents {
			e, ok := schedule.Lookup(id)
			if !ok {
				return nil, fmt.Errorf("%w: unknown event %q", ErrInvalidSetting, id)
			}
			set.Add(e)
		}
		values = append(values, [2]string{KeyEnabledEvents, strconv.FormatUint(uint64(set.Mask()), 10)})
	}

	if u.Language != nil {
		if *u.Language == "" {
			return nil, fmt.Errorf("%w: language must not be empty", ErrInvalidSetting)
		}
		values = append(values, [2]string{KeyLanguage, *u.Language})
	}

	return values, nil
}

func parseBool(s string, def bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

func parsePeriod(key, s string) int {
	r := periodRanges[key]
	n, err := strconv.Atoi(s)
	if err != nil || n < r.min || n > r.max {
		return r.def
	}
	return n
}

func parseMask(s string) uint32 {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return schedule.AllMask()
	}
	return uint32(n)
}

func parseLanguage(s string) string {
	if s == "" {
		return "en"
	}
	return s
}
