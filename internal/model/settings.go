package model

import "time"

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FMESettings is the user-facing view of the event settings. Periods are in
// minutes.
type FMESettings struct {
	DisplayEnabled       bool     `json:"display_enabled"`
	NotificationsEnabled bool     `json:"notifications_enabled"`
	GeneralPeriod        int      `json:"general_period"`
	RolePeriod           int      `json:"role_period"`
	NotificationPeriod   int      `json:"notification_period"`
	EnabledMask          uint32   `json:"enabled_mask"`
	EnabledEvents        []string `json:"enabled_events"`
	Language             string   `json:"language"`
	NotificationHelp     string   `json:"notification_help,omitempty"`
}

// FMESettingsUpdate is a partial update; nil fields are left unchanged.
type FMESettingsUpdate struct {
	DisplayEnabled       *bool     `json:"display_enabled"`
	NotificationsEnabled *bool     `json:"notifications_enabled"`
	GeneralPeriod        *int      `json:"general_period"`
	RolePeriod           *int      `json:"role_period"`
	NotificationPeriod   *int      `json:"notification_period"`
	EnabledEvents        *[]string `json:"enabled_events"`
	Language             *string   `json:"language"`
}
