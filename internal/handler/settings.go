package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/fmewatch/internal/fme"
	"github.com/dukerupert/fmewatch/internal/model"
	"github.com/dukerupert/fmewatch/internal/store"
	"github.com/dukerupert/fmewatch/internal/websocket"
)

// Refresher asks the engine for an immediate evaluation.
type Refresher interface {
	Refresh()
}

type SettingsHandler struct {
	settingsStore *store.SettingsStore
	notifier      *fme.Notifier
	refresher     Refresher
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewSettingsHandler(ss *store.SettingsStore, notifier *fme.Notifier, refresher Refresher, hub *websocket.Hub, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settingsStore: ss, notifier: notifier, refresher: refresher, hub: hub, logger: logger}
}

func (h *SettingsHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *SettingsHandler) refresh() {
	if h.refresher != nil {
		h.refresher.Refresh()
	}
}

// GetFME handles GET /api/settings/fme
func (h *SettingsHandler) GetFME(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsStore.FMESettings()
	if err != nil {
		h.logger.Error("get fme settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpdateFME handles PUT /api/settings/fme
func (h *SettingsHandler) UpdateFME(w http.ResponseWriter, r *http.Request) {
	var req model.FMESettingsUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if _, err := h.settingsStore.UpdateFMESettings(req); err != nil {
		if errors.Is(err, store.ErrInvalidSetting) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("update fme settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	// Switching notifications on is the explicit user action that lifts a
	// downgrade. The permission is checked again straight away.
	if req.NotificationsEnabled != nil && *req.NotificationsEnabled {
		h.notifier.Reenable()
		h.notifier.CheckPermission()
	}

	h.respondSettings(w)
}

type permissionResponse struct {
	Permission string `json:"permission"`
	Downgraded bool   `json:"downgraded"`
	Reason     string `json:"reason,omitempty"`
	Sent       int    `json:"sent"`
}

func (h *SettingsHandler) permissionState() permissionResponse {
	down, reason := h.notifier.Downgraded()
	return permissionResponse{
		Permission: h.notifier.Permission().String(),
		Downgraded: down,
		Reason:     string(reason),
		Sent:       h.notifier.Sent(),
	}
}

// GetPermission handles GET /api/notifications/permission
func (h *SettingsHandler) GetPermission(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.permissionState())
}

// EnableNotifications handles POST /api/notifications/enable
func (h *SettingsHandler) EnableNotifications(w http.ResponseWriter, r *http.Request) {
	h.notifier.Reenable()
	if err := h.settingsStore.EnableNotifications(); err != nil {
		h.logger.Error("enable notifications", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	h.notifier.CheckPermission()

	state := h.permissionState()
	if state.Downgraded {
		writeJSON(w, http.StatusConflict, state)
		return
	}

	h.refresh()
	h.broadcast(websocket.NewMessage("settings", "updated", nil))
	writeJSON(w, http.StatusOK, state)
}

func (h *SettingsHandler) respondSettings(w http.ResponseWriter) {
	settings, err := h.settingsStore.FMESettings()
	if err != nil {
		h.logger.Error("get fme settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get settings")
		return
	}

	h.refresh()
	h.broadcast(websocket.NewMessage("settings", "updated", settings))
	writeJSON(w, http.StatusOK, settings)
}
