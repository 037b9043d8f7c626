package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/fmewatch/internal/fme"
	"github.com/dukerupert/fmewatch/internal/push"
	"github.com/dukerupert/fmewatch/internal/store"
)

type PushHandler struct {
	pushStore *store.PushStore
	service   *push.Service
	sink      fme.Sink
	logger    *slog.Logger
}

func NewPushHandler(ps *store.PushStore, svc *push.Service, sink fme.Sink, logger *slog.Logger) *PushHandler {
	return &PushHandler{pushStore: ps, service: svc, sink: sink, logger: logger}
}

type subscribeRequest struct {
	Endpoint   string `json:"endpoint"`
	P256dh     string `json:"p256dh"`
	Auth       string `json:"auth"`
	DeviceName string `json:"device_name"`
}

// Subscribe handles POST /api/push/subscribe
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if !h.service.Configured() {
		writeError(w, http.StatusServiceUnavailable, "push notifications are not configured")
		return
	}

	var req subscribeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint, p256dh, and auth are required")
		return
	}

	sub, err := h.pushStore.CreateSubscription(req.Endpoint, req.P256dh, req.Auth, req.DeviceName)
	if err != nil {
		h.logger.Error("create push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

// Unsubscribe handles DELETE /api/push/subscriptions/{id}
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	deleted, err := h.pushStore.DeleteSubscription(id)
	if err != nil {
		h.logger.Error("delete push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetVAPIDKey handles GET /api/push/vapid-key
func (h *PushHandler) GetVAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}

// TestNotification handles POST /api/push/test
func (h *PushHandler) TestNotification(w http.ResponseWriter, r *http.Request) {
	if h.sink.Permission() != fme.PermissionGranted {
		writeError(w, http.StatusServiceUnavailable, "no notification channel is configured")
		return
	}

	err := h.sink.Notify(r.Context(), fme.Notification{
		Title: "Test Notification",
		Body:  "Event notifications are working!",
		Tag:   "test",
	})
	if err != nil {
		h.logger.Error("test notification", "error", err)
		writeError(w, http.StatusBadGateway, "failed to deliver notification")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}
