package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/fmewatch/internal/cooldown"
	"github.com/dukerupert/fmewatch/internal/model"
)

type CooldownHandler struct {
	manager *cooldown.Manager
	now     func() time.Time
	logger  *slog.Logger
}

func NewCooldownHandler(m *cooldown.Manager, now func() time.Time, logger *slog.Logger) *CooldownHandler {
	return &CooldownHandler{manager: m, now: now, logger: logger}
}

type cooldownResponse struct {
	model.Cooldown
	RemainingSeconds int64 `json:"remaining_seconds"`
}

func (h *CooldownHandler) response(c model.Cooldown) cooldownResponse {
	return cooldownResponse{
		Cooldown:         c,
		RemainingSeconds: int64(c.Remaining(h.now()) / time.Second),
	}
}

// List handles GET /api/cooldowns
func (h *CooldownHandler) List(w http.ResponseWriter, r *http.Request) {
	active, err := h.manager.Active()
	if err != nil {
		h.logger.Error("list cooldowns", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list cooldowns")
		return
	}

	out := make([]cooldownResponse, 0, len(active))
	for _, c := range active {
		out = append(out, h.response(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// Mark handles POST /api/cooldowns/{species}
func (h *CooldownHandler) Mark(w http.ResponseWriter, r *http.Request) {
	c, err := h.manager.Mark(r.PathValue("species"))
	if errors.Is(err, cooldown.ErrInvalidSpecies) {
		writeError(w, http.StatusBadRequest, "invalid species")
		return
	}
	if err != nil {
		h.logger.Error("mark cooldown", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start cooldown")
		return
	}
	writeJSON(w, http.StatusCreated, h.response(c))
}

// Clear handles DELETE /api/cooldowns/{species}
func (h *CooldownHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ok, err := h.manager.Clear(r.PathValue("species"))
	if errors.Is(err, cooldown.ErrInvalidSpecies) {
		writeError(w, http.StatusBadRequest, "invalid species")
		return
	}
	if err != nil {
		h.logger.Error("clear cooldown", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear cooldown")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no cooldown for species")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
