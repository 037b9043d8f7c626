package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/fmewatch/internal/calendar"
	"github.com/dukerupert/fmewatch/internal/clock"
	"github.com/dukerupert/fmewatch/internal/fme"
)

type FMEHandler struct {
	engine *fme.Engine
	clock  clock.Clock
	logger *slog.Logger
}

func NewFMEHandler(engine *fme.Engine, c clock.Clock, logger *slog.Logger) *FMEHandler {
	return &FMEHandler{engine: engine, clock: c, logger: logger}
}

// Snapshot handles GET /api/fme
func (h *FMEHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// Upcoming handles GET /api/fme/upcoming
func (h *FMEHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	occs := h.engine.Upcoming()
	if occs == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, occs)
}

// Calendar handles GET /api/fme.ics
func (h *FMEHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if h.engine.Table() == nil {
		writeError(w, http.StatusServiceUnavailable, "schedule not loaded")
		return
	}
	body := calendar.Serialize(h.engine.Occurrences(), h.clock.Now())

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="fme.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		h.logger.Warn("write calendar", "error", err)
	}
}

// Clock handles GET /api/clock
func (h *FMEHandler) Clock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, clock.Snapshot(h.clock))
}
