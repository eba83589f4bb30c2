// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
)

// HistoryHandler serves a player's rating snapshot series.
type HistoryHandler struct {
	deps Dependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps Dependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

// snapshotView mirrors one history row for graphing.
type snapshotView struct {
	Round              int64   `json:"round"`
	Rating             float64 `json:"rating"`
	Deviation          float64 `json:"deviation"`
	ConservativeRating int64   `json:"conservativeRating"`
}

// HandleGetHistory handles GET /api/players/{player}/history requests.
func (h *HistoryHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	tenant := tenantKey(r)
	if tenant == "" {
		writeError(w, http.StatusUnauthorized, "tenant_required", NewKind(op, ErrTenantRequired))
		return
	}

	// Path shape: /api/players/{player}/history
	rest := strings.TrimPrefix(r.URL.Path, "/api/players/")
	player, tail, found := strings.Cut(rest, "/")
	if !found || tail != "history" || player == "" {
		http.NotFound(w, r)
		return
	}

	snaps, err := h.deps.PlayerHistory(r.Context(), tenant, player)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	views := make([]snapshotView, len(snaps))
	for i, snap := range snaps {
		views[i] = snapshotView{
			Round:              snap.Round,
			Rating:             snap.Rating,
			Deviation:          snap.Deviation,
			ConservativeRating: snap.Conservative,
		}
	}
	writeJSON(w, http.StatusOK, views)
}
