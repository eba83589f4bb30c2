// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// RatingsHandler handles leaderboard requests.
type RatingsHandler struct {
	deps Dependencies
}

// NewRatingsHandler creates a new ratings handler.
func NewRatingsHandler(deps Dependencies) *RatingsHandler {
	return &RatingsHandler{deps: deps}
}

// standingView mirrors one leaderboard row.
type standingView struct {
	Rank               int     `json:"rank"`
	Player             string  `json:"player"`
	Rating             float64 `json:"rating"`
	Deviation          float64 `json:"deviation"`
	Volatility         float64 `json:"volatility"`
	ConservativeRating int64   `json:"conservativeRating"`
}

// HandleGetRatings handles GET /api/ratings requests.
func (h *RatingsHandler) HandleGetRatings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ratings"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	tenant := tenantKey(r)
	if tenant == "" {
		writeError(w, http.StatusUnauthorized, "tenant_required", NewKind(op, ErrTenantRequired))
		return
	}

	standings, err := h.deps.Leaderboard(r.Context(), tenant)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	views := make([]standingView, len(standings))
	for i, st := range standings {
		views[i] = standingView{
			Rank:               st.Rank,
			Player:             st.Player,
			Rating:             st.Rating,
			Deviation:          st.Deviation,
			Volatility:         st.Volatility,
			ConservativeRating: st.Conservative,
		}
	}
	writeJSON(w, http.StatusOK, views)
}
