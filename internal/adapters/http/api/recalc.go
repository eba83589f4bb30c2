// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"

	"github.com/okian/glade/internal/app"
)

// RecalcHandler triggers a full tenant recalculation.
type RecalcHandler struct {
	deps Dependencies
}

// NewRecalcHandler creates a new recalculation handler.
func NewRecalcHandler(deps Dependencies) *RecalcHandler {
	return &RecalcHandler{deps: deps}
}

// HandleRecalculate handles POST /api/recalculate requests.
func (h *RecalcHandler) HandleRecalculate(w http.ResponseWriter, r *http.Request) {
	const op = "api.recalculate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	tenant := tenantKey(r)
	if tenant == "" {
		writeError(w, http.StatusUnauthorized, "tenant_required", NewKind(op, ErrTenantRequired))
		return
	}

	ratings, err := h.deps.Recalculate(r.Context(), tenant)
	if err != nil {
		if errors.Is(err, app.ErrRecalculationInProgress) {
			writeError(w, http.StatusConflict, "recalculating", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, viewsOf(ratings))
}
