// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/glade/internal/adapters/repository"
	"github.com/okian/glade/internal/app"
	"github.com/okian/glade/internal/domain/parse"
)

// ScoresHandler handles score submissions.
type ScoresHandler struct {
	deps Dependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps Dependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

// scoreRequest mirrors the JSON body of POST /api/scores.
type scoreRequest struct {
	Player string `json:"player"`
	Text   string `json:"text"`
}

func (s scoreRequest) validate() error {
	switch {
	case strings.TrimSpace(s.Player) == "":
		return errors.New("missing player")
	case strings.TrimSpace(s.Text) == "":
		return errors.New("missing text")
	}
	return nil
}

// scoreResponse is the acknowledgment for an applied submission.
type scoreResponse struct {
	Round   int64                 `json:"round"`
	Score   int                   `json:"score"`
	Ratings map[string]ratingView `json:"ratings"`
}

// HandlePostScore handles POST /api/scores requests.
func (h *ScoresHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_score"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	tenant := tenantKey(r)
	if tenant == "" {
		writeError(w, http.StatusUnauthorized, "tenant_required", NewKind(op, ErrTenantRequired))
		return
	}

	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	result, err := h.deps.SubmitText(r.Context(), tenant, strings.TrimSpace(req.Player), req.Text)
	if err != nil {
		writeSubmitError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, scoreResponse{
		Round:   result.Round,
		Score:   result.Score,
		Ratings: viewsOf(result.Ratings),
	})
}

// writeSubmitError translates submission failures into HTTP statuses.
func writeSubmitError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, parse.ErrUnparsable),
		errors.Is(err, app.ErrInvalidScore),
		errors.Is(err, app.ErrPlayerRequired):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	case errors.Is(err, app.ErrTenantRequired):
		writeError(w, http.StatusUnauthorized, "tenant_required", Wrap(op, err))
	case errors.Is(err, repository.ErrDuplicateScore),
		errors.Is(err, repository.ErrDuplicateSnapshot):
		writeError(w, http.StatusConflict, "duplicate", Wrap(op, err))
	case errors.Is(err, app.ErrRecalculationInProgress):
		writeError(w, http.StatusServiceUnavailable, "recalculating", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
