// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/glade/internal/adapters/repository"
	"github.com/okian/glade/internal/app"
	"github.com/okian/glade/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// SubmitText parses pasted result text and applies the submission.
	SubmitText(ctx context.Context, tenant, player, text string) (app.SubmitResult, error)

	// Read operations expose ladder data.
	Leaderboard(ctx context.Context, tenant string) ([]repository.Standing, error)
	PlayerHistory(ctx context.Context, tenant, player string) ([]model.RatingSnapshot, error)

	// Recalculate replays the tenant's history and replaces stored state.
	Recalculate(ctx context.Context, tenant string) (map[string]model.PlayerRating, error)
}

// StatsProvider exposes operational counters for the stats endpoint.
type StatsProvider interface {
	Stats() map[string]interface{}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	scoresHandler  *ScoresHandler
	ratingsHandler *RatingsHandler
	historyHandler *HistoryHandler
	recalcHandler  *RecalcHandler

	corsOrigin string
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, corsOrigin string) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		scoresHandler:  NewScoresHandler(deps),
		ratingsHandler: NewRatingsHandler(deps),
		historyHandler: NewHistoryHandler(deps),
		recalcHandler:  NewRecalcHandler(deps),
		corsOrigin:     corsOrigin,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	wrap := func(next http.HandlerFunc, endpoint string) http.HandlerFunc {
		return RequestIDMiddleware(CORSMiddleware(MetricsMiddleware(next, endpoint), s.corsOrigin))
	}

	mux.HandleFunc("/healthz", wrap(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", wrap(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/scores", wrap(s.scoresHandler.HandlePostScore, "scores"))
	mux.HandleFunc("/api/ratings", wrap(s.ratingsHandler.HandleGetRatings, "ratings"))
	mux.HandleFunc("/api/players/", wrap(s.historyHandler.HandleGetHistory, "history"))
	mux.HandleFunc("/api/recalculate", wrap(s.recalcHandler.HandleRecalculate, "recalculate"))
}

// ratingView mirrors the JSON shape of one player's rating state.
type ratingView struct {
	Rating             float64 `json:"rating"`
	Deviation          float64 `json:"deviation"`
	Volatility         float64 `json:"volatility"`
	ConservativeRating int64   `json:"conservativeRating"`
}

func viewOf(r model.PlayerRating) ratingView {
	return ratingView{
		Rating:             r.Rating,
		Deviation:          r.Deviation,
		Volatility:         r.Volatility,
		ConservativeRating: r.Conservative(),
	}
}

func viewsOf(ratings map[string]model.PlayerRating) map[string]ratingView {
	views := make(map[string]ratingView, len(ratings))
	for player, r := range ratings {
		views[player] = viewOf(r)
	}
	return views
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// NewKind tags a sentinel error with the failing operation.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind tags a sentinel plus its cause with the failing operation.
func WrapKind(op string, kind, cause error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, cause)
}

// Wrap tags an error with the failing operation.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
