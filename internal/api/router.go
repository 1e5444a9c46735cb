package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter registers the ops endpoints. metrics serves /metrics when set.
func NewRouter(h *HandlerProvider, metrics http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/leagues/{leagueId}/seasons/{season}", func(r chi.Router) {
		r.Get("/participants/{participantId}/ledger", h.GetLedgerHandler)
		r.Post("/repair", h.RepairHandler)
		r.Post("/rounds/{round}/consolidate", h.ConsolidateHandler)
	})

	return r
}
