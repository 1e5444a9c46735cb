package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/fantasyledger/internal/config"
	"github.com/fastprodman/fantasyledger/internal/jobs"
	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/repos/ledgers"
	"github.com/fastprodman/fantasyledger/internal/services/settlement"
)

// Settlement is the part of the settlement service the API serves.
type Settlement interface {
	Ledger(ctx context.Context, key ledger.Key) (*ledger.Ledger, error)
	Repair(ctx context.Context, req settlement.RepairRequest) (*settlement.Report, error)
}

// Enqueuer schedules background consolidation.
type Enqueuer interface {
	Enqueue(ctx context.Context, args jobs.ConsolidateRoundArgs) (id int64, duplicate bool, err error)
}

// HandlerProvider exposes the settlement service over HTTP.
type HandlerProvider struct {
	svc   Settlement
	queue Enqueuer
}

func NewHandler(svc Settlement, queue Enqueuer) *HandlerProvider {
	return &HandlerProvider{svc: svc, queue: queue}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseLeague(r *http.Request) (ledger.LeagueID, error) {
	id, _, err := ledger.CanonicalLeague(chi.URLParam(r, "leagueId"))
	if err != nil {
		return "", fmt.Errorf("invalid leagueId: %w", err)
	}

	return id, nil
}

func parsePositive(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}

	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", name)
	}

	return n, nil
}

type ledgerResponse struct {
	ID                    uuid.UUID          `json:"id"`
	League                ledger.LeagueID    `json:"league"`
	Participant           string             `json:"participant"`
	Season                int                `json:"season"`
	Entries               []ledger.Entry     `json:"entries"`
	Balance               string             `json:"balance"`
	Credits               string             `json:"credits"`
	Debits                string             `json:"debits"`
	Standing              ledger.Standing    `json:"standing"`
	LastConsolidatedRound int                `json:"lastConsolidatedRound"`
	ComputationVersion    string             `json:"computationVersion"`
	Settlement            *ledger.Settlement `json:"settlement,omitempty"`
	UpdatedAt             time.Time          `json:"updatedAt"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toLedgerResponse(l *ledger.Ledger) ledgerResponse {
	entries := l.Entries
	if entries == nil {
		entries = []ledger.Entry{}
	}

	return ledgerResponse{
		ID:                    l.ID,
		League:                l.Key.League,
		Participant:           string(l.Key.Participant),
		Season:                l.Key.Season,
		Entries:               entries,
		Balance:               money(l.Balance),
		Credits:               money(l.Credits),
		Debits:                money(l.Debits),
		Standing:              ledger.StandingOf(l.Balance),
		LastConsolidatedRound: l.LastConsolidatedRound,
		ComputationVersion:    l.Version.String(),
		Settlement:            l.Settlement,
		UpdatedAt:             l.UpdatedAt,
	}
}

// --- Handlers ---

// GetLedgerHandler handles
// GET /leagues/{leagueId}/seasons/{season}/participants/{participantId}/ledger
func (h *HandlerProvider) GetLedgerHandler(w http.ResponseWriter, r *http.Request) {
	league, err := parseLeague(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid leagueId in path")
		return
	}

	season, err := parsePositive(r, "season")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid season in path")
		return
	}

	participant := strings.TrimSpace(chi.URLParam(r, "participantId"))
	if participant == "" {
		writeError(w, http.StatusBadRequest, "invalid participantId in path")
		return
	}

	key := ledger.Key{League: league, Participant: ledger.ParticipantID(participant), Season: season}

	l, err := h.svc.Ledger(r.Context(), key)
	if err != nil {
		if errors.Is(err, ledgers.ErrLedgerNotFound) {
			writeError(w, http.StatusNotFound, "ledger not found")
			return
		}

		slog.ErrorContext(r.Context(), "get ledger", "key", key.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	writeJSON(w, http.StatusOK, toLedgerResponse(l))
}

// RepairHandler handles POST /leagues/{leagueId}/seasons/{season}/repair.
// Without ?apply=true the run is a dry run.
func (h *HandlerProvider) RepairHandler(w http.ResponseWriter, r *http.Request) {
	league, err := parseLeague(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid leagueId in path")
		return
	}

	season, err := parsePositive(r, "season")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid season in path")
		return
	}

	apply := false

	if raw := r.URL.Query().Get("apply"); raw != "" {
		apply, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid apply flag")
			return
		}
	}

	req := settlement.RepairRequest{
		League:      league,
		Season:      season,
		Participant: ledger.ParticipantID(r.URL.Query().Get("participant")),
		Apply:       apply,
		Operator:    strings.TrimSpace(r.Header.Get("X-Operator")),
		Reason:      r.URL.Query().Get("reason"),
	}

	rep, err := h.svc.Repair(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, settlement.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, config.ErrLeagueConfigNotFound):
			writeError(w, http.StatusNotFound, "league config not found")
		default:
			slog.ErrorContext(r.Context(), "repair", "league", string(league), "season", season, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}

		return
	}

	writeJSON(w, http.StatusOK, rep)
}

// ConsolidateHandler handles
// POST /leagues/{leagueId}/seasons/{season}/rounds/{round}/consolidate
func (h *HandlerProvider) ConsolidateHandler(w http.ResponseWriter, r *http.Request) {
	league, err := parseLeague(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid leagueId in path")
		return
	}

	season, err := parsePositive(r, "season")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid season in path")
		return
	}

	round, err := parsePositive(r, "round")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid round in path")
		return
	}

	id, dup, err := h.queue.Enqueue(r.Context(), jobs.ConsolidateRoundArgs{League: league, Season: season, Round: round})
	if err != nil {
		slog.ErrorContext(r.Context(), "enqueue consolidation", "league", string(league), "season", season, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobId": id, "duplicate": dup})
}
