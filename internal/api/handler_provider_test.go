package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/fantasyledger/internal/config"
	"github.com/fastprodman/fantasyledger/internal/infra/metrics"
	"github.com/fastprodman/fantasyledger/internal/jobs"
	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/repos/ledgers"
	"github.com/fastprodman/fantasyledger/internal/services/settlement"
)

const league = "684cb1c8af923da7c7df51de"

type fakeSettlement struct {
	ledgerFn func(key ledger.Key) (*ledger.Ledger, error)
	repairFn func(req settlement.RepairRequest) (*settlement.Report, error)
}

func (f fakeSettlement) Ledger(_ context.Context, key ledger.Key) (*ledger.Ledger, error) {
	return f.ledgerFn(key)
}

func (f fakeSettlement) Repair(_ context.Context, req settlement.RepairRequest) (*settlement.Report, error) {
	return f.repairFn(req)
}

type fakeQueue struct {
	got []jobs.ConsolidateRoundArgs
	err error
}

func (f *fakeQueue) Enqueue(_ context.Context, args jobs.ConsolidateRoundArgs) (int64, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}

	f.got = append(f.got, args)

	return int64(len(f.got)), len(f.got) > 1, nil
}

func do(t *testing.T, h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestGetLedgerHandler(t *testing.T) {
	t.Parallel()

	stored := &ledger.Ledger{
		ID:  uuid.MustParse("5d8f8f2e-6b1a-4e7c-9a38-0c4f8c0e9b11"),
		Key: ledger.Key{League: league, Participant: "1001", Season: 2026},
		Entries: []ledger.Entry{
			{Round: 0, Kind: ledger.KindMembershipFee, Description: "membership fee", Amount: decimal.NewFromInt(-50)},
		},
		Balance: decimal.NewFromInt(-50),
		Debits:  decimal.NewFromInt(-50),
	}

	svc := fakeSettlement{ledgerFn: func(key ledger.Key) (*ledger.Ledger, error) {
		if key.Participant == "1001" && key.League == league && key.Season == 2026 {
			return stored, nil
		}

		return nil, fmt.Errorf("get ledger: %w", ledgers.ErrLedgerNotFound)
	}}

	h := NewRouter(NewHandler(svc, &fakeQueue{}), nil)

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{name: "ok", target: "/leagues/" + league + "/seasons/2026/participants/1001/ledger", wantStatus: http.StatusOK},
		{name: "legacy_league_in_path", target: "/leagues/684CB1C8AF923DA7C7DF51DE/seasons/2026/participants/1001/ledger", wantStatus: http.StatusOK},
		{name: "not_found", target: "/leagues/" + league + "/seasons/2026/participants/9999/ledger", wantStatus: http.StatusNotFound},
		{name: "bad_season", target: "/leagues/" + league + "/seasons/zero/participants/1001/ledger", wantStatus: http.StatusBadRequest},
		{name: "negative_season", target: "/leagues/" + league + "/seasons/-1/participants/1001/ledger", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := do(t, h, http.MethodGet, tt.target, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("want %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}

			if tt.wantStatus != http.StatusOK {
				return
			}

			var got ledgerResponse

			err := json.Unmarshal(rec.Body.Bytes(), &got)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}

			if got.Standing != ledger.StandingDebtor || got.Balance != "-50.00" || len(got.Entries) != 1 {
				t.Fatalf("unexpected body: %s", rec.Body.String())
			}
		})
	}
}

func TestRepairHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		operator   string
		svcErr     error
		wantStatus int
		wantReq    *settlement.RepairRequest
	}{
		{
			name:       "dry_run_by_default",
			wantStatus: http.StatusOK,
			wantReq:    &settlement.RepairRequest{League: league, Season: 2026},
		},
		{
			name:       "apply_with_operator",
			query:      "?apply=true&reason=import&participant=1002",
			operator:   "ana",
			wantStatus: http.StatusOK,
			wantReq: &settlement.RepairRequest{
				League: league, Season: 2026, Participant: "1002", Apply: true, Operator: "ana", Reason: "import",
			},
		},
		{name: "bad_apply_flag", query: "?apply=maybe", wantStatus: http.StatusBadRequest},
		{name: "rejected", query: "?apply=true", svcErr: settlement.ErrInvalidRequest, wantStatus: http.StatusBadRequest},
		{name: "unknown_league", svcErr: config.ErrLeagueConfigNotFound, wantStatus: http.StatusNotFound},
		{name: "internal", svcErr: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got *settlement.RepairRequest

			svc := fakeSettlement{repairFn: func(req settlement.RepairRequest) (*settlement.Report, error) {
				got = &req
				if tt.svcErr != nil {
					return nil, fmt.Errorf("repair: %w", tt.svcErr)
				}

				return &settlement.Report{League: req.League, Season: req.Season, Mode: settlement.ModeDryRun}, nil
			}}

			h := NewRouter(NewHandler(svc, &fakeQueue{}), nil)

			header := http.Header{}
			if tt.operator != "" {
				header.Set("X-Operator", tt.operator)
			}

			rec := do(t, h, http.MethodPost, "/leagues/"+league+"/seasons/2026/repair"+tt.query, header)
			if rec.Code != tt.wantStatus {
				t.Fatalf("want %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}

			if tt.wantReq == nil {
				return
			}

			if diff := cmp.Diff(tt.wantReq, got); diff != "" {
				t.Fatalf("request mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConsolidateHandler(t *testing.T) {
	t.Parallel()

	q := &fakeQueue{}
	h := NewRouter(NewHandler(fakeSettlement{}, q), nil)

	target := "/leagues/" + league + "/seasons/2026/rounds/7/consolidate"

	rec := do(t, h, http.MethodPost, target, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("want 202, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, target, nil)
	if !strings.Contains(rec.Body.String(), `"duplicate":true`) {
		t.Fatalf("second enqueue should report a duplicate: %s", rec.Body.String())
	}

	want := []jobs.ConsolidateRoundArgs{
		{League: league, Season: 2026, Round: 7},
		{League: league, Season: 2026, Round: 7},
	}
	if diff := cmp.Diff(want, q.got); diff != "" {
		t.Fatalf("jobs mismatch (-want +got):\n%s", diff)
	}

	rec = do(t, h, http.MethodPost, "/leagues/"+league+"/seasons/2026/rounds/0/consolidate", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("round 0: want 400, got %d", rec.Code)
	}

	failing := NewRouter(NewHandler(fakeSettlement{}, &fakeQueue{err: errors.New("db down")}), nil)

	rec = do(t, failing, http.MethodPost, target, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("enqueue failure: want 500, got %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.NewSettlement(reg)
	m.Conflict()

	h := NewRouter(NewHandler(fakeSettlement{}, &fakeQueue{}), promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("healthz: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "fantasyledger_ledger_write_conflicts_total 1") {
		t.Fatalf("metrics: %d %s", rec.Code, rec.Body.String())
	}
}
