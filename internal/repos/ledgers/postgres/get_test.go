package ledgers

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/fastprodman/fantasyledger/internal/infra/pgtestutil"
	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/repos/ledgers"
)

func TestLedgers_Get_TableDriven(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		seed       func(t *testing.T, db *sql.DB)
		key        ledger.Key
		wantLegacy bool
		wantErr    error
	}{
		{
			name:    "not_found",
			key:     testKey("nobody"),
			wantErr: ledgers.ErrLedgerNotFound,
		},
		{
			name: "legacy_only",
			seed: func(t *testing.T, db *sql.DB) {
				seedRaw(t, db, ` "684CB1C8AF923DA7C7DF51DE" `, "team-1", `[]`)
			},
			key:        testKey("team-1"),
			wantLegacy: true,
		},
		{
			name: "canonical_preferred",
			seed: func(t *testing.T, db *sql.DB) {
				seedRaw(t, db, `ObjectId("684cb1c8af923da7c7df51de")`, "team-1", `[{"round":1,"kind":"bonus_malus","description":"x","amount":"5"}]`)
				seedRaw(t, db, string(testLeague), "team-1", `[]`)
			},
			key: testKey("team-1"),
		},
		{
			name: "other_league_ignored",
			seed: func(t *testing.T, db *sql.DB) {
				seedRaw(t, db, "aaaaaaaaaaaaaaaaaaaaaaaa", "team-1", `[]`)
			},
			key:     testKey("team-1"),
			wantErr: ledgers.ErrLedgerNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			if tt.seed != nil {
				tt.seed(t, db)
			}

			got, err := New(db).Get(t.Context(), tt.key)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("unexpected error: got %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("get: %v", err)
			}

			if got.Key != tt.key {
				t.Fatalf("key: want %s, got %s", tt.key, got.Key)
			}

			if legacy := got.Encoding() == ledger.EncodingLegacy; legacy != tt.wantLegacy {
				t.Fatalf("encoding: got %s (stored %q)", got.Encoding(), got.LeagueKey)
			}
		})
	}
}
