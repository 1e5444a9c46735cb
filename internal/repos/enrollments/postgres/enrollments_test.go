package enrollments

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/fantasyledger/internal/infra/pgtestutil"
	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/repos/enrollments"
)

const league ledger.LeagueID = "684cb1c8af923da7c7df51de"

func TestEnrollments_ListSeasonAndGet(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	_, err := db.Exec(`
		INSERT INTO enrollments (league_id, participant_id, season, display_name, status,
			membership_fee, fee_paid_upfront, carried_balance, prior_debt, legacy_transfers, inactive_from_round)
		VALUES
			($1, 'b', 2026, 'Bravo', 'enrolled', 180, FALSE, 12.5, 0, '[{"description":"2019 fix","amount":"-3.10"}]', 0),
			($1, 'a', 2026, 'Alpha', 'declined', 0, FALSE, 0, 0, '[]', 0),
			($1, 'c', 2025, 'Old', 'enrolled', 100, TRUE, 0, 0, '[]', 20)
	`, league)
	if err != nil {
		t.Fatalf("seed enrollments: %v", err)
	}

	repo := New(db)

	list, err := repo.ListSeason(t.Context(), league, 2026)
	if err != nil {
		t.Fatalf("list season: %v", err)
	}

	if len(list) != 2 || list[0].Participant != "a" || list[1].Participant != "b" {
		t.Fatalf("unexpected listing: %+v", list)
	}

	want := ledger.Enrollment{
		Key:            ledger.Key{League: league, Participant: "b", Season: 2026},
		DisplayName:    "Bravo",
		Status:         ledger.StatusEnrolled,
		MembershipFee:  decimal.NewFromInt(180),
		CarriedBalance: decimal.RequireFromString("12.5"),
		PriorDebt:      decimal.Zero,
		LegacyTransfers: []ledger.LegacyTransfer{
			{Description: "2019 fix", Amount: decimal.RequireFromString("-3.10")},
		},
	}

	got, err := repo.Get(t.Context(), want.Key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	decimalEqual := cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })
	if diff := cmp.Diff(want, got, decimalEqual); diff != "" {
		t.Fatalf("enrollment mismatch (-want +got):\n%s", diff)
	}

	_, err = repo.Get(t.Context(), ledger.Key{League: league, Participant: "zz", Season: 2026})
	if !errors.Is(err, enrollments.ErrEnrollmentNotFound) {
		t.Fatalf("want ErrEnrollmentNotFound, got %v", err)
	}
}
