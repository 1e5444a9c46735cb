package scores

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/fantasyledger/internal/infra/pgtestutil"
)

func TestScores_SeasonLines_InsertionOrder(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	rows := []struct {
		round int
		p     string
		score string
	}{
		{2, "z", "40.5"},
		{1, "b", "71.3"},
		{1, "a", "55"},
	}

	for _, r := range rows {
		_, err := db.Exec(`
			INSERT INTO round_scores (league_id, season, round, participant_id, score)
			VALUES ('684cb1c8af923da7c7df51de', 2026, $1, $2, $3)
		`, r.round, r.p, r.score)
		if err != nil {
			t.Fatalf("seed score: %v", err)
		}
	}

	_, err := db.Exec(`
		INSERT INTO round_scores (league_id, season, round, participant_id, score)
		VALUES ('684cb1c8af923da7c7df51de', 2025, 1, 'a', 10)
	`)
	if err != nil {
		t.Fatalf("seed other season: %v", err)
	}

	got, err := New(db).SeasonLines(t.Context(), "684cb1c8af923da7c7df51de", 2026)
	if err != nil {
		t.Fatalf("season lines: %v", err)
	}

	if len(got) != len(rows) {
		t.Fatalf("want %d lines, got %d", len(rows), len(got))
	}

	for i, r := range rows {
		if got[i].Round != r.round || string(got[i].Participant) != r.p || !got[i].Score.Equal(decimal.RequireFromString(r.score)) {
			t.Fatalf("line %d: want %+v, got %+v", i, r, got[i])
		}
	}
}
