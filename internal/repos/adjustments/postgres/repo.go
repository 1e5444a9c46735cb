package adjustments

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/repos/adjustments"
)

var _ adjustments.Adjustments = (*adjustmentsRepo)(nil)

type adjustmentsRepo struct{ db *sql.DB }

func New(db *sql.DB) *adjustmentsRepo {
	return &adjustmentsRepo{db: db}
}

// ListActive returns the season's active adjustments as manual deltas.
func (r *adjustmentsRepo) ListActive(ctx context.Context, league ledger.LeagueID, season int) ([]ledger.Delta, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT participant_id, round, description, amount
		FROM manual_adjustments
		WHERE league_id = $1
		  AND season = $2
		  AND active
		ORDER BY created_at, id
	`, league, season)
	if err != nil {
		return nil, fmt.Errorf("query manual adjustments: %w", err)
	}
	defer rows.Close()

	var out []ledger.Delta

	for rows.Next() {
		d := ledger.Delta{Entry: ledger.Entry{Kind: ledger.KindManualAdjustment}}

		err = rows.Scan(&d.Participant, &d.Round, &d.Description, &d.Amount)
		if err != nil {
			return nil, fmt.Errorf("scan manual adjustment: %w", err)
		}

		out = append(out, d)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate manual adjustments: %w", err)
	}

	return out, nil
}
