package scores

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/repos/scores"
	"github.com/fastprodman/fantasyledger/internal/scoring"
)

var _ scores.Scores = (*scoresRepo)(nil)

type scoresRepo struct{ db *sql.DB }

func New(db *sql.DB) *scoresRepo {
	return &scoresRepo{db: db}
}

// SeasonLines returns every score of the season in upstream insertion order.
func (r *scoresRepo) SeasonLines(ctx context.Context, league ledger.LeagueID, season int) ([]scoring.ScoreLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT participant_id, round, score
		FROM round_scores
		WHERE league_id = $1
		  AND season = $2
		ORDER BY seq
	`, league, season)
	if err != nil {
		return nil, fmt.Errorf("query round scores: %w", err)
	}
	defer rows.Close()

	var out []scoring.ScoreLine

	for rows.Next() {
		var l scoring.ScoreLine

		err = rows.Scan(&l.Participant, &l.Round, &l.Score)
		if err != nil {
			return nil, fmt.Errorf("scan round score: %w", err)
		}

		out = append(out, l)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate round scores: %w", err)
	}

	return out, nil
}
