package enrollments

import (
	"context"
	"fmt"

	"github.com/fastprodman/fantasyledger/internal/ledger"
)

// ListSeason returns every registration of the season, enrolled or not,
// ordered by participant id.
func (r *enrollmentsRepo) ListSeason(ctx context.Context, league ledger.LeagueID, season int) ([]ledger.Enrollment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM enrollments
		WHERE league_id = $1
		  AND season = $2
		ORDER BY participant_id
	`, league, season)
	if err != nil {
		return nil, fmt.Errorf("query enrollments: %w", err)
	}
	defer rows.Close()

	var out []ledger.Enrollment

	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}

		out = append(out, e)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}

	return out, nil
}
