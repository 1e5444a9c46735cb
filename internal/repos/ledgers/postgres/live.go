package ledgers

import (
	"context"
	"fmt"

	"github.com/fastprodman/fantasyledger/internal/ledger"
)

func (r *ledgersRepo) Live(ctx context.Context, participant ledger.ParticipantID, season int) ([]*ledger.Ledger, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM ledgers
		WHERE participant_id = $1
		  AND season = $2
		  AND superseded_by IS NULL
		ORDER BY id
	`, participant, season)
	if err != nil {
		return nil, fmt.Errorf("query live ledgers: %w", err)
	}

	return scanLedgers(rows)
}

// ListSeason returns every live ledger of a season whose league key
// canonicalizes to league.
func (r *ledgersRepo) ListSeason(ctx context.Context, league ledger.LeagueID, season int) ([]*ledger.Ledger, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM ledgers
		WHERE season = $1
		  AND superseded_by IS NULL
		ORDER BY participant_id, id
	`, season)
	if err != nil {
		return nil, fmt.Errorf("query season ledgers: %w", err)
	}

	all, err := scanLedgers(rows)
	if err != nil {
		return nil, err
	}

	out := all[:0]
	for _, l := range all {
		if l.Key.League == league {
			out = append(out, l)
		}
	}

	return out, nil
}
