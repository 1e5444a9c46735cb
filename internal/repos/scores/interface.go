package scores

import (
	"context"

	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/scoring"
)

// Scores reads round performance data. It is written upstream.
type Scores interface {
	SeasonLines(ctx context.Context, league ledger.LeagueID, season int) ([]scoring.ScoreLine, error)
}
