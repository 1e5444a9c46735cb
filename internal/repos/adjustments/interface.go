package adjustments

import (
	"context"

	"github.com/fastprodman/fantasyledger/internal/ledger"
)

// Adjustments reads administrative corrections entered by league operators.
type Adjustments interface {
	ListActive(ctx context.Context, league ledger.LeagueID, season int) ([]ledger.Delta, error)
}
