package ledgers

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/fantasyledger/internal/ledger"
)

// LockLive locks every live ledger of the participant's season. Rows are
// locked in id order so concurrent reconcilers cannot deadlock.
func (r *ledgersRepo) LockLive(tx *sql.Tx, participant ledger.ParticipantID, season int) ([]*ledger.Ledger, error) {
	rows, err := tx.Query(`
		SELECT `+selectColumns+`
		FROM ledgers
		WHERE participant_id = $1
		  AND season = $2
		  AND superseded_by IS NULL
		ORDER BY id
		FOR UPDATE
	`, participant, season)
	if err != nil {
		return nil, fmt.Errorf("lock live ledgers: %w", err)
	}

	return scanLedgers(rows)
}
