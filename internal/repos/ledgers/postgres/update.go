package ledgers

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/fantasyledger/internal/infra/pgutils"
	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/repos/ledgers"
)

// Update overwrites a live ledger if its stored computation version is
// still expectedVersion. The league key is rewritten in canonical form.
func (r *ledgersRepo) Update(tx *sql.Tx, l *ledger.Ledger, expectedVersion string) error {
	err := l.Key.Validate()
	if err != nil {
		return fmt.Errorf("update ledger: %w", err)
	}

	enc, err := encode(l)
	if err != nil {
		return fmt.Errorf("update ledger: %w", err)
	}

	res, err := tx.Exec(`
		UPDATE ledgers
		SET league_key = $2,
		    entries = $3,
		    consolidated_balance = $4,
		    consolidated_credits = $5,
		    consolidated_debits = $6,
		    last_consolidated_round = $7,
		    computation_version = $8,
		    settlement = $9,
		    updated_at = $10
		WHERE id = $1
		  AND computation_version = $11
		  AND superseded_by IS NULL
	`, l.ID, string(l.Key.League), enc.entries,
		enc.balance, enc.credits, enc.debits,
		l.LastConsolidatedRound, enc.version, enc.settlement, enc.updatedAt,
		expectedVersion)
	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return fmt.Errorf("update ledger %s: %w", l.Key, ledgers.ErrConcurrentWriteConflict)
		}

		return fmt.Errorf("update ledger: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("update ledger %s: %w", l.Key, ledgers.ErrConcurrentWriteConflict)
	}

	l.LeagueKey = string(l.Key.League)
	l.UpdatedAt = enc.updatedAt

	return nil
}
