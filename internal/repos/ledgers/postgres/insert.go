package ledgers

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/fastprodman/fantasyledger/internal/infra/pgutils"
	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/repos/ledgers"
)

// Insert writes a new live ledger under its canonical key. A live ledger
// already stored under the same key is a concurrent write.
func (r *ledgersRepo) Insert(tx *sql.Tx, l *ledger.Ledger) error {
	err := l.Key.Validate()
	if err != nil {
		return fmt.Errorf("insert ledger: %w", err)
	}

	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}

	enc, err := encode(l)
	if err != nil {
		return fmt.Errorf("insert ledger: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO ledgers (
			id, league_key, participant_id, season, entries,
			consolidated_balance, consolidated_credits, consolidated_debits,
			last_consolidated_round, computation_version, settlement, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, l.ID, string(l.Key.League), l.Key.Participant, l.Key.Season, enc.entries,
		enc.balance, enc.credits, enc.debits,
		l.LastConsolidatedRound, enc.version, enc.settlement, enc.updatedAt)
	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return fmt.Errorf("insert ledger %s: %w", l.Key, ledgers.ErrConcurrentWriteConflict)
		}

		return fmt.Errorf("insert ledger: %w", err)
	}

	l.LeagueKey = string(l.Key.League)
	l.UpdatedAt = enc.updatedAt

	return nil
}
