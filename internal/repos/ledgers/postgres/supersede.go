package ledgers

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/fastprodman/fantasyledger/internal/repos/ledgers"
)

// Supersede retires a ledger in favour of survivorID. Rows are never deleted.
func (r *ledgersRepo) Supersede(tx *sql.Tx, loserID, survivorID uuid.UUID) error {
	res, err := tx.Exec(`
		UPDATE ledgers
		SET superseded_by = $2,
		    updated_at = now()
		WHERE id = $1
		  AND superseded_by IS NULL
	`, loserID, survivorID)
	if err != nil {
		return fmt.Errorf("supersede ledger: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("supersede ledger %s: %w", loserID, ledgers.ErrConcurrentWriteConflict)
	}

	return nil
}
