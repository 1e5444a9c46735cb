package repairs

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/fantasyledger/internal/infra/pgutils"
	"github.com/fastprodman/fantasyledger/internal/repos/repairs"
)

var _ repairs.Repairs = (*repairsRepo)(nil)

type repairsRepo struct{ db *sql.DB }

func New(db *sql.DB) *repairsRepo {
	return &repairsRepo{db: db}
}

func (r *repairsRepo) Insert(tx *sql.Tx, note repairs.Note) error {
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}

	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}

	var before any
	if note.BalanceBefore != nil {
		before = *note.BalanceBefore
	}

	_, err := tx.Exec(`
		INSERT INTO repair_notes (
			id, run_id, ledger_id, action, reason, operator,
			balance_before, balance_after, entries_before, entries_after, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, note.ID, note.RunID, note.LedgerID, note.Action, note.Reason, note.Operator,
		before, note.BalanceAfter, note.EntriesBefore, note.EntriesAfter, note.CreatedAt)
	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return repairs.ErrDuplicateNote
		}

		return fmt.Errorf("insert repair note: %w", err)
	}

	return nil
}
