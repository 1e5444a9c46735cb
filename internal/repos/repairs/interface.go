package repairs

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrDuplicateNote = errors.New("duplicate repair note")

// Note is the audit record of one ledger write made by a repair run.
type Note struct {
	ID            uuid.UUID
	RunID         uuid.UUID
	LedgerID      uuid.UUID
	Action        string
	Reason        string
	Operator      string
	BalanceBefore *decimal.Decimal
	BalanceAfter  decimal.Decimal
	EntriesBefore int
	EntriesAfter  int
	CreatedAt     time.Time
}

type Repairs interface {
	Insert(tx *sql.Tx, note Note) error
}
