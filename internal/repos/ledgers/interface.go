package ledgers

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/fastprodman/fantasyledger/internal/ledger"
)

var (
	ErrLedgerNotFound          = errors.New("ledger not found")
	ErrConcurrentWriteConflict = errors.New("concurrent write conflict")
)

// Ledgers stores consolidated ledgers. Only rows with no superseded_by are
// live. Lookups by participant and season return every live row whatever
// encoding its league key was written with; callers filter by canonical key.
type Ledgers interface {
	Get(ctx context.Context, key ledger.Key) (*ledger.Ledger, error)
	Live(ctx context.Context, participant ledger.ParticipantID, season int) ([]*ledger.Ledger, error)
	ListSeason(ctx context.Context, league ledger.LeagueID, season int) ([]*ledger.Ledger, error)
	LockLive(tx *sql.Tx, participant ledger.ParticipantID, season int) ([]*ledger.Ledger, error)
	Insert(tx *sql.Tx, l *ledger.Ledger) error
	Update(tx *sql.Tx, l *ledger.Ledger, expectedVersion string) error
	Supersede(tx *sql.Tx, loserID, survivorID uuid.UUID) error
}
