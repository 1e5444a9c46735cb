package ledgers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/repos/ledgers"
)

var _ ledgers.Ledgers = (*ledgersRepo)(nil)

type ledgersRepo struct{ db *sql.DB }

func New(db *sql.DB) *ledgersRepo {
	return &ledgersRepo{db: db}
}

const selectColumns = `
	id, league_key, participant_id, season, entries,
	consolidated_balance, consolidated_credits, consolidated_debits,
	last_consolidated_round, computation_version, settlement, superseded_by, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanLedger(row scanner) (*ledger.Ledger, error) {
	var (
		l          ledger.Ledger
		entries    []byte
		settlement []byte
		version    string
		superseded uuid.NullUUID
	)

	err := row.Scan(
		&l.ID, &l.LeagueKey, &l.Key.Participant, &l.Key.Season, &entries,
		&l.Balance, &l.Credits, &l.Debits,
		&l.LastConsolidatedRound, &version, &settlement, &superseded, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Legacy rows keep their raw league key; Key carries the canonical form
	// whenever it can be derived.
	league, _, err := ledger.CanonicalLeague(l.LeagueKey)
	if err != nil {
		league = ledger.LeagueID(l.LeagueKey)
	}
	l.Key.League = league

	err = json.Unmarshal(entries, &l.Entries)
	if err != nil {
		return nil, fmt.Errorf("decode entries of %s: %w", l.ID, err)
	}

	if len(settlement) > 0 {
		l.Settlement = new(ledger.Settlement)

		err = json.Unmarshal(settlement, l.Settlement)
		if err != nil {
			return nil, fmt.Errorf("decode settlement of %s: %w", l.ID, err)
		}
	}

	l.Version, err = ledger.ParseVersion(version)
	if err != nil {
		return nil, fmt.Errorf("ledger %s: %w", l.ID, err)
	}

	if superseded.Valid {
		id := superseded.UUID
		l.SupersededBy = &id
	}

	return &l, nil
}

func scanLedgers(rows *sql.Rows) ([]*ledger.Ledger, error) {
	defer rows.Close()

	var out []*ledger.Ledger

	for rows.Next() {
		l, err := scanLedger(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}

		out = append(out, l)
	}

	err := rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate ledgers: %w", err)
	}

	return out, nil
}

// row holds the encoded write-side values of a ledger.
type row struct {
	entries    []byte
	settlement any
	balance    decimal.Decimal
	credits    decimal.Decimal
	debits     decimal.Decimal
	version    string
	updatedAt  time.Time
}

func encode(l *ledger.Ledger) (row, error) {
	entries := l.Entries
	if entries == nil {
		entries = []ledger.Entry{}
	}

	rawEntries, err := json.Marshal(entries)
	if err != nil {
		return row{}, fmt.Errorf("encode entries: %w", err)
	}

	var rawSettlement any
	if l.Settlement != nil {
		raw, err := json.Marshal(l.Settlement)
		if err != nil {
			return row{}, fmt.Errorf("encode settlement: %w", err)
		}

		rawSettlement = raw
	}

	updatedAt := l.Version.StampedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	return row{
		entries:    rawEntries,
		settlement: rawSettlement,
		balance:    l.Balance,
		credits:    l.Credits,
		debits:     l.Debits,
		version:    l.Version.String(),
		updatedAt:  updatedAt,
	}, nil
}
