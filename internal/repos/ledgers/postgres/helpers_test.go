package ledgers

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/fantasyledger/internal/ledger"
)

const testLeague ledger.LeagueID = "684cb1c8af923da7c7df51de"

func testKey(participant string) ledger.Key {
	return ledger.Key{League: testLeague, Participant: ledger.ParticipantID(participant), Season: 2026}
}

func sampleLedger(key ledger.Key, amounts ...int64) *ledger.Ledger {
	l := &ledger.Ledger{
		Key:       key,
		LeagueKey: string(key.League),
		Version: ledger.Version{
			Algorithm:    ledger.Algorithm,
			ConfigDigest: "abc123",
			StampedAt:    time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		},
	}

	for i, a := range amounts {
		l.Entries = append(l.Entries, ledger.Entry{
			Round:       i + 1,
			Kind:        ledger.KindBonusMalus,
			Description: "Round bonus",
			Amount:      decimal.NewFromInt(a),
		})
	}

	t := ledger.Sum(l.Entries)
	l.Balance, l.Credits, l.Debits, l.LastConsolidatedRound = t.Balance, t.Credits, t.Debits, t.LastRound

	return l
}

// seedRaw stores a row the way legacy writers did, bypassing key checks.
func seedRaw(t *testing.T, db *sql.DB, leagueKey, participant string, entries string) uuid.UUID {
	t.Helper()

	id := uuid.New()

	_, err := db.Exec(`
		INSERT INTO ledgers (id, league_key, participant_id, season, entries)
		VALUES ($1, $2, $3, 2026, $4::jsonb)
	`, id, leagueKey, participant, entries)
	if err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	return id
}

func insertCommitted(t *testing.T, db *sql.DB, repo *ledgersRepo, l *ledger.Ledger) {
	t.Helper()

	tx, err := db.BeginTx(t.Context(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = repo.Insert(tx, l)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	err = tx.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
}
