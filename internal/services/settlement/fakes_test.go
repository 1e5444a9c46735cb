package settlement

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/fastprodman/fantasyledger/internal/config"
	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/repos/ledgers"
	"github.com/fastprodman/fantasyledger/internal/repos/repairs"
	"github.com/fastprodman/fantasyledger/internal/scoring"
)

// memLedgers keeps ledgers in memory and behaves like the Postgres
// repository for live lookups and optimistic writes.
type memLedgers struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*ledger.Ledger
	trace []string

	// beforeUpdate may fail an update; n counts update calls from 1.
	beforeUpdate func(n int, l *ledger.Ledger) error
	updates      int
}

func newMemLedgers(seed ...*ledger.Ledger) *memLedgers {
	m := &memLedgers{rows: make(map[uuid.UUID]*ledger.Ledger)}
	for _, l := range seed {
		m.rows[l.ID] = l.Clone()
	}

	return m
}

func (m *memLedgers) record(format string, args ...any) {
	m.trace = append(m.trace, fmt.Sprintf(format, args...))
}

func (m *memLedgers) writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for _, t := range m.trace {
		if !strings.HasPrefix(t, "live") && !strings.HasPrefix(t, "lock") {
			out = append(out, t)
		}
	}

	return out
}

func (m *memLedgers) live(participant ledger.ParticipantID, season int) []*ledger.Ledger {
	var out []*ledger.Ledger

	for _, l := range m.rows {
		if l.SupersededBy == nil && l.Key.Participant == participant && l.Key.Season == season {
			out = append(out, l.Clone())
		}
	}

	slices.SortFunc(out, func(a, b *ledger.Ledger) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	return out
}

func (m *memLedgers) Get(_ context.Context, key ledger.Key) (*ledger.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.live(key.Participant, key.Season) {
		if l.Key.League == key.League {
			return l, nil
		}
	}

	return nil, ledgers.ErrLedgerNotFound
}

func (m *memLedgers) Live(_ context.Context, participant ledger.ParticipantID, season int) ([]*ledger.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("live %s", participant)

	return m.live(participant, season), nil
}

func (m *memLedgers) ListSeason(_ context.Context, league ledger.LeagueID, season int) ([]*ledger.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*ledger.Ledger
	for _, l := range m.rows {
		if l.SupersededBy == nil && l.Key.League == league && l.Key.Season == season {
			out = append(out, l.Clone())
		}
	}

	return out, nil
}

func (m *memLedgers) LockLive(_ *sql.Tx, participant ledger.ParticipantID, season int) ([]*ledger.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("lock %s", participant)

	return m.live(participant, season), nil
}

// tamper edits the stored live ledger for key in place, bypassing the
// write trace.
func (m *memLedgers) tamper(t *testing.T, key ledger.Key, fn func(*ledger.Ledger)) {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.rows {
		if l.SupersededBy == nil && l.Key == key {
			fn(l)
			return
		}
	}

	t.Fatalf("no live ledger for %s", key)
}

func (m *memLedgers) Insert(_ *sql.Tx, l *ledger.Ledger) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := l.Key.Validate()
	if err != nil {
		return err
	}

	for _, other := range m.live(l.Key.Participant, l.Key.Season) {
		if other.LeagueKey == string(l.Key.League) {
			return ledgers.ErrConcurrentWriteConflict
		}
	}

	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}

	l.LeagueKey = string(l.Key.League)
	m.rows[l.ID] = l.Clone()
	m.record("insert %s", l.Key.Participant)

	return nil
}

func (m *memLedgers) Update(_ *sql.Tx, l *ledger.Ledger, expectedVersion string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updates++
	if m.beforeUpdate != nil {
		err := m.beforeUpdate(m.updates, l)
		if err != nil {
			return err
		}
	}

	cur, ok := m.rows[l.ID]
	if !ok || cur.SupersededBy != nil || cur.Version.String() != expectedVersion {
		return ledgers.ErrConcurrentWriteConflict
	}

	l.LeagueKey = string(l.Key.League)
	m.rows[l.ID] = l.Clone()
	m.record("update %s", l.Key.Participant)

	return nil
}

func (m *memLedgers) Supersede(_ *sql.Tx, loserID, survivorID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.rows[loserID]
	if !ok || cur.SupersededBy != nil {
		return ledgers.ErrConcurrentWriteConflict
	}

	id := survivorID
	cur.SupersededBy = &id
	m.record("supersede %s", cur.Key.Participant)

	return nil
}

type fakeEnrollments struct {
	listFn func(league ledger.LeagueID, season int) ([]ledger.Enrollment, error)
}

func (f fakeEnrollments) ListSeason(_ context.Context, league ledger.LeagueID, season int) ([]ledger.Enrollment, error) {
	return f.listFn(league, season)
}

func (f fakeEnrollments) Get(_ context.Context, key ledger.Key) (ledger.Enrollment, error) {
	list, err := f.listFn(key.League, key.Season)
	if err != nil {
		return ledger.Enrollment{}, err
	}

	for _, e := range list {
		if e.Participant == key.Participant {
			return e, nil
		}
	}

	return ledger.Enrollment{}, fmt.Errorf("no enrollment for %s", key)
}

type fakeScores struct {
	linesFn func(league ledger.LeagueID, season int) ([]scoring.ScoreLine, error)
}

func (f fakeScores) SeasonLines(_ context.Context, league ledger.LeagueID, season int) ([]scoring.ScoreLine, error) {
	return f.linesFn(league, season)
}

type fakeAdjustments struct {
	listFn func(league ledger.LeagueID, season int) ([]ledger.Delta, error)
}

func (f fakeAdjustments) ListActive(_ context.Context, league ledger.LeagueID, season int) ([]ledger.Delta, error) {
	if f.listFn == nil {
		return nil, nil
	}

	return f.listFn(league, season)
}

type fakeRepairs struct {
	mu    sync.Mutex
	notes []repairs.Note
}

func (f *fakeRepairs) Insert(_ *sql.Tx, note repairs.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.notes = append(f.notes, note)

	return nil
}

type fakeLeagues struct {
	league *config.League
}

func (f fakeLeagues) Load(_ context.Context, league ledger.LeagueID, season int) (*config.League, error) {
	if f.league.League != league || f.league.Season != season {
		return nil, config.ErrLeagueConfigNotFound
	}

	return f.league, nil
}

func mustLeague(t *testing.T, doc string) *config.League {
	t.Helper()

	lg, err := config.ParseLeague(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse league: %v", err)
	}

	return lg
}
