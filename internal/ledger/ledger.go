package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Algorithm identifies the revision of the scoring and consolidation rules.
// Bump it whenever a calculator or the merge order changes.
const Algorithm = "settlement/v4"

var (
	ErrBalanceInvariant  = errors.New("balance invariant violated")
	ErrOrderingInvariant = errors.New("ordering invariant violated")
	ErrInvalidVersion    = errors.New("invalid computation version")
)

// Version is the computation stamp of a ledger.
type Version struct {
	Algorithm    string
	ConfigDigest string
	StampedAt    time.Time
}

// String renders the stamp as algorithm+digest@timestamp.
func (v Version) String() string {
	if v.Algorithm == "" {
		return ""
	}

	return fmt.Sprintf("%s+%s@%s", v.Algorithm, v.ConfigDigest, v.StampedAt.UTC().Format(time.RFC3339Nano))
}

// SameRevision reports whether two stamps were produced by the same rules
// and configuration, regardless of when.
func (v Version) SameRevision(o Version) bool {
	return v.Algorithm == o.Algorithm && v.ConfigDigest == o.ConfigDigest
}

func ParseVersion(s string) (Version, error) {
	if s == "" {
		return Version{}, nil
	}

	head, stamp, ok := strings.Cut(s, "@")
	if !ok {
		return Version{}, fmt.Errorf("parse version %q: %w", s, ErrInvalidVersion)
	}

	algo, digest, ok := strings.Cut(head, "+")
	if !ok || algo == "" {
		return Version{}, fmt.Errorf("parse version %q: %w", s, ErrInvalidVersion)
	}

	at, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return Version{}, fmt.Errorf("parse version %q: %w", s, ErrInvalidVersion)
	}

	return Version{Algorithm: algo, ConfigDigest: digest, StampedAt: at}, nil
}

// Settlement records that a season balance was paid off outside the ledger.
type Settlement struct {
	SettledAt time.Time       `json:"settledAt"`
	Amount    decimal.Decimal `json:"amount"`
	Operator  string          `json:"operator"`
	Note      string          `json:"note,omitempty"`
}

// Ledger is the consolidated record for one participant in one league season.
type Ledger struct {
	ID  uuid.UUID
	Key Key
	// LeagueKey is the league identifier exactly as persisted. It differs
	// from Key.League only for records written by legacy paths.
	LeagueKey string

	Entries               []Entry
	Balance               decimal.Decimal
	Credits               decimal.Decimal
	Debits                decimal.Decimal
	LastConsolidatedRound int
	Version               Version

	Settlement   *Settlement
	SupersededBy *uuid.UUID
	UpdatedAt    time.Time
}

// Encoding reports how the ledger's league key was stored.
func (l *Ledger) Encoding() KeyEncoding {
	_, enc, err := CanonicalLeague(l.LeagueKey)
	if err != nil {
		return EncodingLegacy
	}

	return enc
}

// Totals holds the aggregate sums over a set of entries.
type Totals struct {
	Balance   decimal.Decimal
	Credits   decimal.Decimal
	Debits    decimal.Decimal
	LastRound int
}

func Sum(entries []Entry) Totals {
	var t Totals

	for _, e := range entries {
		t.Balance = t.Balance.Add(e.Amount)

		switch e.Amount.Sign() {
		case 1:
			t.Credits = t.Credits.Add(e.Amount)
		case -1:
			t.Debits = t.Debits.Add(e.Amount)
		}

		if e.Round > t.LastRound {
			t.LastRound = e.Round
		}
	}

	return t
}

func (l *Ledger) applyTotals() {
	t := Sum(l.Entries)
	l.Balance = t.Balance
	l.Credits = t.Credits
	l.Debits = t.Debits
	l.LastConsolidatedRound = t.LastRound
}

// CheckInvariants verifies the stored aggregates and the entry ordering.
func (l *Ledger) CheckInvariants() error {
	return l.CheckInvariantsWithin(decimal.Zero)
}

// CheckInvariantsWithin is CheckInvariants with the stored balance allowed
// to drift from the entry sum by less than tol. Credits, debits and the
// last consolidated round must still match the entries exactly.
func (l *Ledger) CheckInvariantsWithin(tol decimal.Decimal) error {
	t := Sum(l.Entries)

	if drift := l.Balance.Sub(t.Balance).Abs(); drift.IsPositive() && !drift.LessThan(tol) {
		return fmt.Errorf("%w: stored %s, entries sum %s", ErrBalanceInvariant, l.Balance, t.Balance)
	}

	if !l.Credits.Equal(t.Credits) {
		return fmt.Errorf("%w: credits %s, positive entries sum %s", ErrBalanceInvariant, l.Credits, t.Credits)
	}

	if !l.Debits.Equal(t.Debits) {
		return fmt.Errorf("%w: debits %s, negative entries sum %s", ErrBalanceInvariant, l.Debits, t.Debits)
	}

	if l.LastConsolidatedRound != t.LastRound {
		return fmt.Errorf("%w: last round %d, entries reach %d", ErrBalanceInvariant, l.LastConsolidatedRound, t.LastRound)
	}

	for i := 1; i < len(l.Entries); i++ {
		if l.Entries[i].Round < l.Entries[i-1].Round {
			return fmt.Errorf("%w: entry %d round %d after round %d",
				ErrOrderingInvariant, i, l.Entries[i].Round, l.Entries[i-1].Round)
		}
	}

	return nil
}

// Split partitions entries into the round-0 set and the game set.
func Split(entries []Entry) (opening, games []Entry) {
	for _, e := range entries {
		if e.Round == 0 {
			opening = append(opening, e)
		} else {
			games = append(games, e)
		}
	}

	return opening, games
}

// Standing classifies a balance.
type Standing string

const (
	StandingCreditor Standing = "creditor"
	StandingDebtor   Standing = "debtor"
	StandingSettled  Standing = "settled"
)

var standingTolerance = decimal.New(1, -2)

func StandingOf(balance decimal.Decimal) Standing {
	switch {
	case balance.GreaterThan(standingTolerance):
		return StandingCreditor
	case balance.LessThan(standingTolerance.Neg()):
		return StandingDebtor
	default:
		return StandingSettled
	}
}

// Clone returns a deep copy.
func (l *Ledger) Clone() *Ledger {
	c := *l
	c.Entries = append([]Entry(nil), l.Entries...)

	if l.Settlement != nil {
		s := *l.Settlement
		c.Settlement = &s
	}

	if l.SupersededBy != nil {
		id := *l.SupersededBy
		c.SupersededBy = &id
	}

	return &c
}

// SameEntries compares two entry lists position by position.
func SameEntries(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}

	return true
}
