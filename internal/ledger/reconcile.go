package ledger

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrUnresolvedDuplicate = errors.New("unresolved duplicate ledger")
	ErrKeyMismatch         = errors.New("ledgers belong to different keys")
	ErrNoCandidates        = errors.New("no ledgers to reconcile")
)

// Merge is the outcome of reconciling the live ledgers of one logical key.
type Merge struct {
	Survivor *Ledger
	Retired  []*Ledger
}

// Changed reports whether reconciliation retired anything.
func (m Merge) Changed() bool {
	return len(m.Retired) > 0
}

// Reconciler merges duplicate ledgers created by league key drift.
type Reconciler struct {
	stamp func() Version
}

func NewReconciler(stamp func() Version) *Reconciler {
	return &Reconciler{stamp: stamp}
}

type candidate struct {
	l         *Ledger
	opening   []Entry
	games     []Entry
	canonical bool
}

// Reconcile merges every live ledger stored for the same key. The primary
// is the ledger with the most game entries, ties going to the one stored
// under the canonical encoding; the round-0 set comes wholesale from the
// ledger with the most round-0 entries. A single ledger, or the same ledger
// passed twice, is returned as is.
func (r *Reconciler) Reconcile(ledgers ...*Ledger) (Merge, error) {
	if len(ledgers) == 0 {
		return Merge{}, ErrNoCandidates
	}

	key, err := commonKey(ledgers)
	if err != nil {
		return Merge{}, err
	}

	cands := make([]candidate, 0, len(ledgers))
	seen := make(map[string]struct{}, len(ledgers))

	for _, l := range ledgers {
		id := l.ID.String()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		opening, games := Split(l.Entries)
		cands = append(cands, candidate{
			l:         l,
			opening:   opening,
			games:     games,
			canonical: l.Encoding() == EncodingCanonical,
		})
	}

	if len(cands) == 1 {
		return Merge{Survivor: cands[0].l}, nil
	}

	slices.SortStableFunc(cands, func(a, b candidate) int {
		if len(a.games) != len(b.games) {
			return len(b.games) - len(a.games)
		}

		if a.canonical != b.canonical {
			if a.canonical {
				return -1
			}
			return 1
		}

		return strings.Compare(a.l.ID.String(), b.l.ID.String())
	})

	primary, runnerUp := cands[0], cands[1]
	if len(primary.games) == len(runnerUp.games) && primary.canonical == runnerUp.canonical {
		return Merge{}, fmt.Errorf("%w: %s has %d ledgers with %d game entries and no canonical tiebreak",
			ErrUnresolvedDuplicate, key, len(cands), len(primary.games))
	}

	// Stable sort keeps the primary first among equals.
	openingSrc := primary
	for _, c := range cands[1:] {
		if len(c.opening) > len(openingSrc.opening) {
			openingSrc = c
		}
	}

	survivor := primary.l.Clone()
	survivor.Key = key
	survivor.LeagueKey = string(key.League)
	survivor.SupersededBy = nil
	survivor.Entries = make([]Entry, 0, len(openingSrc.opening)+len(primary.games))
	survivor.Entries = append(survivor.Entries, openingSrc.opening...)
	survivor.Entries = append(survivor.Entries, primary.games...)
	survivor.applyTotals()
	survivor.Version = r.stamp()

	retired := make([]*Ledger, 0, len(cands)-1)
	for _, c := range cands[1:] {
		if survivor.Settlement == nil && c.l.Settlement != nil {
			s := *c.l.Settlement
			survivor.Settlement = &s
		}

		loser := c.l.Clone()
		loser.SupersededBy = &survivor.ID
		retired = append(retired, loser)
	}

	return Merge{Survivor: survivor, Retired: retired}, nil
}

func commonKey(ledgers []*Ledger) (Key, error) {
	var key Key

	for i, l := range ledgers {
		league, _, err := CanonicalLeague(l.LeagueKey)
		if err != nil {
			return Key{}, fmt.Errorf("ledger %s: %w", l.ID, err)
		}

		k := Key{League: league, Participant: l.Key.Participant, Season: l.Key.Season}
		if i == 0 {
			key = k
			continue
		}

		if k != key {
			return Key{}, fmt.Errorf("%w: %s and %s", ErrKeyMismatch, key, k)
		}
	}

	return key, nil
}
