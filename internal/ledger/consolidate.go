package ledger

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var ErrInvalidDelta = errors.New("invalid delta")

// Consolidator merges deltas and opening entries into ledgers.
type Consolidator struct {
	configDigest string
	now          func() time.Time
}

func NewConsolidator(configDigest string, now func() time.Time) *Consolidator {
	if now == nil {
		now = time.Now
	}

	return &Consolidator{configDigest: configDigest, now: now}
}

// Stamp returns a fresh computation version.
func (c *Consolidator) Stamp() Version {
	return Version{
		Algorithm:    Algorithm,
		ConfigDigest: c.configDigest,
		StampedAt:    c.now().UTC(),
	}
}

// Consolidate builds the ledger for key from every delta of the season and
// the participant's enrollment. Deltas addressed to other participants are
// ignored. The returned ledger has no storage identity.
func (c *Consolidator) Consolidate(key Key, deltas []Delta, enrollment Enrollment) (*Ledger, error) {
	opening := OpeningEntries(enrollment)

	var (
		openingAdjustments []Entry
		games              []Entry
	)

	for i, d := range deltas {
		if d.Participant != key.Participant {
			continue
		}

		err := validateDelta(d)
		if err != nil {
			return nil, fmt.Errorf("delta %d for %s: %w", i, key, err)
		}

		if d.Round == 0 {
			openingAdjustments = append(openingAdjustments, d.Entry)
			continue
		}

		games = append(games, d.Entry)
	}

	slices.SortStableFunc(openingAdjustments, compare)
	slices.SortStableFunc(games, compare)

	entries := make([]Entry, 0, len(opening)+len(openingAdjustments)+len(games))
	entries = append(entries, opening...)
	entries = append(entries, openingAdjustments...)
	entries = append(entries, games...)

	l := &Ledger{
		Key:       key,
		LeagueKey: string(key.League),
		Entries:   entries,
		Version:   c.Stamp(),
	}
	l.applyTotals()

	return l, nil
}

func compare(a, b Entry) int {
	switch {
	case less(a, b):
		return -1
	case less(b, a):
		return 1
	default:
		return 0
	}
}

func validateDelta(d Delta) error {
	if !d.Kind.Valid() {
		return fmt.Errorf("%w: %w %q", ErrInvalidDelta, ErrUnknownKind, d.Kind)
	}

	if d.Round < 0 {
		return fmt.Errorf("%w: negative round %d", ErrInvalidDelta, d.Round)
	}

	if d.Kind.Opening() {
		return fmt.Errorf("%w: %s entries come from the enrollment", ErrInvalidDelta, d.Kind)
	}

	if d.Round == 0 && d.Kind.Calculated() {
		return fmt.Errorf("%w: %s at round 0", ErrInvalidDelta, d.Kind)
	}

	return nil
}
