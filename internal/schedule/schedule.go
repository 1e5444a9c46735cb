// Package schedule generates the head-to-head fixtures consumed by the
// round-robin and bracket calculators. Every generator is pure: the same
// participants and round always yield the same fixtures.
package schedule

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/fastprodman/fantasyledger/internal/ledger"
)

// Participant is the minimum a generator needs to order the field.
type Participant struct {
	ID          ledger.ParticipantID
	DisplayName string
}

// Fixture is an ephemeral pairing resolved in a calendar round.
type Fixture struct {
	Round int
	A     ledger.ParticipantID
	B     ledger.ParticipantID
}

// Scheduler names a pairing algorithm.
type Scheduler string

const (
	SchedulerRotation Scheduler = "rotation"
	SchedulerCircle   Scheduler = "circle"
)

var ErrUnknownScheduler = errors.New("unknown scheduler")

func ParseScheduler(s string) (Scheduler, error) {
	switch Scheduler(strings.ToLower(strings.TrimSpace(s))) {
	case "", SchedulerRotation:
		return SchedulerRotation, nil
	case SchedulerCircle:
		return SchedulerCircle, nil
	default:
		return "", fmt.Errorf("parse scheduler %q: %w", s, ErrUnknownScheduler)
	}
}

// Canonical sorts participants by display name, then id. The input is not
// modified.
func Canonical(participants []Participant) []Participant {
	out := slices.Clone(participants)
	slices.SortStableFunc(out, func(a, b Participant) int {
		if c := strings.Compare(strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName)); c != 0 {
			return c
		}

		return strings.Compare(string(a.ID), string(b.ID))
	})

	return out
}

// Pairings returns the round's settlement matchups under the named
// scheduler. Each fixture settles A against B, and every participant is
// the A side of at most one fixture. relRound starts at 1; calendar is only
// used to tag the fixtures.
func Pairings(s Scheduler, ordered []Participant, relRound, calendar int) []Fixture {
	if s != SchedulerCircle {
		return Rotation(ordered, relRound, calendar)
	}

	games := Circle(ordered, relRound, calendar)
	out := make([]Fixture, 0, 2*len(games))

	for _, g := range games {
		out = append(out, g, Fixture{Round: g.Round, A: g.B, B: g.A})
	}

	return out
}

// Rotation gives every position i a matchup against position (i+r) mod N,
// read from i's side. The relation is directed: i may face j while j faces
// someone else, so a participant can be the opponent of several others in
// the same round. Only self pairings are skipped, which happens for every
// position when r is a multiple of N.
func Rotation(ordered []Participant, relRound, calendar int) []Fixture {
	n := len(ordered)
	if n < 2 || relRound < 1 {
		return nil
	}

	fixtures := make([]Fixture, 0, n)

	for i := 0; i < n; i++ {
		j := (i + relRound) % n
		if j == i {
			continue
		}

		fixtures = append(fixtures, Fixture{Round: calendar, A: ordered[i].ID, B: ordered[j].ID})
	}

	return fixtures
}

// Circle is the classic circle method: the first participant stays fixed
// while the rest rotate one step per round. Every pair meets exactly once
// per cycle of N-1 rounds (N rounded up to even; the odd one out rests).
func Circle(ordered []Participant, relRound, calendar int) []Fixture {
	if len(ordered) < 2 || relRound < 1 {
		return nil
	}

	slots := make([]*Participant, 0, len(ordered)+1)
	for i := range ordered {
		slots = append(slots, &ordered[i])
	}

	if len(slots)%2 == 1 {
		slots = append(slots, nil)
	}

	n := len(slots)
	shift := (relRound - 1) % (n - 1)

	// Position 0 is fixed; positions 1..n-1 rotate right by shift.
	arranged := make([]*Participant, n)
	arranged[0] = slots[0]
	for k := 1; k < n; k++ {
		arranged[1+(k-1+shift)%(n-1)] = slots[k]
	}

	fixtures := make([]Fixture, 0, n/2)
	for i := 0; i < n/2; i++ {
		a, b := arranged[i], arranged[n-1-i]
		if a == nil || b == nil {
			continue
		}

		fixtures = append(fixtures, Fixture{Round: calendar, A: a.ID, B: b.ID})
	}

	return fixtures
}
