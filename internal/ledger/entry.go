package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind tags the origin of a ledger entry.
type Kind string

const (
	KindMembershipFee    Kind = "membership_fee"
	KindCarriedBalance   Kind = "carried_balance"
	KindLegacyTransfer   Kind = "legacy_transfer"
	KindBonusMalus       Kind = "bonus_malus"
	KindRoundRobin       Kind = "round_robin"
	KindSeasonExtreme    Kind = "season_extreme"
	KindBracket          Kind = "bracket"
	KindManualAdjustment Kind = "manual_adjustment"
)

var ErrUnknownKind = errors.New("unknown entry kind")

// priority orders kinds inside a single round. Opening kinds come first so
// that round 0 keeps fee, carried balance, legacy order.
var priority = map[Kind]int{
	KindMembershipFee:    0,
	KindCarriedBalance:   1,
	KindLegacyTransfer:   2,
	KindBonusMalus:       3,
	KindRoundRobin:       4,
	KindSeasonExtreme:    5,
	KindBracket:          6,
	KindManualAdjustment: 7,
}

func (k Kind) Valid() bool {
	_, ok := priority[k]
	return ok
}

// Opening reports whether the kind belongs to the season-opening (round 0) set.
func (k Kind) Opening() bool {
	return k == KindMembershipFee || k == KindCarriedBalance || k == KindLegacyTransfer
}

// Calculated reports whether the kind is produced by a scoring calculator.
func (k Kind) Calculated() bool {
	switch k {
	case KindBonusMalus, KindRoundRobin, KindSeasonExtreme, KindBracket:
		return true
	default:
		return false
	}
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("parse kind %q: %w", s, ErrUnknownKind)
	}

	return k, nil
}

// Flags are reporting tags; they never take part in balance computation.
type Flags struct {
	TopExtreme    bool `json:"isTopExtreme,omitempty"`
	BottomExtreme bool `json:"isBottomExtreme,omitempty"`
	Rank          int  `json:"rank,omitempty"`
}

// Entry is one line of a ledger.
type Entry struct {
	Round       int             `json:"round"`
	Kind        Kind            `json:"kind"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Flags       Flags           `json:"flags,omitzero"`
}

// Equal compares entries by value; amounts compare numerically.
func (e Entry) Equal(o Entry) bool {
	return e.Round == o.Round &&
		e.Kind == o.Kind &&
		e.Description == o.Description &&
		e.Amount.Equal(o.Amount) &&
		e.Flags == o.Flags
}

// less is the total order used for every ledger: round, kind priority,
// then description, amount and rank so that concurrent producers never
// influence the final layout.
func less(a, b Entry) bool {
	if a.Round != b.Round {
		return a.Round < b.Round
	}

	if pa, pb := priority[a.Kind], priority[b.Kind]; pa != pb {
		return pa < pb
	}

	if a.Description != b.Description {
		return a.Description < b.Description
	}

	if c := a.Amount.Cmp(b.Amount); c != 0 {
		return c < 0
	}

	return a.Flags.Rank < b.Flags.Rank
}

// Delta is a proposed adjustment for one participant, not yet merged.
type Delta struct {
	Participant ParticipantID
	Entry
}
