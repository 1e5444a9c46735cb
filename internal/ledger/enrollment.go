package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type EnrollmentStatus string

const (
	StatusEnrolled EnrollmentStatus = "enrolled"
	StatusDeclined EnrollmentStatus = "declined"
	StatusPending  EnrollmentStatus = "pending"
)

// LegacyTransfer is a historical correction carried into the season opening.
type LegacyTransfer struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Enrollment is the season registration of a participant. It is owned by
// the league store and only read here.
type Enrollment struct {
	Key
	DisplayName string
	Status      EnrollmentStatus

	MembershipFee  decimal.Decimal
	FeePaidUpfront bool
	// CarriedBalance is the prior season's closing balance moved in.
	CarriedBalance decimal.Decimal
	// PriorDebt is an outstanding amount owed from the prior season,
	// positive when the participant owes.
	PriorDebt       decimal.Decimal
	LegacyTransfers []LegacyTransfer

	// InactiveFromRound is the first round the participant no longer
	// plays in; zero means active all season.
	InactiveFromRound int
}

// ActiveIn reports whether the participant takes part in the given round.
func (e Enrollment) ActiveIn(round int) bool {
	if e.Status != StatusEnrolled {
		return false
	}

	return e.InactiveFromRound == 0 || round < e.InactiveFromRound
}

// OpeningEntries builds the round-0 entries in their fixed order:
// membership fee, carried balance, legacy transfers.
func OpeningEntries(e Enrollment) []Entry {
	if e.Status != StatusEnrolled {
		return nil
	}

	var out []Entry

	if e.MembershipFee.IsPositive() && !e.FeePaidUpfront {
		out = append(out, Entry{
			Kind:        KindMembershipFee,
			Description: fmt.Sprintf("Membership fee %d", e.Season),
			Amount:      e.MembershipFee.Neg(),
		})
	}

	if !e.CarriedBalance.IsZero() {
		out = append(out, Entry{
			Kind:        KindCarriedBalance,
			Description: fmt.Sprintf("Balance carried from %d", e.Season-1),
			Amount:      e.CarriedBalance,
		})
	}

	if e.PriorDebt.IsPositive() {
		out = append(out, Entry{
			Kind:        KindCarriedBalance,
			Description: fmt.Sprintf("Debt carried from %d", e.Season-1),
			Amount:      e.PriorDebt.Neg(),
		})
	}

	for _, lt := range e.LegacyTransfers {
		if lt.Amount.IsZero() {
			continue
		}

		out = append(out, Entry{
			Kind:        KindLegacyTransfer,
			Description: lt.Description,
			Amount:      lt.Amount,
		})
	}

	return out
}
