package enrollments

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/repos/enrollments"
)

var _ enrollments.Enrollments = (*enrollmentsRepo)(nil)

type enrollmentsRepo struct{ db *sql.DB }

func New(db *sql.DB) *enrollmentsRepo {
	return &enrollmentsRepo{db: db}
}

const selectColumns = `
	league_id, participant_id, season, display_name, status,
	membership_fee, fee_paid_upfront, carried_balance, prior_debt,
	legacy_transfers, inactive_from_round`

func scanEnrollment(row interface{ Scan(...any) error }) (ledger.Enrollment, error) {
	var (
		e         ledger.Enrollment
		transfers []byte
	)

	err := row.Scan(
		&e.League, &e.Participant, &e.Season, &e.DisplayName, &e.Status,
		&e.MembershipFee, &e.FeePaidUpfront, &e.CarriedBalance, &e.PriorDebt,
		&transfers, &e.InactiveFromRound,
	)
	if err != nil {
		return ledger.Enrollment{}, err
	}

	err = json.Unmarshal(transfers, &e.LegacyTransfers)
	if err != nil {
		return ledger.Enrollment{}, fmt.Errorf("decode legacy transfers of %s: %w", e.Key, err)
	}

	return e, nil
}
