package enrollments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/repos/enrollments"
)

func (r *enrollmentsRepo) Get(ctx context.Context, key ledger.Key) (ledger.Enrollment, error) {
	e, err := scanEnrollment(r.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM enrollments
		WHERE league_id = $1
		  AND season = $2
		  AND participant_id = $3
	`, key.League, key.Season, key.Participant))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Enrollment{}, enrollments.ErrEnrollmentNotFound
		}

		return ledger.Enrollment{}, fmt.Errorf("get enrollment: %w", err)
	}

	return e, nil
}
