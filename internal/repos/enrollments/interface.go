package enrollments

import (
	"context"
	"errors"

	"github.com/fastprodman/fantasyledger/internal/ledger"
)

var ErrEnrollmentNotFound = errors.New("enrollment not found")

type Enrollments interface {
	ListSeason(ctx context.Context, league ledger.LeagueID, season int) ([]ledger.Enrollment, error)
	Get(ctx context.Context, key ledger.Key) (ledger.Enrollment, error)
}
