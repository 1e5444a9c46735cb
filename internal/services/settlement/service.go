// Package settlement runs season-wide consolidation and repair over the
// stored ledgers of a league.
package settlement

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fastprodman/fantasyledger/internal/config"
	"github.com/fastprodman/fantasyledger/internal/infra/metrics"
	"github.com/fastprodman/fantasyledger/internal/infra/pgutils"
	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/repos/adjustments"
	pgadjustments "github.com/fastprodman/fantasyledger/internal/repos/adjustments/postgres"
	"github.com/fastprodman/fantasyledger/internal/repos/enrollments"
	pgenrollments "github.com/fastprodman/fantasyledger/internal/repos/enrollments/postgres"
	"github.com/fastprodman/fantasyledger/internal/repos/ledgers"
	pgledgers "github.com/fastprodman/fantasyledger/internal/repos/ledgers/postgres"
	"github.com/fastprodman/fantasyledger/internal/repos/repairs"
	pgrepairs "github.com/fastprodman/fantasyledger/internal/repos/repairs/postgres"
	"github.com/fastprodman/fantasyledger/internal/repos/scores"
	pgscores "github.com/fastprodman/fantasyledger/internal/repos/scores/postgres"
)

const tracerName = "github.com/fastprodman/fantasyledger/internal/services/settlement"

// Leagues loads the rule set of a league season.
type Leagues interface {
	Load(ctx context.Context, league ledger.LeagueID, season int) (*config.League, error)
}

// Deps are the collaborators of a Service. Optional fields get defaults.
type Deps struct {
	RunTx       pgutils.TxRunner
	Ledgers     ledgers.Ledgers
	Enrollments enrollments.Enrollments
	Scores      scores.Scores
	Adjustments adjustments.Adjustments
	Repairs     repairs.Repairs
	Leagues     Leagues

	Metrics *metrics.Settlement
	Tracer  trace.Tracer
	Logger  *slog.Logger
	Now     func() time.Time

	Concurrency int
	MaxRetries  int
}

type Service struct {
	runTx       pgutils.TxRunner
	ledgers     ledgers.Ledgers
	enrollments enrollments.Enrollments
	scores      scores.Scores
	adjustments adjustments.Adjustments
	repairs     repairs.Repairs
	leagues     Leagues

	metrics *metrics.Settlement
	tracer  trace.Tracer
	log     *slog.Logger
	now     func() time.Time

	concurrency int
	maxRetries  int
}

func New(d Deps) *Service {
	s := &Service{
		runTx:       d.RunTx,
		ledgers:     d.Ledgers,
		enrollments: d.Enrollments,
		scores:      d.Scores,
		adjustments: d.Adjustments,
		repairs:     d.Repairs,
		leagues:     d.Leagues,
		metrics:     d.Metrics,
		tracer:      d.Tracer,
		log:         d.Logger,
		now:         d.Now,
		concurrency: d.Concurrency,
		maxRetries:  d.MaxRetries,
	}

	if s.runTx == nil {
		s.runTx = pgutils.NoTx
	}

	if s.metrics == nil {
		s.metrics = metrics.NewSettlement(nil)
	}

	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}

	if s.log == nil {
		s.log = slog.Default()
	}

	if s.now == nil {
		s.now = time.Now
	}

	if s.concurrency <= 0 {
		s.concurrency = 1
	}

	if s.maxRetries < 0 {
		s.maxRetries = 0
	}

	return s
}

// NewPostgres wires the service to the Postgres repositories.
func NewPostgres(db *sql.DB, leagues Leagues, m *metrics.Settlement, cfg config.SettlementConfig) *Service {
	return New(Deps{
		RunTx:       pgutils.Runner(db),
		Ledgers:     pgledgers.New(db),
		Enrollments: pgenrollments.New(db),
		Scores:      pgscores.New(db),
		Adjustments: pgadjustments.New(db),
		Repairs:     pgrepairs.New(db),
		Leagues:     leagues,
		Metrics:     m,
		Concurrency: cfg.Concurrency,
		MaxRetries:  cfg.MaxRetries,
	})
}

// Ledger returns the stored ledger for key. The league may be given in any
// legacy encoding.
func (s *Service) Ledger(ctx context.Context, key ledger.Key) (*ledger.Ledger, error) {
	league, _, err := ledger.CanonicalLeague(string(key.League))
	if err != nil {
		return nil, fmt.Errorf("get ledger: %w", err)
	}

	key.League = league

	l, err := s.ledgers.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get ledger: %w", err)
	}

	return l, nil
}
