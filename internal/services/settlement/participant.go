package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fastprodman/fantasyledger/internal/infra/logging"
	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/repos/ledgers"
	"github.com/fastprodman/fantasyledger/internal/repos/repairs"
)

// equalTolerance bounds stored balance drift that is still reported as
// unchanged when the entries match. It applies to the balance alone.
var equalTolerance = decimal.New(1, -2)

// plan is what a run intends to do with one participant.
type plan struct {
	report ParticipantReport
	// stored is the live ledger kept as survivor; nil when none exists.
	stored  *ledger.Ledger
	next    *ledger.Ledger
	retired []*ledger.Ledger
}

func (s *Service) settleWithRetry(ctx context.Context, rs *runState, e ledger.Enrollment) ParticipantReport {
	ctx, span := s.tracer.Start(ctx, "settlement.participant", trace.WithAttributes(
		attribute.String("participant", string(e.Participant)),
	))
	defer span.End()

	log := s.log.With(logging.Key(e.Key), slog.String("run_id", rs.id.String()))

	// A retry re-reads and relocks the ledgers only. Deltas come from the
	// season inputs loaded once at the start of the run, which nothing in
	// the run writes to.
	for attempt := 0; ; attempt++ {
		pr, err := s.settle(ctx, rs, e)
		if err == nil {
			s.record(rs, pr)
			return pr
		}

		if errors.Is(err, ledgers.ErrConcurrentWriteConflict) && attempt < s.maxRetries {
			s.metrics.Conflict()
			log.WarnContext(ctx, "ledger write conflict, retrying", slog.Int("attempt", attempt+1), logging.Err(err))

			continue
		}

		span.RecordError(err)

		switch {
		case errors.Is(err, ledger.ErrUnresolvedDuplicate):
			pr.Action = ActionUnresolved
			log.WarnContext(ctx, "duplicate ledgers left unresolved", logging.Err(err))
		default:
			pr.Action = ActionFailed
			span.SetStatus(codes.Error, "settle participant")
			log.ErrorContext(ctx, "settle participant", logging.Err(err))
		}

		pr.Key = e.Key
		pr.DisplayName = e.DisplayName
		pr.Error = err.Error()
		s.record(rs, pr)

		return pr
	}
}

func (s *Service) record(rs *runState, pr ParticipantReport) {
	s.metrics.Action(string(rs.mode), string(pr.Action))

	if pr.InvariantViolation {
		s.metrics.InvariantViolation()
	}
}

// settle plans one participant from its live ledgers and, unless the run
// is a dry run, writes the plan in the same transaction that locked them.
func (s *Service) settle(ctx context.Context, rs *runState, e ledger.Enrollment) (ParticipantReport, error) {
	expected, err := rs.consolidator.Consolidate(e.Key, rs.deltas[e.Participant], e)
	if err != nil {
		return ParticipantReport{}, fmt.Errorf("consolidate: %w", err)
	}

	if !rs.mode.writes() {
		live, err := s.ledgers.Live(ctx, e.Participant, e.Season)
		if err != nil {
			return ParticipantReport{}, fmt.Errorf("read live ledgers: %w", err)
		}

		p, err := s.plan(rs, e, live, expected)

		return p.report, err
	}

	var pr ParticipantReport

	err = s.runTx(ctx, func(tx *sql.Tx) error {
		live, err := s.ledgers.LockLive(tx, e.Participant, e.Season)
		if err != nil {
			return fmt.Errorf("lock live ledgers: %w", err)
		}

		p, err := s.plan(rs, e, live, expected)
		pr = p.report
		if err != nil {
			return err
		}

		err = s.write(tx, rs, p)
		if err != nil {
			return err
		}

		pr.LedgerID = p.next.ID

		return nil
	})

	return pr, err
}

func (s *Service) plan(rs *runState, e ledger.Enrollment, live []*ledger.Ledger, expected *ledger.Ledger) (plan, error) {
	p := plan{
		report: ParticipantReport{
			Key:          e.Key,
			DisplayName:  e.DisplayName,
			BalanceAfter: expected.Balance,
			EntriesAfter: len(expected.Entries),
			Standing:     ledger.StandingOf(expected.Balance),
		},
		next: expected,
	}

	var candidates []*ledger.Ledger
	for _, l := range live {
		if l.Key.League == e.League {
			candidates = append(candidates, l)
		}
	}

	if len(candidates) == 0 {
		p.report.Action = ActionCreated
		p.report.Added = expected.Entries

		return p, nil
	}

	merge, err := rs.reconciler.Reconcile(candidates...)
	if err != nil {
		return p, fmt.Errorf("reconcile: %w", err)
	}

	for _, c := range candidates {
		if c.ID == merge.Survivor.ID {
			p.stored = c
		}
	}

	p.retired = merge.Retired

	stored := p.stored
	before := stored.Balance
	p.report.LedgerID = stored.ID
	p.report.BalanceBefore = &before
	p.report.EntriesBefore = len(stored.Entries)

	for _, r := range merge.Retired {
		p.report.Retired = append(p.report.Retired, r.ID)
	}

	diff := ledger.DiffEntries(stored.Entries, expected.Entries)
	p.report.Added, p.report.Removed = diff.Added, diff.Removed

	same := ledger.SameEntries(stored.Entries, expected.Entries)

	tol := decimal.Zero
	if same {
		tol = equalTolerance
	}

	violation := stored.CheckInvariantsWithin(tol)
	p.report.InvariantViolation = violation != nil
	p.report.Restamped = !stored.Version.SameRevision(expected.Version)

	next := expected.Clone()
	next.ID = stored.ID
	next.Settlement = merge.Survivor.Settlement
	p.next = next

	switch {
	case merge.Changed():
		p.report.Action = ActionReconciled
	case !same || violation != nil || p.report.Restamped:
		p.report.Action = ActionCorrected
	default:
		p.report.Action = ActionUnchanged
	}

	return p, nil
}

// write applies a plan. Losers are retired before the survivor is rewritten
// so that its canonical key is free.
func (s *Service) write(tx *sql.Tx, rs *runState, p plan) error {
	if p.report.Action == ActionUnchanged {
		return nil
	}

	for _, r := range p.retired {
		err := s.ledgers.Supersede(tx, r.ID, p.next.ID)
		if err != nil {
			return fmt.Errorf("retire duplicate: %w", err)
		}
	}

	if p.stored == nil {
		err := s.ledgers.Insert(tx, p.next)
		if err != nil {
			return fmt.Errorf("create ledger: %w", err)
		}
	} else {
		err := s.ledgers.Update(tx, p.next, p.stored.Version.String())
		if err != nil {
			return fmt.Errorf("overwrite ledger: %w", err)
		}
	}

	if rs.mode != ModeApply {
		return nil
	}

	err := s.repairs.Insert(tx, repairs.Note{
		RunID:         rs.id,
		LedgerID:      p.next.ID,
		Action:        string(p.report.Action),
		Reason:        rs.reason,
		Operator:      rs.operator,
		BalanceBefore: p.report.BalanceBefore,
		BalanceAfter:  p.next.Balance,
		EntriesBefore: p.report.EntriesBefore,
		EntriesAfter:  len(p.next.Entries),
		CreatedAt:     s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("record repair note: %w", err)
	}

	return nil
}
