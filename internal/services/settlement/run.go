package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/scoring"
)

var ErrInvalidRequest = errors.New("invalid settlement request")

// RepairRequest selects a season and how to treat what is found.
type RepairRequest struct {
	League ledger.LeagueID
	Season int
	// Participant limits the run to one participant when set.
	Participant ledger.ParticipantID
	Apply       bool
	Operator    string
	Reason      string
}

// Repair audits every enrolled participant of a season against a fresh
// recomputation. In dry-run mode nothing is written; in apply mode every
// fully reconciled ledger is overwritten and a repair note is recorded.
func (s *Service) Repair(ctx context.Context, req RepairRequest) (*Report, error) {
	mode := ModeDryRun
	if req.Apply {
		mode = ModeApply

		if req.Operator == "" {
			return nil, fmt.Errorf("%w: apply needs an operator", ErrInvalidRequest)
		}
	}

	return s.run(ctx, mode, req)
}

// ConsolidateSeason recomputes and stores the ledgers of every enrolled
// participant, merging legacy duplicates on the way. It records no repair
// notes.
func (s *Service) ConsolidateSeason(ctx context.Context, league ledger.LeagueID, season int) (*Report, error) {
	return s.run(ctx, ModeConsolidate, RepairRequest{League: league, Season: season, Operator: "system"})
}

// runState is shared by the participant workers of one run.
type runState struct {
	id           uuid.UUID
	mode         Mode
	operator     string
	reason       string
	consolidator *ledger.Consolidator
	reconciler   *ledger.Reconciler
	deltas       map[ledger.ParticipantID][]ledger.Delta
}

func (s *Service) run(ctx context.Context, mode Mode, req RepairRequest) (*Report, error) {
	league, _, err := ledger.CanonicalLeague(string(req.League))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if req.Season <= 0 {
		return nil, fmt.Errorf("%w: season %d", ErrInvalidRequest, req.Season)
	}

	started := s.now()
	defer s.metrics.ObserveRun(string(mode), started)

	ctx, span := s.tracer.Start(ctx, "settlement.run", trace.WithAttributes(
		attribute.String("league", string(league)),
		attribute.Int("season", req.Season),
		attribute.String("mode", string(mode)),
	))
	defer span.End()

	log := s.log.With(
		slog.String("run_mode", string(mode)),
		slog.String("league", string(league)),
		slog.Int("season", req.Season),
	)

	in, err := s.loadSeason(ctx, league, req.Season)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load season")

		return nil, fmt.Errorf("load season %s/%d: %w", league, req.Season, err)
	}

	calc := calculate(in)

	report := &Report{
		RunID:     uuid.New(),
		League:    league,
		Season:    req.Season,
		Mode:      mode,
		Operator:  req.Operator,
		Reason:    req.Reason,
		StartedAt: started.UTC(),
	}

	byParticipant := make(map[ledger.ParticipantID][]scoring.Warning)

	for _, w := range calc.Warnings {
		s.metrics.Warning(string(w.Kind))
		log.WarnContext(ctx, "calculator warning",
			slog.String("kind", string(w.Kind)),
			slog.Int("round", w.Round),
			slog.String("participant", string(w.Participant)),
			slog.String("message", w.Message),
		)

		if w.Participant == "" {
			report.Warnings = append(report.Warnings, w)
			continue
		}

		byParticipant[w.Participant] = append(byParticipant[w.Participant], w)
	}

	consolidator := ledger.NewConsolidator(in.rules.Digest(), s.now)

	rs := &runState{
		id:           report.RunID,
		mode:         mode,
		operator:     req.Operator,
		reason:       req.Reason,
		consolidator: consolidator,
		reconciler:   ledger.NewReconciler(consolidator.Stamp),
		deltas:       make(map[ledger.ParticipantID][]ledger.Delta),
	}

	for _, d := range calc.Deltas {
		rs.deltas[d.Participant] = append(rs.deltas[d.Participant], d)
	}

	for _, d := range in.adjustments {
		rs.deltas[d.Participant] = append(rs.deltas[d.Participant], d)
	}

	targets := in.enrolled
	if req.Participant != "" {
		targets = nil

		for _, e := range in.enrolled {
			if e.Participant == req.Participant {
				targets = append(targets, e)
			}
		}
	}

	report.Participants = make([]ParticipantReport, len(targets))

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, e := range targets {
		g.Go(func() error {
			pr := s.settleWithRetry(ctx, rs, e)
			pr.Warnings = byParticipant[e.Participant]
			report.Participants[i] = pr

			return nil
		})
	}

	// Workers never return an error: each outcome, failures included, is
	// recorded in its participant report.
	_ = g.Wait()

	report.FinishedAt = s.now().UTC()

	counts := report.Counts()
	for _, a := range Actions {
		if counts[a] > 0 {
			span.SetAttributes(attribute.Int("actions."+string(a), counts[a]))
		}
	}

	log.InfoContext(ctx, "season run finished",
		slog.String("run_id", report.RunID.String()),
		slog.Int("participants", len(report.Participants)),
		slog.Int("created", counts[ActionCreated]),
		slog.Int("reconciled", counts[ActionReconciled]),
		slog.Int("corrected", counts[ActionCorrected]),
		slog.Int("unchanged", counts[ActionUnchanged]),
		slog.Int("unresolved", counts[ActionUnresolved]),
		slog.Int("failed", counts[ActionFailed]),
	)

	err = ctx.Err()
	if err != nil {
		return report, fmt.Errorf("season run interrupted: %w", err)
	}

	return report, nil
}
