// Package jobs runs season recomputation in the background on a river
// queue backed by Postgres.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/fastprodman/fantasyledger/internal/infra/logging"
	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/services/settlement"
)

const QueueSettlement = "settlement"

var ErrInvalidJob = errors.New("invalid consolidation job")

// ConsolidateRoundArgs asks for the season to be recomputed after the data
// of Round landed.
type ConsolidateRoundArgs struct {
	League ledger.LeagueID `json:"league"`
	Season int             `json:"season"`
	Round  int             `json:"round"`
}

func (ConsolidateRoundArgs) Kind() string { return "consolidate_round" }

func (a ConsolidateRoundArgs) Validate() error {
	if a.Season <= 0 || a.Round <= 0 {
		return fmt.Errorf("%w: season %d round %d", ErrInvalidJob, a.Season, a.Round)
	}

	_, _, err := ledger.CanonicalLeague(string(a.League))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}

	return nil
}

// Consolidator recomputes every ledger of a season.
type Consolidator interface {
	ConsolidateSeason(ctx context.Context, league ledger.LeagueID, season int) (*settlement.Report, error)
}

type ConsolidateRoundWorker struct {
	river.WorkerDefaults[ConsolidateRoundArgs]

	svc Consolidator
	log *slog.Logger
}

func NewConsolidateRoundWorker(svc Consolidator, log *slog.Logger) *ConsolidateRoundWorker {
	if log == nil {
		log = slog.Default()
	}

	return &ConsolidateRoundWorker{svc: svc, log: log}
}

func (w *ConsolidateRoundWorker) Work(ctx context.Context, job *river.Job[ConsolidateRoundArgs]) error {
	args := job.Args

	err := args.Validate()
	if err != nil {
		return river.JobCancel(err)
	}

	log := w.log.With(
		slog.String("league", string(args.League)),
		slog.Int("season", args.Season),
		slog.Int("round", args.Round),
	)

	r, err := w.svc.ConsolidateSeason(ctx, args.League, args.Season)
	if err != nil {
		if errors.Is(err, settlement.ErrInvalidRequest) {
			return river.JobCancel(err)
		}

		log.Error("consolidate round", logging.Err(err))

		return fmt.Errorf("consolidate season: %w", err)
	}

	counts := r.Counts()
	log.Info("round consolidated",
		slog.String("run", r.RunID.String()),
		slog.Int("created", counts[settlement.ActionCreated]),
		slog.Int("corrected", counts[settlement.ActionCorrected]),
		slog.Int("failed", counts[settlement.ActionFailed]),
	)

	if counts[settlement.ActionFailed] > 0 {
		// Retry picks up only the failed participants; the rest short-circuit.
		return fmt.Errorf("consolidate season: %d participants failed", counts[settlement.ActionFailed])
	}

	return nil
}

// Queue owns the river client for the service.
type Queue struct {
	client *river.Client[pgx.Tx]
	log    *slog.Logger
}

// NewQueue builds a client working consolidation jobs with up to workers
// goroutines. A nil svc gives an insert-only client.
func NewQueue(pool *pgxpool.Pool, svc Consolidator, workers int, log *slog.Logger) (*Queue, error) {
	if log == nil {
		log = slog.Default()
	}

	cfg := &river.Config{Logger: log}

	if svc != nil {
		if workers < 1 {
			workers = 1
		}

		ws := river.NewWorkers()
		river.AddWorker(ws, NewConsolidateRoundWorker(svc, log))

		cfg.Workers = ws
		cfg.Queues = map[string]river.QueueConfig{
			QueueSettlement: {MaxWorkers: workers},
		}
	}

	client, err := river.NewClient(riverpgxv5.New(pool), cfg)
	if err != nil {
		return nil, fmt.Errorf("create river client: %w", err)
	}

	return &Queue{client: client, log: log}, nil
}

func (q *Queue) Start(ctx context.Context) error {
	err := q.client.Start(ctx)
	if err != nil {
		return fmt.Errorf("start river client: %w", err)
	}

	return nil
}

func (q *Queue) Stop(ctx context.Context) error {
	err := q.client.Stop(ctx)
	if err != nil {
		return fmt.Errorf("stop river client: %w", err)
	}

	return nil
}

// Enqueue inserts a consolidation job. An identical pending job is reused,
// reported by duplicate.
func (q *Queue) Enqueue(ctx context.Context, args ConsolidateRoundArgs) (id int64, duplicate bool, err error) {
	err = args.Validate()
	if err != nil {
		return 0, false, err
	}

	res, err := q.client.Insert(ctx, args, &river.InsertOpts{
		Queue:      QueueSettlement,
		UniqueOpts: river.UniqueOpts{ByArgs: true},
	})
	if err != nil {
		return 0, false, fmt.Errorf("insert consolidation job: %w", err)
	}

	q.log.Info("consolidation job queued",
		slog.Int64("job_id", res.Job.ID),
		slog.String("league", string(args.League)),
		slog.Int("season", args.Season),
		slog.Int("round", args.Round),
		slog.Bool("duplicate", res.UniqueSkippedAsDuplicate),
	)

	return res.Job.ID, res.UniqueSkippedAsDuplicate, nil
}
