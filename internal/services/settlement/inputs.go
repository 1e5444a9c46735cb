package settlement

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fastprodman/fantasyledger/internal/config"
	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/schedule"
	"github.com/fastprodman/fantasyledger/internal/scoring"
)

// seasonInputs is the read-only data of one league season run.
type seasonInputs struct {
	league ledger.LeagueID
	season int
	rules  *config.League

	// enrolled holds enrolled participants ordered by id.
	enrolled    []ledger.Enrollment
	scores      scoring.Scores
	adjustments []ledger.Delta
}

func (s *Service) loadSeason(ctx context.Context, league ledger.LeagueID, season int) (*seasonInputs, error) {
	in := &seasonInputs{league: league, season: season}

	var (
		all   []ledger.Enrollment
		lines []scoring.ScoreLine
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rules, err := s.leagues.Load(gctx, league, season)
		if err != nil {
			return fmt.Errorf("load league config: %w", err)
		}

		in.rules = rules

		return nil
	})

	g.Go(func() error {
		var err error

		all, err = s.enrollments.ListSeason(gctx, league, season)
		if err != nil {
			return fmt.Errorf("list enrollments: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		var err error

		lines, err = s.scores.SeasonLines(gctx, league, season)
		if err != nil {
			return fmt.Errorf("load round scores: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		var err error

		in.adjustments, err = s.adjustments.ListActive(gctx, league, season)
		if err != nil {
			return fmt.Errorf("list manual adjustments: %w", err)
		}

		return nil
	})

	err := g.Wait()
	if err != nil {
		return nil, err
	}

	byID := make(map[ledger.ParticipantID]ledger.Enrollment, len(all))

	for _, e := range all {
		if e.Status != ledger.StatusEnrolled {
			continue
		}

		e.League = league
		byID[e.Participant] = e
		in.enrolled = append(in.enrolled, e)
	}

	slices.SortFunc(in.enrolled, func(a, b ledger.Enrollment) int {
		return strings.Compare(string(a.Participant), string(b.Participant))
	})

	// Scores of participants who were not playing that round do not count.
	in.scores = scoring.IndexScores(lines).Filter(func(l scoring.ScoreLine) bool {
		e, ok := byID[l.Participant]
		return ok && e.ActiveIn(l.Round)
	})

	return in, nil
}

func (in *seasonInputs) activeIn(round int) []schedule.Participant {
	out := make([]schedule.Participant, 0, len(in.enrolled))

	for _, e := range in.enrolled {
		if e.ActiveIn(round) {
			out = append(out, schedule.Participant{ID: e.Participant, DisplayName: e.DisplayName})
		}
	}

	return out
}

func (in *seasonInputs) played(round int) bool {
	return len(in.scores.Round(round)) > 0
}

// calculate runs the enabled calculators concurrently. Their results are
// merged in a fixed order.
func calculate(in *seasonInputs) scoring.Result {
	calcs := []func(*seasonInputs) scoring.Result{
		bonusMalus,
		roundRobin,
		extremes,
		bracket,
	}

	results := make([]scoring.Result, len(calcs))

	var g errgroup.Group

	for i, calc := range calcs {
		g.Go(func() error {
			results[i] = calc(in)
			return nil
		})
	}

	// Calculators are pure functions over the loaded inputs and cannot fail.
	_ = g.Wait()

	var out scoring.Result
	for _, r := range results {
		out.Merge(r)
	}

	return out
}

func bonusMalus(in *seasonInputs) scoring.Result {
	var res scoring.Result

	if !in.rules.BonusMalus.Enabled {
		return res
	}

	for _, round := range in.scores.Rounds() {
		res.Merge(scoring.BonusMalus(round, in.scores.Round(round), in.rules.BonusMalus.BonusMalusConfig))
	}

	return res
}

func roundRobin(in *seasonInputs) scoring.Result {
	var res scoring.Result

	cfg := in.rules.RoundRobin
	if !cfg.Enabled {
		return res
	}

	for _, round := range in.scores.Rounds() {
		if _, ok := cfg.RelativeRound(round); !ok {
			continue
		}

		res.Merge(scoring.RoundRobin(round, in.activeIn(round), in.scores, cfg.RoundRobinConfig))
	}

	return res
}

func extremes(in *seasonInputs) scoring.Result {
	if !in.rules.Extremes.Enabled {
		return scoring.Result{}
	}

	return scoring.SeasonExtremes(in.scores.All(), in.rules.Extremes.ExtremesConfig)
}

// bracket builds every edition seeded so far and settles its played phases.
func bracket(in *seasonInputs) scoring.Result {
	var res scoring.Result

	cfg := in.rules.Bracket
	if !cfg.Enabled {
		return res
	}

	score := in.scores.Get

	var brackets []schedule.Bracket

	for _, ed := range cfg.Editions {
		spec := ed.Spec()
		if !in.played(spec.SeedRound) {
			continue
		}

		standings := schedule.Standings(in.activeIn(spec.SeedRound), score, spec.SeedRound)

		b, err := spec.Build(standings, score)
		if err != nil {
			res.Warnings = append(res.Warnings, scoring.Warning{
				Kind:    scoring.WarnMissingInput,
				Round:   spec.SeedRound,
				Message: fmt.Sprintf("bracket %s not built: %v", ed.Name, err),
			})

			continue
		}

		played := b.Phases[:0]
		for _, phase := range b.Phases {
			if in.played(phase.Round) {
				played = append(played, phase)
			}
		}
		b.Phases = played

		brackets = append(brackets, b)
	}

	res.Merge(scoring.Bracket(brackets, in.scores, cfg.BracketConfig))

	return res
}
