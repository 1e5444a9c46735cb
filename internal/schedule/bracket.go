package schedule

import (
	"errors"
	"fmt"
	"math/bits"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/fantasyledger/internal/ledger"
)

// ScoreFunc looks up a participant's score in a calendar round.
type ScoreFunc func(p ledger.ParticipantID, round int) (decimal.Decimal, bool)

var (
	ErrInvalidBracketSize    = errors.New("bracket size must be a power of two and at least 2")
	ErrNotEnoughParticipants = errors.New("not enough participants to seed bracket")
	ErrPhaseRounds           = errors.New("phase rounds do not match bracket size")
)

// BracketSpec describes one edition of the elimination bracket.
type BracketSpec struct {
	Edition   int
	Name      string
	Size      int
	SeedRound int
	// PhaseRounds maps phase index (0 = first phase) to the calendar round
	// in which its games resolve.
	PhaseRounds []int
}

func (s BracketSpec) Validate() error {
	if s.Size < 2 || bits.OnesCount(uint(s.Size)) != 1 {
		return fmt.Errorf("edition %d: %w (got %d)", s.Edition, ErrInvalidBracketSize, s.Size)
	}

	if want := bits.TrailingZeros(uint(s.Size)); len(s.PhaseRounds) != want {
		return fmt.Errorf("edition %d: %w: want %d phases, got %d", s.Edition, ErrPhaseRounds, want, len(s.PhaseRounds))
	}

	for i := 1; i < len(s.PhaseRounds); i++ {
		if s.PhaseRounds[i] <= s.PhaseRounds[i-1] {
			return fmt.Errorf("edition %d: %w: phase rounds must increase", s.Edition, ErrPhaseRounds)
		}
	}

	if len(s.PhaseRounds) > 0 && s.PhaseRounds[0] <= s.SeedRound {
		return fmt.Errorf("edition %d: %w: first phase must follow the seed round", s.Edition, ErrPhaseRounds)
	}

	return nil
}

// BracketPhase is one knockout level. Phase 1 is the first phase played.
type BracketPhase struct {
	Phase int
	Round int
	Games []Fixture
}

// Bracket is an edition's generated structure.
type Bracket struct {
	Edition int
	Name    string
	Phases  []BracketPhase
}

// PhaseName labels a phase by how many games it holds.
func PhaseName(games int) string {
	switch games {
	case 1:
		return "final"
	case 2:
		return "semifinal"
	case 4:
		return "quarterfinal"
	default:
		return fmt.Sprintf("round of %d", games*2)
	}
}

// Standings orders participants by cumulative score through a round, ties
// keeping canonical order.
func Standings(participants []Participant, score ScoreFunc, throughRound int) []ledger.ParticipantID {
	ordered := Canonical(participants)
	totals := make(map[ledger.ParticipantID]decimal.Decimal, len(ordered))

	for _, p := range ordered {
		var sum decimal.Decimal

		for r := 1; r <= throughRound; r++ {
			if s, ok := score(p.ID, r); ok {
				sum = sum.Add(s)
			}
		}

		totals[p.ID] = sum
	}

	slices.SortStableFunc(ordered, func(a, b Participant) int {
		return totals[b.ID].Cmp(totals[a.ID])
	})

	out := make([]ledger.ParticipantID, len(ordered))
	for i, p := range ordered {
		out[i] = p.ID
	}

	return out
}

// Build seeds the first phase 1 vs N, 2 vs N-1 and so on from standings,
// then pairs winners in game order for as many phases as have been played.
// A tie, or a single missing score, advances the better seed. A game with
// no scores at all ends generation: later phases do not exist yet.
func (s BracketSpec) Build(standings []ledger.ParticipantID, score ScoreFunc) (Bracket, error) {
	err := s.Validate()
	if err != nil {
		return Bracket{}, err
	}

	if len(standings) < s.Size {
		return Bracket{}, fmt.Errorf("edition %d: %w: have %d, need %d",
			s.Edition, ErrNotEnoughParticipants, len(standings), s.Size)
	}

	seed := make(map[ledger.ParticipantID]int, s.Size)
	for i, p := range standings[:s.Size] {
		seed[p] = i + 1
	}

	b := Bracket{Edition: s.Edition, Name: s.Name}

	round := s.PhaseRounds[0]
	games := make([]Fixture, 0, s.Size/2)
	for i := 0; i < s.Size/2; i++ {
		games = append(games, Fixture{Round: round, A: standings[i], B: standings[s.Size-1-i]})
	}

	for phase := 1; ; phase++ {
		b.Phases = append(b.Phases, BracketPhase{Phase: phase, Round: round, Games: games})

		if len(games) == 1 || phase == len(s.PhaseRounds) {
			return b, nil
		}

		winners := make([]ledger.ParticipantID, 0, len(games))
		for _, g := range games {
			w, ok := advance(g, seed, score)
			if !ok {
				return b, nil
			}

			winners = append(winners, w)
		}

		round = s.PhaseRounds[phase]
		games = make([]Fixture, 0, len(winners)/2)
		for i := 0; i+1 < len(winners); i += 2 {
			games = append(games, Fixture{Round: round, A: winners[i], B: winners[i+1]})
		}
	}
}

func advance(g Fixture, seed map[ledger.ParticipantID]int, score ScoreFunc) (ledger.ParticipantID, bool) {
	better, worse := g.A, g.B
	if seed[worse] < seed[better] {
		better, worse = worse, better
	}

	sb, okB := score(better, g.Round)
	sw, okW := score(worse, g.Round)

	switch {
	case !okB && !okW:
		return "", false
	case okW && (!okB || sw.GreaterThan(sb)):
		return worse, true
	default:
		return better, true
	}
}
