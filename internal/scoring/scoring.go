// Package scoring holds the four stateless calculators that turn round
// performance data into ledger deltas. Calculators never fail on bad data:
// they emit fewer deltas and report why through warnings.
package scoring

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/fantasyledger/internal/ledger"
)

// ScoreLine is one participant's raw score in one round. Lines keep the
// order in which the upstream provider ranked them.
type ScoreLine struct {
	Participant ledger.ParticipantID
	Round       int
	Score       decimal.Decimal
}

// Scores indexes score lines by round and participant.
type Scores struct {
	byRound map[int]map[ledger.ParticipantID]decimal.Decimal
	lines   map[int][]ScoreLine
	rounds  []int
}

func IndexScores(lines []ScoreLine) Scores {
	s := Scores{
		byRound: make(map[int]map[ledger.ParticipantID]decimal.Decimal),
		lines:   make(map[int][]ScoreLine),
	}

	for _, l := range lines {
		m, ok := s.byRound[l.Round]
		if !ok {
			m = make(map[ledger.ParticipantID]decimal.Decimal)
			s.byRound[l.Round] = m
			s.rounds = append(s.rounds, l.Round)
		}

		if _, dup := m[l.Participant]; dup {
			continue
		}

		m[l.Participant] = l.Score
		s.lines[l.Round] = append(s.lines[l.Round], l)
	}

	slices.Sort(s.rounds)

	return s
}

// Get returns the score of p in round, if present.
func (s Scores) Get(p ledger.ParticipantID, round int) (decimal.Decimal, bool) {
	v, ok := s.byRound[round][p]
	return v, ok
}

// Round returns the lines of a round in upstream order.
func (s Scores) Round(round int) []ScoreLine {
	return s.lines[round]
}

// Rounds lists rounds with any data, ascending.
func (s Scores) Rounds() []int {
	return s.rounds
}

// All returns every line, rounds ascending.
func (s Scores) All() []ScoreLine {
	var out []ScoreLine
	for _, r := range s.rounds {
		out = append(out, s.lines[r]...)
	}

	return out
}

// Filter keeps only the lines accepted by keep.
func (s Scores) Filter(keep func(ScoreLine) bool) Scores {
	var kept []ScoreLine
	for _, l := range s.All() {
		if keep(l) {
			kept = append(kept, l)
		}
	}

	return IndexScores(kept)
}

// PayoutTable maps a rank (1-based) to a signed amount.
type PayoutTable map[int]decimal.Decimal

// Symmetric reports whether table[k] == -table[n+1-k] for every rank of a
// field of n.
func (t PayoutTable) Symmetric(n int) bool {
	for k := 1; k <= n; k++ {
		if !t[k].Equal(t[n+1-k].Neg()) {
			return false
		}
	}

	return true
}

func (t PayoutTable) validate(maxRank int) error {
	for rank := range t {
		if rank < 1 || (maxRank > 0 && rank > maxRank) {
			return fmt.Errorf("rank %d out of range 1..%d", rank, maxRank)
		}
	}

	return nil
}

type WarningKind string

const (
	WarnMissingInput     WarningKind = "missing_input_data"
	WarnUnknownFieldSize WarningKind = "unknown_field_size_config"
	WarnDuplicatePayout  WarningKind = "duplicate_payout"
)

// Warning is a non-fatal calculator problem.
type Warning struct {
	Kind        WarningKind          `json:"kind"`
	Round       int                  `json:"round"`
	Participant ledger.ParticipantID `json:"participant,omitempty"`
	Message     string               `json:"message"`
}

func (w Warning) String() string {
	if w.Participant == "" {
		return fmt.Sprintf("%s round %d: %s", w.Kind, w.Round, w.Message)
	}

	return fmt.Sprintf("%s round %d %s: %s", w.Kind, w.Round, w.Participant, w.Message)
}

// Result is a calculator's output.
type Result struct {
	Deltas   []ledger.Delta
	Warnings []Warning
}

func (r *Result) add(p ledger.ParticipantID, e ledger.Entry) {
	if e.Amount.IsZero() {
		return
	}

	r.Deltas = append(r.Deltas, ledger.Delta{Participant: p, Entry: e})
}

func (r *Result) warn(kind WarningKind, round int, p ledger.ParticipantID, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{Kind: kind, Round: round, Participant: p, Message: fmt.Sprintf(format, args...)})
}

// Merge appends other into r.
func (r *Result) Merge(other Result) {
	r.Deltas = append(r.Deltas, other.Deltas...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}
