package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/fantasyledger/internal/ledger"
	"github.com/fastprodman/fantasyledger/internal/scoring"
)

type Mode string

const (
	ModeConsolidate Mode = "consolidate"
	ModeDryRun      Mode = "dry-run"
	ModeApply       Mode = "apply"
)

func (m Mode) writes() bool {
	return m != ModeDryRun
}

// Action is what a run did, or in dry-run mode would do, to one ledger.
type Action string

const (
	ActionCreated    Action = "created"
	ActionReconciled Action = "reconciled-duplicate"
	ActionCorrected  Action = "balance-corrected"
	ActionUnchanged  Action = "unchanged"
	ActionUnresolved Action = "unresolved-duplicate"
	ActionFailed     Action = "failed"
)

// Actions lists every action in report order.
var Actions = []Action{
	ActionCreated, ActionReconciled, ActionCorrected, ActionUnchanged, ActionUnresolved, ActionFailed,
}

type ParticipantReport struct {
	Key         ledger.Key  `json:"key"`
	DisplayName string      `json:"displayName,omitempty"`
	Action      Action      `json:"action"`
	LedgerID    uuid.UUID   `json:"ledgerId,omitzero"`
	Retired     []uuid.UUID `json:"retired,omitempty"`

	BalanceBefore *decimal.Decimal `json:"balanceBefore"`
	BalanceAfter  decimal.Decimal  `json:"balanceAfter"`
	EntriesBefore int              `json:"entriesBefore"`
	EntriesAfter  int              `json:"entriesAfter"`
	Added         []ledger.Entry   `json:"added,omitempty"`
	Removed       []ledger.Entry   `json:"removed,omitempty"`

	// InvariantViolation is set when the stored aggregates or ordering did
	// not match the stored entries.
	InvariantViolation bool `json:"balanceInvariantViolation,omitempty"`

	// Restamped is set when the stored ledger was computed under other
	// rules or configuration, so it is rewritten even if nothing else moved.
	Restamped bool `json:"restamped,omitempty"`

	Standing ledger.Standing   `json:"standing"`
	Warnings []scoring.Warning `json:"warnings,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// EntryDelta is the change in entry count.
func (p ParticipantReport) EntryDelta() int {
	return p.EntriesAfter - p.EntriesBefore
}

type Report struct {
	RunID      uuid.UUID       `json:"runId"`
	League     ledger.LeagueID `json:"league"`
	Season     int             `json:"season"`
	Mode       Mode            `json:"mode"`
	Operator   string          `json:"operator,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`

	Participants []ParticipantReport `json:"participants"`
	// Warnings not tied to one participant.
	Warnings []scoring.Warning `json:"warnings,omitempty"`
}

func (r *Report) Counts() map[Action]int {
	out := make(map[Action]int, len(Actions))
	for _, p := range r.Participants {
		out[p.Action]++
	}

	return out
}

// NeedsAttention reports whether any ledger was left unresolved or failed.
func (r *Report) NeedsAttention() bool {
	c := r.Counts()
	return c[ActionUnresolved] > 0 || c[ActionFailed] > 0
}
