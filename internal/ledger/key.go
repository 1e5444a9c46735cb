package ledger

import (
	"errors"
	"fmt"
	"strings"
)

type (
	LeagueID      string
	ParticipantID string
)

// Key identifies one logical ledger.
type Key struct {
	League      LeagueID      `json:"league"`
	Participant ParticipantID `json:"participant"`
	Season      int           `json:"season"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%d", k.League, k.Participant, k.Season)
}

// KeyEncoding describes how a league identifier was written to storage.
type KeyEncoding string

const (
	EncodingCanonical KeyEncoding = "canonical"
	EncodingLegacy    KeyEncoding = "legacy"
)

var (
	ErrEmptyLeagueKey = errors.New("empty league key")
	ErrInvalidKey     = errors.New("invalid ledger key")
)

// CanonicalLeague normalizes a stored league key. Older write paths stored
// the id wrapped as ObjectId("..."), quoted, padded or upper-cased; all of
// those collapse to the trimmed lower-case hex form.
func CanonicalLeague(raw string) (LeagueID, KeyEncoding, error) {
	s := strings.TrimSpace(raw)

	if inner, ok := strings.CutPrefix(s, "ObjectId("); ok {
		s = strings.TrimSuffix(inner, ")")
	}

	s = strings.Trim(strings.TrimSpace(s), `"'`)
	s = strings.ToLower(strings.TrimSpace(s))

	if s == "" {
		return "", "", fmt.Errorf("canonical league %q: %w", raw, ErrEmptyLeagueKey)
	}

	if s == raw {
		return LeagueID(s), EncodingCanonical, nil
	}

	return LeagueID(s), EncodingLegacy, nil
}

// Validate checks that the key is in canonical form. Writes go through here.
func (k Key) Validate() error {
	id, enc, err := CanonicalLeague(string(k.League))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	if enc != EncodingCanonical {
		return fmt.Errorf("%w: league %q is not canonical (want %q)", ErrInvalidKey, k.League, id)
	}

	if strings.TrimSpace(string(k.Participant)) == "" {
		return fmt.Errorf("%w: empty participant id", ErrInvalidKey)
	}

	if k.Season <= 0 {
		return fmt.Errorf("%w: season %d", ErrInvalidKey, k.Season)
	}

	return nil
}
