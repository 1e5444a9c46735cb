package ledger

import (
	"errors"
	"testing"
	"time"
)

func TestCanonicalLeague(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    LeagueID
		wantEnc KeyEncoding
		wantErr bool
	}{
		{raw: "684cb1c8af923da7c7df51de", want: "684cb1c8af923da7c7df51de", wantEnc: EncodingCanonical},
		{raw: `ObjectId("684cb1c8af923da7c7df51de")`, want: "684cb1c8af923da7c7df51de", wantEnc: EncodingLegacy},
		{raw: "ObjectId(684cb1c8af923da7c7df51de)", want: "684cb1c8af923da7c7df51de", wantEnc: EncodingLegacy},
		{raw: "684CB1C8AF923DA7C7DF51DE", want: "684cb1c8af923da7c7df51de", wantEnc: EncodingLegacy},
		{raw: ` "684cb1c8af923da7c7df51de" `, want: "684cb1c8af923da7c7df51de", wantEnc: EncodingLegacy},
		{raw: "  ", wantErr: true},
		{raw: `ObjectId("")`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			got, enc, err := CanonicalLeague(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrEmptyLeagueKey) {
					t.Fatalf("want ErrEmptyLeagueKey, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want || enc != tt.wantEnc {
				t.Fatalf("got %q/%s, want %q/%s", got, enc, tt.want, tt.wantEnc)
			}
		})
	}
}

func TestKeyValidate(t *testing.T) {
	t.Parallel()

	if err := testKey.Validate(); err != nil {
		t.Fatalf("canonical key rejected: %v", err)
	}

	bad := []Key{
		{League: `ObjectId("684cb1c8af923da7c7df51de")`, Participant: "p", Season: 2026},
		{League: "684cb1c8af923da7c7df51de", Participant: " ", Season: 2026},
		{League: "684cb1c8af923da7c7df51de", Participant: "p", Season: 0},
	}

	for _, k := range bad {
		if err := k.Validate(); err == nil {
			t.Fatalf("key %s should be rejected", k)
		}
	}
}

func TestVersionRoundTrip(t *testing.T) {
	t.Parallel()

	v := Version{Algorithm: Algorithm, ConfigDigest: "ab12", StampedAt: time.Date(2026, 3, 2, 1, 2, 3, 400, time.UTC)}

	got, err := ParseVersion(v.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if !got.SameRevision(v) || !got.StampedAt.Equal(v.StampedAt) {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, v)
	}

	if _, err := ParseVersion("garbage"); !errors.Is(err, ErrInvalidVersion) {
		t.Fatalf("want ErrInvalidVersion, got %v", err)
	}

	empty, err := ParseVersion("")
	if err != nil || empty.Algorithm != "" {
		t.Fatalf("empty version should parse to zero value")
	}
}

func TestCheckInvariants(t *testing.T) {
	t.Parallel()

	l := &Ledger{Entries: []Entry{
		{Round: 0, Kind: KindMembershipFee, Amount: d("-10")},
		{Round: 2, Kind: KindBonusMalus, Amount: d("4")},
	}}
	l.applyTotals()

	if err := l.CheckInvariants(); err != nil {
		t.Fatalf("fresh totals should hold: %v", err)
	}

	corrupt := l.Clone()
	corrupt.Balance = d("-5")

	if err := corrupt.CheckInvariants(); !errors.Is(err, ErrBalanceInvariant) {
		t.Fatalf("want ErrBalanceInvariant, got %v", err)
	}

	unordered := l.Clone()
	unordered.Entries = []Entry{l.Entries[1], l.Entries[0]}

	if err := unordered.CheckInvariants(); !errors.Is(err, ErrOrderingInvariant) {
		t.Fatalf("want ErrOrderingInvariant, got %v", err)
	}
}

func TestCheckInvariantsWithin(t *testing.T) {
	t.Parallel()

	fresh := &Ledger{Entries: []Entry{
		{Round: 0, Kind: KindMembershipFee, Amount: d("-10")},
		{Round: 1, Kind: KindBonusMalus, Amount: d("40")},
		{Round: 2, Kind: KindBonusMalus, Amount: d("-30")},
	}}
	fresh.applyTotals()

	tol := d("0.01")

	tests := []struct {
		name    string
		tamper  func(*Ledger)
		wantErr error
	}{
		{name: "fresh", tamper: func(*Ledger) {}},
		{name: "balance_within_tolerance", tamper: func(l *Ledger) { l.Balance = l.Balance.Add(d("0.009")) }},
		{
			name:    "balance_at_tolerance",
			tamper:  func(l *Ledger) { l.Balance = l.Balance.Sub(d("0.01")) },
			wantErr: ErrBalanceInvariant,
		},
		{
			name: "credits_and_debits_shifted_with_matching_sum",
			tamper: func(l *Ledger) {
				l.Credits, l.Debits = d("50"), d("-50")
			},
			wantErr: ErrBalanceInvariant,
		},
		{name: "credits_off", tamper: func(l *Ledger) { l.Credits = d("39") }, wantErr: ErrBalanceInvariant},
		{name: "debits_off", tamper: func(l *Ledger) { l.Debits = d("-41") }, wantErr: ErrBalanceInvariant},
		{name: "last_round_off", tamper: func(l *Ledger) { l.LastConsolidatedRound = 1 }, wantErr: ErrBalanceInvariant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l := fresh.Clone()
			tt.tamper(l)

			err := l.CheckInvariantsWithin(tol)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("want no error, got %v", err)
			}

			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("want %v, got %v", tt.wantErr, err)
			}
		})
	}

	drifted := fresh.Clone()
	drifted.Balance = drifted.Balance.Add(d("0.001"))

	if err := drifted.CheckInvariants(); !errors.Is(err, ErrBalanceInvariant) {
		t.Fatalf("exact check must reject any balance drift, got %v", err)
	}
}

func TestStandingOf(t *testing.T) {
	t.Parallel()

	tests := map[string]Standing{
		"12.5":   StandingCreditor,
		"0.01":   StandingSettled,
		"0":      StandingSettled,
		"-0.009": StandingSettled,
		"-0.02":  StandingDebtor,
	}

	for in, want := range tests {
		if got := StandingOf(d(in)); got != want {
			t.Fatalf("StandingOf(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestDiffEntries(t *testing.T) {
	t.Parallel()

	a := Entry{Round: 1, Kind: KindBonusMalus, Description: "r1", Amount: d("3")}
	b := Entry{Round: 2, Kind: KindBonusMalus, Description: "r2", Amount: d("-3")}
	c := Entry{Round: 3, Kind: KindRoundRobin, Description: "r3", Amount: d("5")}

	if diff := DiffEntries([]Entry{a, b}, []Entry{b, a}); !diff.Empty() {
		t.Fatalf("reordering should not diff: %+v", diff)
	}

	diff := DiffEntries([]Entry{a, b, b}, []Entry{a, b, c})
	if len(diff.Added) != 1 || !diff.Added[0].Equal(c) {
		t.Fatalf("want c added, got %+v", diff.Added)
	}

	if len(diff.Removed) != 1 || !diff.Removed[0].Equal(b) {
		t.Fatalf("want one b removed, got %+v", diff.Removed)
	}
}
