package rcv

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TallyTransferKey names the source of a vote movement within a round: a
// candidate who lost the vote, or the synthetic "initial" source for a
// ballot's first allocation.
type TallyTransferKey struct {
	From CandidateID // "" + FromInitial == true for the synthetic initial source
	FromInitial bool
	To   CandidateID
}

// MarshalText renders a TallyTransferKey as "from->to", with "*" standing in
// for the synthetic initial source, so it can serve as a JSON object key
// (encoding/json requires map keys to be strings or implement TextMarshaler).
func (k TallyTransferKey) MarshalText() ([]byte, error) {
	from := string(k.From)
	if k.FromInitial {
		from = "*"
	}
	return []byte(from + "->" + string(k.To)), nil
}

// UnmarshalText parses the format MarshalText produces.
func (k *TallyTransferKey) UnmarshalText(text []byte) error {
	from, to, ok := strings.Cut(string(text), "->")
	if !ok {
		return fmt.Errorf("invalid tally transfer key %q", text)
	}
	if from == "*" {
		k.FromInitial = true
		k.From = ""
	} else {
		k.From = CandidateID(from)
	}
	k.To = CandidateID(to)
	return nil
}

// BallotOutcome is one line of the per-ballot audit trail for one round
// (spec §6): either counted for a candidate at a fractional value, or
// exhausted with a reason.
type BallotOutcome struct {
	Counted         bool
	Candidate       CandidateID
	FractionalValue decimal.Decimal
	Exhausted       bool
	Reason          string
}

// RoundRecord is everything produced while tabulating one round.
type RoundRecord struct {
	Round             int
	Tallies           map[CandidateID]decimal.Decimal
	PrecinctTallies   map[string]map[CandidateID]decimal.Decimal
	Winners           []CandidateID
	Eliminated        []CandidateID
	EliminationReason map[CandidateID]string
	Transfers         map[TallyTransferKey]decimal.Decimal
	ResidualSurplus   decimal.Decimal
	BallotOutcomes    []BallotOutcome
}

// TabulationResult is everything spec §6 names as the engine's output.
type TabulationResult struct {
	Rounds                     []RoundRecord
	CandidateToEliminationRound map[CandidateID]int
	CandidateToWinningRound     map[CandidateID]int
	WinnerOrder                 []CandidateID
	Threshold                   decimal.Decimal
}

// RoundTally returns the tally map for the given round, or nil if that
// round hasn't happened.
func (r TabulationResult) RoundTally(round int) map[CandidateID]decimal.Decimal {
	for _, rr := range r.Rounds {
		if rr.Round == round {
			return rr.Tallies
		}
	}
	return nil
}
