package rcv

import "github.com/shopspring/decimal"

// RankSet is the set of candidates marked at one rank on one ballot. It is
// a set, not a single value, because some CVR formats allow multiple
// marks at one rank (spec §3).
type RankSet map[CandidateID]struct{}

// Ballot is the immutable part of a cast-vote record: an ordered, possibly
// sparse mapping from rank to RankSet, plus an optional precinct. Ranks
// start at 1.
type Ballot struct {
	Ranks     map[int]RankSet
	Precinct  string
	MaxRank   int
}

// RanksAt returns the candidates marked at rank, or nil if that rank has no
// marks on this ballot (ranks are allowed to be sparse).
func (b Ballot) RanksAt(rank int) RankSet {
	return b.Ranks[rank]
}

// scratch is the mutable per-tabulation state for one ballot, kept in a
// parallel array indexed by ballot identifier rather than embedded in
// Ballot itself (spec §9, design note 3). This keeps the immutable ranking
// data alias-free and makes the sequential driver's reset trivial: discard
// the scratch array and start a fresh one, the ballots never move.
type scratch struct {
	currentRecipient CandidateID
	hasRecipient     bool
	fractionalValue  decimal.Decimal
	exhausted        bool
	exhaustReason    string
	winnerShares     map[CandidateID]decimal.Decimal
}

func newScratch() scratch {
	return scratch{
		fractionalValue: One(),
	}
}

// creditWinner adds value to the ballot's recorded share for candidate,
// used by surplus transfer (spec §4.3.5) and the past-winner plateau
// re-derivation (spec §4.3.6).
func (s *scratch) creditWinner(candidate CandidateID, value decimal.Decimal) {
	if s.winnerShares == nil {
		s.winnerShares = make(map[CandidateID]decimal.Decimal)
	}
	s.winnerShares[candidate] = s.winnerShares[candidate].Add(value)
}

// exhaust marks the ballot exhausted. Once true it never reverts (spec §3
// invariant).
func (s *scratch) exhaust(reason string) {
	if s.exhausted {
		return
	}
	s.exhausted = true
	s.exhaustReason = reason
	s.hasRecipient = false
}

// BallotState is a snapshot of a ballot's mutable state, exposed to callers
// as part of the audit trail (spec §6).
type BallotState struct {
	CurrentRecipient CandidateID
	HasRecipient     bool
	FractionalValue  decimal.Decimal
	Exhausted        bool
	ExhaustReason    string
}

func (s scratch) snapshot() BallotState {
	return BallotState{
		CurrentRecipient: s.currentRecipient,
		HasRecipient:     s.hasRecipient,
		FractionalValue:  s.fractionalValue,
		Exhausted:        s.exhausted,
		ExhaustReason:    s.exhaustReason,
	}
}
