package rcv

import "github.com/shopspring/decimal"

// Observer receives structured tabulation events. The engine never formats
// or prints a message itself — it only calls these methods, in round
// order, so that a caller can render them however it likes (structured
// logs, an audit database row, a terminal summary). NewEngine substitutes
// DiscardObserver when it is given a nil Observer.
type Observer interface {
	RoundStarted(round int)
	RoundTally(round int, tallies map[CandidateID]decimal.Decimal)
	ThresholdSet(round int, threshold decimal.Decimal)
	CandidateEliminated(round int, candidate CandidateID, reason string)
	CandidateWon(round int, candidate CandidateID)
	SurplusTransferred(round int, from CandidateID, surplusFraction decimal.Decimal)
	BallotExhausted(round int, ballot int, reason string)
	TieBreakResolved(round int, tied []CandidateID, chosen CandidateID, explanation string)
}

// DiscardObserver implements Observer by doing nothing. It is the default
// for tests and for embedding scenarios that don't want logging.
type DiscardObserver struct{}

func (DiscardObserver) RoundStarted(round int)                                          {}
func (DiscardObserver) RoundTally(round int, tallies map[CandidateID]decimal.Decimal)    {}
func (DiscardObserver) ThresholdSet(round int, threshold decimal.Decimal)                {}
func (DiscardObserver) CandidateEliminated(round int, candidate CandidateID, reason string) {}
func (DiscardObserver) CandidateWon(round int, candidate CandidateID)                    {}
func (DiscardObserver) SurplusTransferred(round int, from CandidateID, surplusFraction decimal.Decimal) {
}
func (DiscardObserver) BallotExhausted(round int, ballot int, reason string)                        {}
func (DiscardObserver) TieBreakResolved(round int, tied []CandidateID, chosen CandidateID, explanation string) {
}
