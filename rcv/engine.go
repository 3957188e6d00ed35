package rcv

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Engine drives TabulationEngine (spec §4.3): it owns the tabulation
// history and every ballot's mutable scratch state for its lifetime. No
// external agent may mutate them (spec §5).
type Engine struct {
	cfg      Config
	arith    DecimalArith
	observer Observer
	tb       *tieBreaker
	cancel   <-chan struct{}

	ballots   []Ballot
	scratches []scratch

	eliminatedOrder []CandidateID
	eliminatedRound map[CandidateID]int
	winnerOrder     []CandidateID
	winnerRound     map[CandidateID]int
	excluded        map[CandidateID]struct{}

	threshold    decimal.Decimal
	thresholdSet bool

	residualCumulative decimal.Decimal
	roundTallyHistory  []map[CandidateID]decimal.Decimal
	rounds             []RoundRecord

	lastRoundEliminated bool
	lastRoundWon        bool
	haltedByBottomsUpThreshold bool
}

// NewEngine validates cfg and prepares an Engine over ballots. It does not
// run any round; call Run for that.
func NewEngine(cfg Config, ballots []Ballot, observer Observer, interactive InteractiveResolver, cancel <-chan struct{}) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if observer == nil {
		observer = DiscardObserver{}
	}

	excluded := make(map[CandidateID]struct{}, len(cfg.ExcludedCandidates))
	for _, c := range cfg.ExcludedCandidates {
		excluded[c] = struct{}{}
	}

	scratches := make([]scratch, len(ballots))
	for i := range scratches {
		scratches[i] = newScratch()
	}

	e := &Engine{
		cfg:             cfg,
		arith:           NewDecimalArith(cfg.DecimalPlacesForVoteArithmetic),
		observer:        observer,
		tb:              newTieBreaker(cfg, interactive),
		cancel:          cancel,
		ballots:         ballots,
		scratches:       scratches,
		eliminatedRound: make(map[CandidateID]int),
		winnerRound:     make(map[CandidateID]int),
		excluded:        excluded,
	}
	return e, nil
}

// excludeAdditional marks extra candidates as Excluded, for the
// SequentialDriver's use between passes (spec §4.6). It must be called
// before Run.
func (e *Engine) excludeAdditional(candidates ...CandidateID) {
	for _, c := range candidates {
		e.excluded[c] = struct{}{}
	}
}

func (e *Engine) numCandidates() int {
	n := 0
	for _, c := range e.cfg.Candidates {
		if _, ok := e.excluded[c]; !ok {
			n++
		}
	}
	return n
}

func (e *Engine) statusBook() statusBook {
	elim := make(map[CandidateID]struct{}, len(e.eliminatedOrder))
	for _, c := range e.eliminatedOrder {
		elim[c] = struct{}{}
	}
	win := make(map[CandidateID]struct{}, len(e.winnerOrder))
	for _, c := range e.winnerOrder {
		win[c] = struct{}{}
	}
	return statusBook{
		eliminated:                       elim,
		winners:                          win,
		excluded:                         e.excluded,
		invalid:                          e.cfg.ExplicitOvervoteLabel,
		continueUntilTwoCandidatesRemain: e.cfg.ContinueUntilTwoCandidatesRemain,
	}
}

// continuingCandidates returns every declared candidate whose status is
// Continuing, sorted lexicographically for deterministic iteration (spec
// §5: "candidates at equal tally are sorted by a fixed key... before
// tie-break").
func (e *Engine) continuingCandidates(status statusBook) []CandidateID {
	var out []CandidateID
	for _, c := range e.cfg.Candidates {
		if status.status(c) == Continuing {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (e *Engine) isBottomsUp() bool {
	return e.cfg.WinnerElectionMode == MultiSeatBottomsUpUntilN || e.cfg.WinnerElectionMode == MultiSeatBottomsUpThreshold
}

// shouldContinue implements spec §4.3.2.
func (e *Engine) shouldContinue() bool {
	if e.haltedByBottomsUpThreshold {
		return false
	}

	E := len(e.eliminatedOrder)
	W := len(e.winnerOrder)
	N := e.cfg.NumberOfWinners
	C := e.numCandidates()

	if e.cfg.ContinueUntilTwoCandidatesRemain {
		return E+W+1 < C || e.lastRoundEliminated
	}

	return W < N || (N > 1 && e.lastRoundWon && !e.isBottomsUp())
}

// Run drives the round loop (spec §4.3.1) to completion.
func (e *Engine) Run() (TabulationResult, error) {
	round := 0

	for e.shouldContinue() {
		select {
		case <-e.cancel:
			return TabulationResult{}, ErrCancelled
		default:
		}

		round++
		e.observer.RoundStarted(round)
		e.lastRoundEliminated = false
		e.lastRoundWon = false

		status := e.statusBook()
		tally, precinctTally, outcomes, transfers := e.computeRoundTally(round, status)

		if e.cfg.WinnerElectionMode == MultiSeatBottomsUpThreshold {
			if round == 1 {
				v := decimal.Zero
				for _, t := range tally {
					v = v.Add(t)
				}
				e.threshold = e.arith.Mul(v, e.cfg.MultiSeatBottomsUpPercentageThreshold)
				e.thresholdSet = true
				e.observer.ThresholdSet(round, e.threshold)
			}
		} else if round == 1 || e.cfg.NumberOfWinners == 1 {
			e.threshold = computeThreshold(e.arith, tally, e.cfg.NumberOfWinners, e.cfg.HareQuota, e.cfg.NonIntegerWinningThreshold)
			e.thresholdSet = true
			e.observer.ThresholdSet(round, e.threshold)
		}

		winners, err := e.identifyWinners(round, tally, status)
		if err != nil {
			return TabulationResult{}, err
		}

		eliminated := map[CandidateID]string{}
		var eliminatedThisRound []CandidateID

		if len(winners) > 0 {
			for _, w := range winners {
				e.winnerOrder = append(e.winnerOrder, w)
				e.winnerRound[w] = round
				e.observer.CandidateWon(round, w)
			}
			e.lastRoundWon = true

			if e.cfg.NumberOfWinners > 1 && !e.isBottomsUp() {
				for _, w := range winners {
					e.applySurplusTransfer(round, w, tally[w])
				}
			}

			if e.cfg.WinnerElectionMode == MultiSeatBottomsUpThreshold {
				e.haltedByBottomsUpThreshold = true
			}
		} else {
			entries, reason, err := e.selectEliminations(round, tally, status)
			if err != nil {
				return TabulationResult{}, err
			}
			if len(entries) == 0 {
				return TabulationResult{}, internalErrorf("round %d: no candidate could be eliminated", round)
			}
			for _, c := range entries {
				e.eliminatedOrder = append(e.eliminatedOrder, c)
				e.eliminatedRound[c] = round
				eliminated[c] = reason
				eliminatedThisRound = append(eliminatedThisRound, c)
				e.observer.CandidateEliminated(round, c, reason)
			}
			e.lastRoundEliminated = true
		}

		if e.cfg.NumberOfWinners > 1 {
			e.applyPastWinnerPlateaus(round, tally)
			e.mirrorPlateauToPrecincts(round, precinctTally)
		}

		e.roundTallyHistory = append(e.roundTallyHistory, tally)
		e.observer.RoundTally(round, tally)

		rec := RoundRecord{
			Round:             round,
			Tallies:           tally,
			PrecinctTallies:   precinctTally,
			Winners:           winners,
			Eliminated:        eliminatedThisRound,
			EliminationReason: eliminated,
			Transfers:         transfers,
			ResidualSurplus:   e.residualCumulative,
			BallotOutcomes:    outcomes,
		}
		e.rounds = append(e.rounds, rec)
	}

	return TabulationResult{
		Rounds:                      e.rounds,
		CandidateToEliminationRound: cloneRoundMap(e.eliminatedRound),
		CandidateToWinningRound:     cloneRoundMap(e.winnerRound),
		WinnerOrder:                 append([]CandidateID(nil), e.winnerOrder...),
		Threshold:                   e.threshold,
	}, nil
}

func cloneRoundMap(m map[CandidateID]int) map[CandidateID]int {
	out := make(map[CandidateID]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// computeRoundTally implements the per-ballot pass described throughout
// spec §3 and §4.2: every non-exhausted ballot either stays, transfers, or
// exhausts, and every continuing candidate gets a tally entry (possibly
// zero). Precinct shadow tallies are updated in lockstep (spec §5).
func (e *Engine) computeRoundTally(round int, status statusBook) (
	map[CandidateID]decimal.Decimal,
	map[string]map[CandidateID]decimal.Decimal,
	[]BallotOutcome,
	map[TallyTransferKey]decimal.Decimal,
) {
	tally := make(map[CandidateID]decimal.Decimal)
	for _, c := range e.continuingCandidates(status) {
		tally[c] = decimal.Zero
	}

	precinct := make(map[string]map[CandidateID]decimal.Decimal)
	transfers := make(map[TallyTransferKey]decimal.Decimal)
	outcomes := make([]BallotOutcome, len(e.ballots))

	for i := range e.ballots {
		b := &e.ballots[i]
		st := &e.scratches[i]

		if st.exhausted {
			outcomes[i] = BallotOutcome{Exhausted: true, Reason: st.exhaustReason, FractionalValue: st.fractionalValue}
			continue
		}

		outcome := interpretBallot(*b, *st, status, e.cfg)

		switch {
		case outcome.stays:
			// recipient unchanged

		case outcome.transfers:
			key := TallyTransferKey{To: outcome.transfersTo}
			if st.hasRecipient {
				key.From = st.currentRecipient
			} else {
				key.FromInitial = true
			}
			transfers[key] = transfers[key].Add(st.fractionalValue)
			st.currentRecipient = outcome.transfersTo
			st.hasRecipient = true

		case outcome.exhausts:
			st.exhaust(outcome.reason)
			e.observer.BallotExhausted(round, i, outcome.reason)
			outcomes[i] = BallotOutcome{Exhausted: true, Reason: outcome.reason, FractionalValue: st.fractionalValue}
			continue
		}

		outcomes[i] = BallotOutcome{Counted: true, Candidate: st.currentRecipient, FractionalValue: st.fractionalValue}

		if status.status(st.currentRecipient) != Continuing {
			// currently resting with a winner under continueUntilTwoCandidatesRemain;
			// counted for audit purposes but not part of the continuing tally.
			continue
		}

		tally[st.currentRecipient] = tally[st.currentRecipient].Add(st.fractionalValue)
		if e.cfg.TabulateByPrecinct && b.Precinct != "" {
			if precinct[b.Precinct] == nil {
				precinct[b.Precinct] = make(map[CandidateID]decimal.Decimal)
			}
			precinct[b.Precinct][st.currentRecipient] = precinct[b.Precinct][st.currentRecipient].Add(st.fractionalValue)
		}
	}

	return tally, precinct, outcomes, transfers
}

// identifyWinners implements spec §4.3.4.
func (e *Engine) identifyWinners(round int, tally map[CandidateID]decimal.Decimal, status statusBook) ([]CandidateID, error) {
	wCurrent := len(e.winnerOrder)
	bottomsUpThreshold := e.cfg.WinnerElectionMode == MultiSeatBottomsUpThreshold
	bottomsUpUntilN := e.cfg.WinnerElectionMode == MultiSeatBottomsUpUntilN

	if !bottomsUpThreshold && wCurrent >= e.cfg.NumberOfWinners {
		return nil, nil
	}

	continuing := e.continuingCandidates(status)
	needed := e.cfg.NumberOfWinners - wCurrent

	if !bottomsUpThreshold && needed > 0 && len(continuing) == needed {
		return append([]CandidateID(nil), continuing...), nil
	}

	if bottomsUpUntilN {
		return nil, nil
	}

	if bottomsUpThreshold {
		var winners []CandidateID
		for _, c := range continuing {
			if tally[c].GreaterThanOrEqual(e.threshold) {
				winners = append(winners, c)
			}
		}
		return winners, nil
	}

	var crossed []CandidateID
	for _, c := range continuing {
		if tally[c].GreaterThanOrEqual(e.threshold) {
			crossed = append(crossed, c)
		}
	}
	if len(crossed) == 0 {
		return nil, nil
	}

	if e.cfg.WinnerElectionMode == MultiSeatAllowMultiplePerRound {
		return crossed, nil
	}

	// allow-only-one-per-round (also the default for singleWinner and the
	// per-pass mode used by the sequential driver): pick the highest tally,
	// tie-broken if more than one crossed simultaneously.
	best := highestTallied(crossed, tally)
	if len(best) == 1 {
		return best, nil
	}

	chosen, explanation, err := e.tb.resolve(round, best, true, e.roundTallyHistory)
	if err != nil {
		return nil, err
	}
	e.observer.TieBreakResolved(round, best, chosen, explanation)
	return []CandidateID{chosen}, nil
}

func highestTallied(candidates []CandidateID, tally map[CandidateID]decimal.Decimal) []CandidateID {
	var best []CandidateID
	var bestVal decimal.Decimal
	for i, c := range candidates {
		v := tally[c]
		if i == 0 || v.GreaterThan(bestVal) {
			best = []CandidateID{c}
			bestVal = v
		} else if v.Equal(bestVal) {
			best = append(best, c)
		}
	}
	return best
}

func lowestTallied(candidates []CandidateID, tally map[CandidateID]decimal.Decimal) []CandidateID {
	var worst []CandidateID
	var worstVal decimal.Decimal
	for i, c := range candidates {
		v := tally[c]
		if i == 0 || v.LessThan(worstVal) {
			worst = []CandidateID{c}
			worstVal = v
		} else if v.Equal(worstVal) {
			worst = append(worst, c)
		}
	}
	return worst
}

// selectEliminations implements spec §4.3.7, trying each rule in order and
// returning the first non-empty result, along with a human-readable
// reason shared by every candidate it returns.
func (e *Engine) selectEliminations(round int, tally map[CandidateID]decimal.Decimal, status statusBook) ([]CandidateID, string, error) {
	if round == 1 && e.cfg.UndeclaredWriteInLabel != "" {
		if v, ok := tally[e.cfg.UndeclaredWriteInLabel]; ok && v.IsPositive() {
			return []CandidateID{e.cfg.UndeclaredWriteInLabel}, "undeclared write-ins", nil
		}
	}

	if e.cfg.MinimumVoteThreshold.IsPositive() {
		var below []CandidateID
		for _, c := range e.continuingCandidates(status) {
			if tally[c].LessThan(e.cfg.MinimumVoteThreshold) {
				below = append(below, c)
			}
		}
		if len(below) > 0 {
			sort.Slice(below, func(i, j int) bool { return below[i] < below[j] })
			return below, "below minimum vote threshold", nil
		}
	}

	if e.cfg.BatchElimination {
		batch := selectBatchEliminations(tally)
		if len(batch) > 0 {
			out := make([]CandidateID, len(batch))
			for i, entry := range batch {
				out[i] = entry.Candidate
			}
			return out, "batch elimination", nil
		}
	}

	continuing := e.continuingCandidates(status)
	if len(continuing) == 0 {
		return nil, "", nil
	}
	worst := lowestTallied(continuing, tally)
	if len(worst) == 1 {
		return worst, "lowest tally", nil
	}

	chosen, explanation, err := e.tb.resolve(round, worst, false, e.roundTallyHistory)
	if err != nil {
		return nil, "", err
	}
	e.observer.TieBreakResolved(round, worst, chosen, explanation)
	return []CandidateID{chosen}, "lowest tally, tie-break: " + explanation, nil
}

// applySurplusTransfer implements spec §4.3.5.
func (e *Engine) applySurplusTransfer(round int, w CandidateID, tallyW decimal.Decimal) {
	if tallyW.IsZero() {
		return
	}

	surplus := tallyW.Sub(e.threshold)
	if surplus.IsNegative() {
		surplus = decimal.Zero
	}
	surplusFraction := e.arith.Div(surplus, tallyW)

	e.observer.SurplusTransferred(round, w, surplusFraction)

	for i := range e.scratches {
		st := &e.scratches[i]
		if st.exhausted || !st.hasRecipient || st.currentRecipient != w {
			continue
		}

		credited := e.arith.Mul(st.fractionalValue, surplusFraction)
		remaining := e.arith.Mul(st.fractionalValue, decimal.NewFromInt(1).Sub(surplusFraction))
		residue := st.fractionalValue.Sub(credited).Sub(remaining)

		st.creditWinner(w, credited)
		st.fractionalValue = remaining
		if residue.IsPositive() {
			e.residualCumulative = e.residualCumulative.Add(residue)
		}
	}
}

// applyPastWinnerPlateaus implements spec §4.3.6: every already-declared
// winner's tally this round either carries forward unchanged (if declared
// before the previous round) or is re-derived from winnerShares (if
// declared in the immediately prior round), with any excess over
// threshold swept into residual surplus.
func (e *Engine) applyPastWinnerPlateaus(round int, tally map[CandidateID]decimal.Decimal) {
	var prevTally map[CandidateID]decimal.Decimal
	if len(e.rounds) > 0 {
		prevTally = e.rounds[len(e.rounds)-1].Tallies
	}

	for _, w := range e.winnerOrder {
		declaredRound := e.winnerRound[w]
		if declaredRound == round {
			continue // handled via the normal tally + surplus-transfer path this round
		}

		if declaredRound == round-1 {
			sum := decimal.Zero
			for i := range e.scratches {
				sum = sum.Add(e.scratches[i].winnerShares[w])
			}
			if sum.GreaterThan(e.threshold) {
				excess := sum.Sub(e.threshold)
				e.residualCumulative = e.residualCumulative.Add(excess)
				tally[w] = e.threshold
			} else {
				tally[w] = sum
			}
			continue
		}

		if prevTally != nil {
			tally[w] = prevTally[w]
		}
	}
}
