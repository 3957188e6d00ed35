package rcv

// CandidateStatus is the computed status of a candidate at a given point in
// the tabulation history (spec §4.2).
type CandidateStatus int

const (
	Continuing CandidateStatus = iota
	Winner
	Eliminated
	Excluded
	Invalid
)

// statusBook answers "what is this candidate's status right now" from the
// engine's running history. It is handed fresh to BallotInterpreter every
// round; the engine owns the history it is built from.
type statusBook struct {
	eliminated map[CandidateID]struct{}
	winners    map[CandidateID]struct{}
	excluded   map[CandidateID]struct{}
	invalid    CandidateID // the explicit-overvote label, never a real candidate

	continueUntilTwoCandidatesRemain bool
}

func (s statusBook) status(c CandidateID) CandidateStatus {
	if c != "" && c == s.invalid {
		return Invalid
	}
	if _, ok := s.excluded[c]; ok {
		return Excluded
	}
	if _, ok := s.eliminated[c]; ok {
		return Eliminated
	}
	if _, ok := s.winners[c]; ok {
		return Winner
	}
	return Continuing
}

// continuingForSelection reports whether c is a candidate BallotInterpreter
// may transfer a vote to this round: status Continuing, or status Winner
// when continueUntilTwoCandidatesRemain is set (spec §4.2).
func (s statusBook) continuingForSelection(c CandidateID) bool {
	switch s.status(c) {
	case Continuing:
		return true
	case Winner:
		return s.continueUntilTwoCandidatesRemain
	default:
		return false
	}
}

// overvoteDecision is the outcome of evaluating a rank set against the
// active overvote rule (spec §4.2.1).
type overvoteDecision int

const (
	decisionNone overvoteDecision = iota
	decisionExhaust
	decisionSkipToNextRank
)

// evaluateOvervote implements the table in spec §4.2.1 exactly.
func evaluateOvervote(rankSet RankSet, overvoteLabel CandidateID, rule OvervoteRule, status statusBook) overvoteDecision {
	_, hasOvervoteLabel := rankSet[overvoteLabel]
	isExplicitOvervote := hasOvervoteLabel && len(rankSet) == 1

	if isExplicitOvervote {
		switch rule {
		case ExhaustImmediately:
			return decisionExhaust
		case AlwaysSkipToNextRank:
			return decisionSkipToNextRank
		}
	}

	if len(rankSet) <= 1 && !hasOvervoteLabel {
		return decisionNone
	}

	if len(rankSet) > 1 {
		switch rule {
		case ExhaustImmediately:
			return decisionExhaust
		case AlwaysSkipToNextRank:
			return decisionSkipToNextRank
		case ExhaustIfMultipleContinuing:
			continuingCount := 0
			for cand := range rankSet {
				if status.continuingForSelection(cand) {
					continuingCount++
				}
			}
			if continuingCount >= 2 {
				return decisionExhaust
			}
			return decisionNone
		}
	}

	return decisionNone
}

// interpretOutcome is what BallotInterpreter decides for one ballot in one
// round (spec §4.2): stay, transfer, or exhaust.
type interpretOutcome struct {
	stays       bool
	transfersTo CandidateID
	transfers   bool
	exhausts    bool
	reason      string
}

// interpretBallot implements BallotInterpreter for a single ballot, given
// its immutable ranking data, its current scratch state, and the round's
// candidate statuses. It does not mutate state; the engine applies the
// outcome.
func interpretBallot(b Ballot, st scratch, status statusBook, cfg Config) interpretOutcome {
	if st.hasRecipient && status.continuingForSelection(st.currentRecipient) {
		return interpretOutcome{stays: true}
	}

	if len(b.Ranks) == 0 {
		return interpretOutcome{exhausts: true, reason: "undervote"}
	}

	lastSeen := 0
	seenOnThisBallot := make(map[CandidateID]struct{})

	ranks := sortedRankKeys(b.Ranks)
	for i, rank := range ranks {
		if !cfg.MaxSkippedRanksAllowed.Unlimited {
			if rank-lastSeen > cfg.MaxSkippedRanksAllowed.Value+1 {
				return interpretOutcome{exhausts: true, reason: "undervote"}
			}
		}
		lastSeen = rank

		rankSet := b.Ranks[rank]

		if cfg.ExhaustOnDuplicateCandidate {
			for cand := range rankSet {
				if _, dup := seenOnThisBallot[cand]; dup {
					return interpretOutcome{exhausts: true, reason: "duplicate candidate: " + string(cand)}
				}
			}
		}
		for cand := range rankSet {
			seenOnThisBallot[cand] = struct{}{}
		}

		decision := evaluateOvervote(rankSet, cfg.ExplicitOvervoteLabel, cfg.OvervoteRule, status)

		switch decision {
		case decisionExhaust:
			return interpretOutcome{exhausts: true, reason: "overvote"}
		case decisionSkipToNextRank:
			if i == len(ranks)-1 {
				return interpretOutcome{exhausts: true, reason: "no continuing candidates"}
			}
			continue
		case decisionNone:
			for cand := range rankSet {
				if status.continuingForSelection(cand) {
					return interpretOutcome{transfers: true, transfersTo: cand}
				}
			}
			// none in this rank set is continuing-for-selection; keep scanning
		}
	}

	if !cfg.MaxSkippedRanksAllowed.Unlimited && b.MaxRank-lastSeen > cfg.MaxSkippedRanksAllowed.Value {
		return interpretOutcome{exhausts: true, reason: "undervote"}
	}
	return interpretOutcome{exhausts: true, reason: "no continuing candidates"}
}

func sortedRankKeys(m map[int]RankSet) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// insertion sort is fine: ballots have at most a few dozen ranks
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
