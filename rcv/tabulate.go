package rcv

// Tabulate validates cfg, runs the engine to completion, and returns the
// full round-by-round result. It is the entry point most callers want;
// NewEngine/Run exist separately only because SequentialDriver needs to
// construct and run several engines with different exclusion sets.
func Tabulate(cfg Config, ballots []Ballot, observer Observer, interactive InteractiveResolver, cancel <-chan struct{}) (TabulationResult, error) {
	if cfg.WinnerElectionMode == MultiSeatSequentialWinnerTakesAll {
		result, err := RunSequential(cfg, ballots, observer, interactive, cancel)
		if err != nil {
			return TabulationResult{}, err
		}
		return mergeSequentialPasses(result), nil
	}

	engine, err := NewEngine(cfg, ballots, observer, interactive, cancel)
	if err != nil {
		return TabulationResult{}, err
	}
	return engine.Run()
}

// mergeSequentialPasses flattens a SequentialResult into a single
// TabulationResult whose round numbers run consecutively across passes,
// for callers that want one audit trail rather than N separate ones.
func mergeSequentialPasses(sr SequentialResult) TabulationResult {
	var out TabulationResult
	offset := 0
	for _, pass := range sr.Passes {
		for _, r := range pass.Rounds {
			r.Round += offset
			out.Rounds = append(out.Rounds, r)
		}
		offset += len(pass.Rounds)
	}
	out.CandidateToEliminationRound = make(map[CandidateID]int)
	out.CandidateToWinningRound = make(map[CandidateID]int)
	roundBase := 0
	for _, pass := range sr.Passes {
		for c, r := range pass.CandidateToEliminationRound {
			out.CandidateToEliminationRound[c] = r + roundBase
		}
		for c, r := range pass.CandidateToWinningRound {
			out.CandidateToWinningRound[c] = r + roundBase
		}
		roundBase += len(pass.Rounds)
	}
	out.WinnerOrder = sr.WinnerOrder
	if len(sr.Passes) > 0 {
		out.Threshold = sr.Passes[0].Threshold
	}
	return out
}
