package rcv

// SequentialResult is the outcome of driving the engine repeatedly under
// multiSeatSequentialWinnerTakesAll (spec §4.6): one full TabulationResult
// per pass, plus the winners in the order they were claimed.
type SequentialResult struct {
	Passes      []TabulationResult
	WinnerOrder []CandidateID
}

// RunSequential implements SequentialDriver. It never observes inside the
// engine; each pass is a complete, independent run from a fresh ballot
// scratch state, with every previously claimed winner added to that pass's
// exclusion set.
func RunSequential(cfg Config, ballots []Ballot, observer Observer, interactive InteractiveResolver, cancel <-chan struct{}) (SequentialResult, error) {
	if cfg.WinnerElectionMode != MultiSeatSequentialWinnerTakesAll {
		return SequentialResult{}, configErrorf("RunSequential requires winnerElectionMode %s, got %s", MultiSeatSequentialWinnerTakesAll, cfg.WinnerElectionMode)
	}

	n := cfg.NumberOfWinners
	passCfg := cfg
	passCfg.NumberOfWinners = 1

	var claimed []CandidateID
	var passes []TabulationResult

	for len(claimed) < n {
		select {
		case <-cancel:
			return SequentialResult{}, ErrCancelled
		default:
		}

		engine, err := NewEngine(passCfg, ballots, observer, interactive, cancel)
		if err != nil {
			return SequentialResult{}, err
		}
		engine.excludeAdditional(claimed...)

		result, err := engine.Run()
		if err != nil {
			return SequentialResult{}, err
		}
		if len(result.WinnerOrder) == 0 {
			return SequentialResult{}, internalErrorf("sequential pass %d produced no winner", len(passes)+1)
		}

		w := result.WinnerOrder[0]
		claimed = append(claimed, w)
		passes = append(passes, result)
	}

	return SequentialResult{Passes: passes, WinnerOrder: claimed}, nil
}
