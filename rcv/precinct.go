package rcv

import "github.com/shopspring/decimal"

// mirrorPlateauToPrecincts applies the same plateau rule applyPastWinnerPlateaus
// used on the aggregate tally to each precinct's shadow tally (spec §5:
// "Winner plateau updates are mirrored across precinct tallies
// identically"). A no-op when by-precinct tabulation isn't enabled.
func (e *Engine) mirrorPlateauToPrecincts(round int, precinct map[string]map[CandidateID]decimal.Decimal) {
	if !e.cfg.TabulateByPrecinct {
		return
	}

	var prevPrecinct map[string]map[CandidateID]decimal.Decimal
	if len(e.rounds) > 0 {
		prevPrecinct = e.rounds[len(e.rounds)-1].PrecinctTallies
	}

	for _, w := range e.winnerOrder {
		declaredRound := e.winnerRound[w]
		if declaredRound == round {
			continue
		}

		if declaredRound == round-1 {
			sums := make(map[string]decimal.Decimal)
			for i := range e.ballots {
				st := &e.scratches[i]
				if st.winnerShares == nil {
					continue
				}
				v, ok := st.winnerShares[w]
				if !ok || e.ballots[i].Precinct == "" {
					continue
				}
				p := e.ballots[i].Precinct
				sums[p] = sums[p].Add(v)
			}
			for p, v := range sums {
				setPrecinctTally(precinct, p, w, v)
			}
			continue
		}

		if prevPrecinct == nil {
			continue
		}
		for p, m := range prevPrecinct {
			if v, ok := m[w]; ok {
				setPrecinctTally(precinct, p, w, v)
			}
		}
	}
}

func setPrecinctTally(precinct map[string]map[CandidateID]decimal.Decimal, p string, c CandidateID, v decimal.Decimal) {
	if precinct[p] == nil {
		precinct[p] = make(map[CandidateID]decimal.Decimal)
	}
	precinct[p][c] = v
}
